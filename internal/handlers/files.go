package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/pkg/logger"
	"github.com/charlesng35/caseintake/pkg/response"
)

// FileHandler accepts resume uploads and serves stored files.
type FileHandler struct {
	files *services.FileService
	log   *zap.Logger
}

func NewFileHandler(files *services.FileService) (*FileHandler, error) {
	if files == nil {
		return nil, errors.New("file handler: file service is required")
	}
	return &FileHandler{files: files, log: logger.WithModule("files")}, nil
}

// POST /api/upload (multipart: file, lead_id)
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, services.ErrNoFile)
		return
	}

	leadID := c.PostForm("lead_id")
	if strings.TrimSpace(leadID) == "" {
		leadID = c.PostForm("leadId")
	}

	data, err := readUpload(header, h.files.MaxBytes())
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.files.Upload(requestContext(c), services.UploadInput{
		LeadID:      leadID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"file_id": file.ID,
		"url":     services.FileURL(file.ID),
	})
}

// GET /api/files/:id
func (h *FileHandler) Download(c *gin.Context) {
	file, rc, err := h.files.Open(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, rc, map[string]string{
		"Content-Disposition":    inlineDisposition(file.Filename),
		"X-Content-Type-Options": "nosniff",
	})
}

// readUpload buffers at most limit+1 bytes so oversize payloads are rejected
// without reading the whole part.
func readUpload(header *multipart.FileHeader, limit int64) ([]byte, error) {
	if header.Size > limit {
		return nil, services.ErrResumeTooLarge
	}
	f, err := header.Open()
	if err != nil {
		return nil, services.ErrNoFile.WithInternal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, services.ErrNoFile.WithInternal(err)
	}
	if int64(len(data)) > limit {
		return nil, services.ErrResumeTooLarge
	}
	return data, nil
}

func inlineDisposition(filename string) string {
	name := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, filename)
	return `inline; filename="` + name + `"`
}
