package services

import (
	"context"
	"net/http"

	apperrors "github.com/charlesng35/caseintake/pkg/errors"
)

var (
	// ErrLeadNotFound indicates the requested lead does not exist.
	ErrLeadNotFound = apperrors.New("LEAD_NOT_FOUND", "Lead not found", http.StatusNotFound)
	// ErrFileNotFound indicates the requested file does not exist.
	ErrFileNotFound = apperrors.New("FILE_NOT_FOUND", "File not found", http.StatusNotFound)
	// ErrInvalidStatus rejects statuses outside PENDING and REACHED_OUT.
	ErrInvalidStatus = apperrors.NewValidation("Invalid status")
	// ErrLeadIDRequired is returned when an upload names no lead.
	ErrLeadIDRequired = apperrors.ErrUpload.WithMessage("Lead ID is required")
	// ErrNoFile is returned when an upload carries no payload.
	ErrNoFile = apperrors.ErrUpload.WithMessage("No file uploaded")
	// ErrResumeType rejects files outside the accepted document formats.
	ErrResumeType = apperrors.ErrUpload.WithMessage("Resume must be in .doc, .docx, or .pdf format")
	// ErrResumeUnreadable rejects payloads that do not parse as their extension claims.
	ErrResumeUnreadable = apperrors.ErrUpload.WithMessage("Resume could not be read")
	// ErrResumeTooLarge rejects payloads above the configured limit.
	ErrResumeTooLarge = apperrors.New("UPLOAD_ERROR", "Resume exceeds the maximum upload size", http.StatusRequestEntityTooLarge)
	// ErrResumeStorage reports a failure writing the payload to the blob store.
	ErrResumeStorage = apperrors.New("UPLOAD_ERROR", "Failed to upload resume", http.StatusInternalServerError)
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
