package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/assessment"
)

// Lead statuses accepted by UpdateStatus.
const (
	StatusPending    = "PENDING"
	StatusReachedOut = "REACHED_OUT"
)

// FileSummary describes a stored resume.
type FileSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// Lead is a submitted assessment as the API returns it.
type Lead struct {
	ID              string        `json:"id"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Email           string        `json:"email"`
	Country         string        `json:"country"`
	LinkedInProfile string        `json:"linkedin_profile"`
	VisasOfInterest []string      `json:"visas_of_interest"`
	AdditionalInfo  string        `json:"additional_info"`
	ResumeFileID    *string       `json:"resume_file_id,omitempty"`
	ResumeURL       string        `json:"resume_url,omitempty"`
	Status          string        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Files           []FileSummary `json:"files"`
}

// NewLead is the body of POST /api/leads.
type NewLead struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Country         string   `json:"country,omitempty"`
	LinkedInProfile string   `json:"linkedin_profile"`
	VisasOfInterest []string `json:"visas_of_interest"`
	AdditionalInfo  string   `json:"additional_info,omitempty"`
}

// LeadFilter narrows ListLeads. Empty fields are omitted.
type LeadFilter struct {
	Search string
	Status string
}

func (f LeadFilter) values() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if s := strings.TrimSpace(f.Status); s != "" && !strings.EqualFold(s, "all") {
		q.Set("status", s)
	}
	return q
}

// Upload is the result of POST /api/upload.
type Upload struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

// CreateLead stores a lead. The server always starts it as PENDING.
func (c *Client) CreateLead(ctx context.Context, lead NewLead) (*Lead, error) {
	var out Lead
	if err := c.doJSON(ctx, http.MethodPost, "/api/leads", nil, lead, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadResume attaches a document to leadID and repoints its resume.
func (c *Client) UploadResume(ctx context.Context, leadID string, doc assessment.Resume) (*Upload, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("lead_id", leadID); err != nil {
		return nil, err
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out Upload
	if err := c.do(ctx, http.MethodPost, "/api/upload", nil, mw.FormDataContentType(), buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit creates the lead and then uploads its resume. When the upload fails
// the lead stays on the server and the returned *assessment.SubmissionError
// carries its id.
func (c *Client) Submit(ctx context.Context, app assessment.Application) (string, error) {
	lead, err := c.CreateLead(ctx, NewLead{
		FirstName:       app.FirstName,
		LastName:        app.LastName,
		Email:           app.Email,
		Country:         app.Country,
		LinkedInProfile: app.LinkedInProfile,
		VisasOfInterest: app.VisasOfInterest,
		AdditionalInfo:  app.AdditionalInfo,
	})
	if err != nil {
		return "", &assessment.SubmissionError{Message: assessment.MsgCreateFailed, Err: err}
	}

	if _, err := c.UploadResume(ctx, lead.ID, app.Resume); err != nil {
		c.log.Warn("lead stored without resume", zap.String("lead_id", lead.ID), zap.Error(err))
		return "", &assessment.SubmissionError{Message: assessment.MsgUploadFailed, LeadID: lead.ID, Err: err}
	}
	return lead.ID, nil
}

// SubmitAssessment is Submit under the name the form flow uses.
func (c *Client) SubmitAssessment(ctx context.Context, app assessment.Application) (string, error) {
	return c.Submit(ctx, app)
}

// ListLeads returns matching leads, newest first. Requires a session.
func (c *Client) ListLeads(ctx context.Context, filter LeadFilter) ([]Lead, error) {
	var out struct {
		Leads []Lead `json:"leads"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/leads", filter.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Leads, nil
}

// GetLead returns one lead with its files. Requires a session.
func (c *Client) GetLead(ctx context.Context, id string) (*Lead, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("client: lead id is required")
	}
	var out Lead
	if err := c.doJSON(ctx, http.MethodGet, "/api/leads/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus sets the status of a lead. Requires a session.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*Lead, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("client: lead id is required")
	}
	var out Lead
	body := map[string]string{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/leads/"+url.PathEscape(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ assessment.Submitter = (*Client)(nil)
