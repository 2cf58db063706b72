package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/assessment"
	"github.com/charlesng35/caseintake/pkg/logger"
)

// SubmissionService runs the public submission: create the lead, then upload
// its resume. A failed upload leaves the lead in place without a resume.
type SubmissionService struct {
	leads  *LeadService
	files  *FileService
	logger *zap.Logger
}

var _ assessment.Submitter = (*SubmissionService)(nil)

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(leads *LeadService, files *FileService) (*SubmissionService, error) {
	if leads == nil {
		return nil, errors.New("submission service: lead service is required")
	}
	if files == nil {
		return nil, errors.New("submission service: file service is required")
	}
	return &SubmissionService{
		leads:  leads,
		files:  files,
		logger: logger.WithModule("submission"),
	}, nil
}

// Submit stores app and returns the new lead id.
func (s *SubmissionService) Submit(ctx context.Context, app assessment.Application) (string, error) {
	lead, err := s.leads.Create(ctx, CreateLeadInput{
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

	_, err = s.files.Upload(ctx, UploadInput{
		LeadID:      lead.ID,
		Filename:    app.Resume.Filename,
		ContentType: app.Resume.ContentType,
		Data:        app.Resume.Data,
	})
	if err != nil {
		s.logger.Warn("lead stored without resume",
			zap.String("lead_id", lead.ID), zap.Error(err))
		return "", &assessment.SubmissionError{Message: assessment.MsgUploadFailed, LeadID: lead.ID, Err: err}
	}

	return lead.ID, nil
}
