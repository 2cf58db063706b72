package handlers

import (
	"time"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/services"
)

type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name}
}

type fileSummaryDTO struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type fileDetailDTO struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

type leadDTO struct {
	ID              string            `json:"id"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Email           string            `json:"email"`
	Country         string            `json:"country"`
	LinkedInProfile string            `json:"linkedin_profile"`
	VisasOfInterest []string          `json:"visas_of_interest"`
	AdditionalInfo  string            `json:"additional_info"`
	ResumeFileID    *string           `json:"resume_file_id"`
	ResumeURL       string            `json:"resume_url,omitempty"`
	Status          models.LeadStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Files           any               `json:"files"`
}

func newLeadDTO(l *models.Lead) leadDTO {
	visas := []string(l.VisasOfInterest)
	if visas == nil {
		visas = []string{}
	}
	return leadDTO{
		ID:              l.ID,
		FirstName:       l.FirstName,
		LastName:        l.LastName,
		Email:           l.Email,
		Country:         l.Country,
		LinkedInProfile: l.LinkedInProfile,
		VisasOfInterest: visas,
		AdditionalInfo:  l.AdditionalInfo,
		ResumeFileID:    l.ResumeFileID,
		ResumeURL:       l.ResumeURL,
		Status:          l.Status,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// toLeadSummary is the listing shape: files carry only id and filename.
func toLeadSummary(l *models.Lead) leadDTO {
	dto := newLeadDTO(l)
	files := make([]fileSummaryDTO, len(l.Files))
	for i, f := range l.Files {
		files[i] = fileSummaryDTO{ID: f.ID, Filename: f.Filename}
	}
	dto.Files = files
	return dto
}

func toLeadDetail(l *models.Lead) leadDTO {
	dto := newLeadDTO(l)
	dto.Files = fileDetails(l)
	return dto
}

func fileDetails(l *models.Lead) []fileDetailDTO {
	files := make([]fileDetailDTO, len(l.Files))
	for i, f := range l.Files {
		files[i] = fileDetailDTO{
			ID:          f.ID,
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Size:        f.Size,
			URL:         services.FileURL(f.ID),
			CreatedAt:   f.CreatedAt,
		}
	}
	return files
}
