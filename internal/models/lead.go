package models

import (
	"strings"

	"gorm.io/datatypes"
)

// LeadStatus tracks outreach progress for a lead.
type LeadStatus string

const (
	LeadStatusPending    LeadStatus = "PENDING"
	LeadStatusReachedOut LeadStatus = "REACHED_OUT"
)

// LeadStatuses lists every valid status in display order.
var LeadStatuses = []LeadStatus{LeadStatusPending, LeadStatusReachedOut}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	return s == LeadStatusPending || s == LeadStatusReachedOut
}

// Label returns the human readable form shown to admins.
func (s LeadStatus) Label() string {
	switch s {
	case LeadStatusPending:
		return "Pending"
	case LeadStatusReachedOut:
		return "Reached Out"
	default:
		return string(s)
	}
}

// Toggled returns the opposite status.
func (s LeadStatus) Toggled() LeadStatus {
	if s == LeadStatusReachedOut {
		return LeadStatusPending
	}
	return LeadStatusReachedOut
}

// Visa categories an applicant may express interest in.
const (
	VisaO1      = "O-1"
	VisaEB1A    = "EB-1A"
	VisaEB2NIW  = "EB-2 NIW"
	VisaUnknown = "I don't know"
)

// VisaCategories lists the selectable categories in form order.
var VisaCategories = []string{VisaO1, VisaEB1A, VisaEB2NIW, VisaUnknown}

// Countries lists the selectable countries of citizenship in form order.
var Countries = []string{
	"Mexico",
	"Brazil",
	"India",
	"China",
	"Russia",
	"South Korea",
	"France",
	"Germany",
	"Italy",
	"Japan",
	"United Kingdom",
	"Australia",
	"Canada",
	"New_Zealand",
	"Other_EU",
	"Other",
}

// IsVisaCategory reports whether v is a selectable visa category.
func IsVisaCategory(v string) bool {
	for _, c := range VisaCategories {
		if c == v {
			return true
		}
	}
	return false
}

// IsCountry reports whether c is a selectable country.
func IsCountry(c string) bool {
	for _, v := range Countries {
		if v == c {
			return true
		}
	}
	return false
}

// Lead is a prospective client's case-assessment request.
type Lead struct {
	BaseModel

	FirstName       string                      `gorm:"type:varchar(120);not null" json:"first_name"`
	LastName        string                      `gorm:"type:varchar(120);not null" json:"last_name"`
	Email           string                      `gorm:"type:varchar(255);not null;index" json:"email"`
	Country         string                      `gorm:"type:varchar(64)" json:"country"`
	LinkedInProfile string                      `gorm:"column:linkedin_profile;type:varchar(512);not null" json:"linkedin_profile"`
	VisasOfInterest datatypes.JSONSlice[string] `gorm:"not null" json:"visas_of_interest"`
	AdditionalInfo  string                      `gorm:"type:text" json:"additional_info"`
	ResumeFileID    *string                     `gorm:"type:uuid" json:"resume_file_id,omitempty"`
	ResumeURL       string                      `gorm:"type:varchar(255)" json:"resume_url,omitempty"`
	Status          LeadStatus                  `gorm:"type:varchar(32);not null;default:PENDING;index" json:"status"`

	Files []File `gorm:"foreignKey:LeadID" json:"-"`
}

// FullName joins first and last name for display.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}
