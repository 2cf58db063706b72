// Package assessment holds the public case-assessment form: its field rules
// and the state a submitter moves through.
package assessment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/resume"
)

// Field names a form input. Values match the JSON and form keys.
type Field string

const (
	FieldFirstName       Field = "first_name"
	FieldLastName        Field = "last_name"
	FieldEmail           Field = "email"
	FieldCountry         Field = "country"
	FieldLinkedInProfile Field = "linkedin_profile"
	FieldVisas           Field = "visas_of_interest"
	FieldResume          Field = "resume"
	FieldAdditionalInfo  Field = "additional_info"
)

// Messages shown for each failing rule.
const (
	MsgFirstName      = "First name must be at least 3 characters"
	MsgLastName       = "Last name must be at least 2 characters"
	MsgEmail          = "Please enter a valid email address"
	MsgCountry        = "Please select a country"
	MsgLinkedIn       = "Please enter a valid LinkedIn profile URL"
	MsgVisas          = "Please select at least one visa category"
	MsgResumeMissing  = "Please upload a resume"
	MsgResumeType     = "Resume must be in .doc, .docx, or .pdf format"
	MsgAdditionalInfo = "Additional information must be at least 10 characters"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	linkedInPattern = regexp.MustCompile(`^https?://(www\.)?linkedin\.com/.*$`)
)

// ValidationError reports the first rule a form failed.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type rule struct {
	field   Field
	message string
	ok      func(*Form) bool
}

// rules run in the order a submitter meets the fields on the page.
var rules = []rule{
	{FieldFirstName, MsgFirstName, func(f *Form) bool { return minTrimmed(f.FirstName, 3) }},
	{FieldLastName, MsgLastName, func(f *Form) bool { return minTrimmed(f.LastName, 2) }},
	{FieldEmail, MsgEmail, func(f *Form) bool { return emailPattern.MatchString(strings.TrimSpace(f.Email)) }},
	{FieldCountry, MsgCountry, func(f *Form) bool { return models.IsCountry(f.Country) }},
	{FieldLinkedInProfile, MsgLinkedIn, func(f *Form) bool { return linkedInPattern.MatchString(strings.TrimSpace(f.LinkedInProfile)) }},
	{FieldVisas, MsgVisas, func(f *Form) bool { return hasKnownVisa(f.VisasOfInterest) }},
	{FieldResume, MsgResumeMissing, func(f *Form) bool { return f.Resume != nil && strings.TrimSpace(f.Resume.Filename) != "" }},
	{FieldResume, MsgResumeType, func(f *Form) bool { return resume.IsAllowed(f.Resume.Filename) }},
	{FieldAdditionalInfo, MsgAdditionalInfo, func(f *Form) bool { return minTrimmed(f.AdditionalInfo, 10) }},
}

// Validate checks f and returns the first failing rule as a *ValidationError.
func Validate(f *Form) error {
	for _, r := range rules {
		if !r.ok(f) {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

// ValidateBefore runs only the rules for fields shown above field.
func ValidateBefore(f *Form, field Field) error {
	for _, r := range rules {
		if r.field == field {
			return nil
		}
		if !r.ok(f) {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

func minTrimmed(value string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) >= n
}

func hasKnownVisa(visas []string) bool {
	for _, v := range visas {
		if models.IsVisaCategory(v) {
			return true
		}
	}
	return false
}
