package assessment

import (
	"context"
	"errors"
	"strings"
)

// Messages used when a submission fails after validation passed.
const (
	MsgCreateFailed = "Failed to create lead"
	MsgUploadFailed = "Failed to upload resume"
	MsgSubmitFailed = "Failed to submit assessment"
)

// Resume is an uploaded document held in memory until submission.
type Resume struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (r *Resume) Size() int64 {
	if r == nil {
		return 0
	}
	return int64(len(r.Data))
}

// Application is the validated payload handed to a Submitter.
type Application struct {
	FirstName       string
	LastName        string
	Email           string
	Country         string
	LinkedInProfile string
	VisasOfInterest []string
	AdditionalInfo  string
	Resume          Resume
}

// Submitter persists an application and returns the id of the created lead.
type Submitter interface {
	Submit(ctx context.Context, app Application) (string, error)
}

// SubmissionError is returned by submitters with a message fit for the
// applicant. LeadID is set when the lead was stored but a later step failed.
type SubmissionError struct {
	Message string
	LeadID  string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a single submit attempt.
type Result struct {
	LeadID string
	Err    error
}

// OK reports whether the attempt created a lead with its resume.
func (r Result) OK() bool {
	return r.Err == nil && r.LeadID != ""
}

// Form is the state of one applicant's assessment form.
type Form struct {
	FirstName       string
	LastName        string
	Email           string
	Country         string
	LinkedInProfile string
	VisasOfInterest []string
	AdditionalInfo  string
	Resume          *Resume

	// Error is the message shown next to the submit control.
	Error      string
	Submitting bool
	Submitted  bool
	LeadID     string
}

// SetField updates a text field. Unknown fields are ignored.
func (f *Form) SetField(field Field, value string) {
	switch field {
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldEmail:
		f.Email = value
	case FieldCountry:
		f.Country = value
	case FieldLinkedInProfile:
		f.LinkedInProfile = value
	case FieldAdditionalInfo:
		f.AdditionalInfo = value
	default:
		return
	}
	f.Error = ""
}

// ToggleVisa selects visa when it is not selected and deselects it otherwise.
func (f *Form) ToggleVisa(visa string) {
	for i, v := range f.VisasOfInterest {
		if v == visa {
			f.VisasOfInterest = append(f.VisasOfInterest[:i:i], f.VisasOfInterest[i+1:]...)
			f.Error = ""
			return
		}
	}
	f.VisasOfInterest = append(f.VisasOfInterest, visa)
	f.Error = ""
}

// HasVisa reports whether visa is selected.
func (f *Form) HasVisa(visa string) bool {
	for _, v := range f.VisasOfInterest {
		if v == visa {
			return true
		}
	}
	return false
}

// SetResume attaches or, with nil, removes the resume.
func (f *Form) SetResume(r *Resume) {
	f.Resume = r
	f.Error = ""
}

// Validate runs the field rules against the current values.
func (f *Form) Validate() error {
	return Validate(f)
}

// Application copies the current values into a submitter payload.
func (f *Form) Application() Application {
	app := Application{
		FirstName:       strings.TrimSpace(f.FirstName),
		LastName:        strings.TrimSpace(f.LastName),
		Email:           strings.TrimSpace(f.Email),
		Country:         f.Country,
		LinkedInProfile: strings.TrimSpace(f.LinkedInProfile),
		VisasOfInterest: append([]string(nil), f.VisasOfInterest...),
		AdditionalInfo:  strings.TrimSpace(f.AdditionalInfo),
	}
	if f.Resume != nil {
		app.Resume = *f.Resume
	}
	return app
}

// Submit validates the form and, when valid, hands it to s. Validation
// failures never reach s. A submit while another is in flight is refused.
func (f *Form) Submit(ctx context.Context, s Submitter) Result {
	if f.Submitting {
		return Result{Err: errors.New("assessment: submission already in progress")}
	}
	if err := f.Validate(); err != nil {
		f.Error = err.Error()
		return Result{Err: err}
	}

	f.Error = ""
	f.Submitting = true
	leadID, err := s.Submit(ctx, f.Application())
	f.Submitting = false

	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			f.Error = subErr.Message
			return Result{LeadID: subErr.LeadID, Err: err}
		}
		f.Error = MsgSubmitFailed
		return Result{Err: err}
	}

	f.Submitted = true
	f.LeadID = leadID
	return Result{LeadID: leadID}
}

// Reset clears the form for another submission.
func (f *Form) Reset() {
	*f = Form{}
}
