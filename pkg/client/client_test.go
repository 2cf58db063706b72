package client_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/caseintake/internal/assessment"
	"github.com/charlesng35/caseintake/internal/handlers/testutil"
	"github.com/charlesng35/caseintake/pkg/client"
)

func newServerClient(t *testing.T) (*client.Client, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	c, err := client.New(client.Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c, env
}

func application(first, email string) assessment.Application {
	return assessment.Application{
		FirstName:       first,
		LastName:        "Client",
		Email:           email,
		Country:         "Germany",
		LinkedInProfile: "https://www.linkedin.com/in/" + first,
		VisasOfInterest: []string{"EB-1A"},
		AdditionalInfo:  "Submitted through the API client.",
		Resume: assessment.Resume{
			Filename:    "resume.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4\n%%EOF"),
		},
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := client.New(client.Config{})
	require.Error(t, err)
}

func TestSubmitCreatesLeadAndResume(t *testing.T) {
	c, _ := newServerClient(t)
	ctx := t.Context()

	id, err := c.SubmitAssessment(ctx, application("Kilo", "kilo@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = c.GetLead(ctx, id)
	require.True(t, client.IsStatus(err, http.StatusUnauthorized), "got %v", err)

	user, err := c.Login(ctx, testutil.AdminEmail, testutil.AdminPassword)
	require.NoError(t, err)
	require.Equal(t, testutil.AdminEmail, user.Email)

	lead, err := c.GetLead(ctx, id)
	require.NoError(t, err)
	require.Equal(t, client.StatusPending, lead.Status)
	require.NotNil(t, lead.ResumeFileID)
	require.Len(t, lead.Files, 1)
	require.Equal(t, "resume.pdf", lead.Files[0].Filename)
	require.Equal(t, "/api/files/"+*lead.ResumeFileID, lead.ResumeURL)
}

func TestLoginFailureIsAPIError(t *testing.T) {
	c, _ := newServerClient(t)

	_, err := c.Login(t.Context(), testutil.AdminEmail, "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestLeadBoardRefetchesAfterStatusChange(t *testing.T) {
	c, _ := newServerClient(t)
	ctx := t.Context()

	first, err := c.Submit(ctx, application("Lima", "lima@example.com"))
	require.NoError(t, err)
	_, err = c.Submit(ctx, application("Mike", "mike@example.com"))
	require.NoError(t, err)

	_, err = c.Login(ctx, testutil.AdminEmail, testutil.AdminPassword)
	require.NoError(t, err)

	board := client.NewLeadBoard(c, client.LeadFilter{Status: client.StatusPending})
	require.NoError(t, board.Refresh(ctx))
	require.Len(t, board.Leads(), 2)

	var target client.Lead
	for _, l := range board.Leads() {
		if l.ID == first {
			target = l
		}
	}
	require.Equal(t, first, target.ID)

	updated, err := board.Toggle(ctx, target)
	require.NoError(t, err)
	require.Equal(t, client.StatusReachedOut, updated.Status)
	require.Equal(t, target.Email, updated.Email)

	// The pending listing no longer holds the toggled lead.
	leads := board.Leads()
	require.Len(t, leads, 1)
	require.NotEqual(t, first, leads[0].ID)

	require.NoError(t, board.SetFilter(ctx, client.LeadFilter{Search: "LIMA"}))
	require.Len(t, board.Leads(), 1)
	require.Equal(t, client.StatusReachedOut, board.Leads()[0].Status)

	_, err = board.SetStatus(ctx, "missing", client.StatusPending)
	require.True(t, client.IsStatus(err, http.StatusNotFound), "got %v", err)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	require.True(t, client.IsStatus(err, http.StatusUnauthorized), "got %v", err)
}

func TestSubmitKeepsLeadWhenUploadFails(t *testing.T) {
	var (
		uploads      int
		uploadLeadID string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/leads", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "lead-1", "status": "PENDING"},
		})
	})
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads++
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			uploadLeadID = r.FormValue("lead_id")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "Failed to upload resume",
			"code":    "UPLOAD_ERROR",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := client.New(client.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	form := &assessment.Form{}
	form.SetField(assessment.FieldFirstName, "November")
	form.SetField(assessment.FieldLastName, "Client")
	form.SetField(assessment.FieldEmail, "nov@example.com")
	form.SetField(assessment.FieldCountry, "Germany")
	form.SetField(assessment.FieldLinkedInProfile, "https://linkedin.com/in/nov")
	form.SetField(assessment.FieldAdditionalInfo, "Needs an EB-1A review.")
	form.ToggleVisa("EB-1A")
	form.SetResume(&assessment.Resume{Filename: "cv.docx", Data: []byte("PK")})

	res := form.Submit(t.Context(), c)
	require.False(t, res.OK())
	require.Equal(t, "lead-1", res.LeadID)
	require.Equal(t, assessment.MsgUploadFailed, form.Error)
	require.Equal(t, 1, uploads)
	require.Equal(t, "lead-1", uploadLeadID)

	var subErr *assessment.SubmissionError
	require.True(t, errors.As(res.Err, &subErr))
	var apiErr *client.APIError
	require.ErrorAs(t, res.Err, &apiErr)
	require.Equal(t, "UPLOAD_ERROR", apiErr.Code)
}
