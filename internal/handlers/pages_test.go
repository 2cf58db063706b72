package handlers_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/caseintake/internal/app"
	"github.com/charlesng35/caseintake/internal/handlers/testutil"
	"github.com/charlesng35/caseintake/internal/models"
)

func assessmentFields() (map[string]string, map[string][]string) {
	return map[string]string{
			"first_name":       "Joe",
			"last_name":        "Smith",
			"email":            "joe@example.com",
			"country":          "Brazil",
			"linkedin_profile": "https://linkedin.com/in/johndoe",
			"additional_info":  "Looking for an O-1 assessment.",
		}, map[string][]string{
			"visas_of_interest": {"O-1", "EB-2 NIW"},
		}
}

func TestAssessmentFormRenders(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, path := range []string{"/", "/assessment"} {
		w := env.Page(path)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		require.Contains(t, body, `name="csrf_token"`)
		require.Contains(t, body, `<option value="South Korea"`)
		require.Contains(t, body, `value="EB-2 NIW"`)
	}
}

func TestAssessmentSubmitRequiresCSRF(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Do(newFormRequest("/assessment", url.Values{"first_name": {"Joe"}}))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssessmentSubmitReportsFirstFailingRule(t *testing.T) {
	env := testutil.NewEnv(t)

	fields, multi := assessmentFields()
	fields["first_name"] = "Jo"
	fields["linkedin_profile"] = "invalid-url"
	w := env.SubmitMultipart("/assessment", fields, multi,
		testutil.FormFile{Field: "resume", Filename: "cv.pdf", Data: samplePDF})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "First name must be at least 3 characters")
	require.NotContains(t, body, "Please enter a valid LinkedIn")
	// Entered values survive the re-render.
	require.Contains(t, body, `value="joe@example.com"`)

	fields["first_name"] = "Joe"
	w = env.SubmitMultipart("/assessment", fields, map[string][]string{},
		testutil.FormFile{Field: "resume", Filename: "cv.pdf", Data: samplePDF})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Please enter a valid LinkedIn profile URL")

	var count int64
	require.NoError(t, env.DB.Model(&models.Lead{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAssessmentSubmitCreatesLeadWithResume(t *testing.T) {
	env := testutil.NewEnv(t)

	fields, multi := assessmentFields()
	w := env.SubmitMultipart("/assessment", fields, multi,
		testutil.FormFile{Field: "resume", Filename: "joe.pdf", Data: samplePDF})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var lead models.Lead
	require.NoError(t, env.DB.Preload("Files").First(&lead).Error)
	require.Contains(t, w.Body.String(), lead.ID)
	require.Equal(t, models.LeadStatusPending, lead.Status)
	require.Equal(t, []string{"O-1", "EB-2 NIW"}, []string(lead.VisasOfInterest))
	require.NotNil(t, lead.ResumeFileID)
	require.Len(t, lead.Files, 1)
	require.Equal(t, "joe.pdf", lead.Files[0].Filename)
}

func TestAssessmentSubmitKeepsLeadWhenResumeIsUnreadable(t *testing.T) {
	env := testutil.NewEnv(t, func(cfg *app.Config) { cfg.Storage.InspectDocuments = true })

	fields, multi := assessmentFields()
	w := env.SubmitMultipart("/assessment", fields, multi,
		testutil.FormFile{Field: "resume", Filename: "joe.pdf", Data: []byte("not really a pdf")})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Failed to upload resume")

	var lead models.Lead
	require.NoError(t, env.DB.First(&lead).Error)
	require.Nil(t, lead.ResumeFileID)
}

func TestAdminPagesRedirectAnonymousVisitors(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Page("/admin/leads")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/admin", w.Header().Get("Location"))

	w = env.Page("/admin")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Admin Login")
}

func TestAdminFormLogin(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.SubmitForm("/admin", url.Values{"email": {testutil.AdminEmail}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid credentials")

	w = env.SubmitForm("/admin", url.Values{"email": {testutil.AdminEmail}, "password": {testutil.AdminPassword}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin/leads", w.Header().Get("Location"))
	require.NotNil(t, env.Cookie("token"))

	w = env.Page("/admin")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/admin/leads", w.Header().Get("Location"))

	w = env.SubmitForm("/admin/logout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin", w.Header().Get("Location"))
	require.Nil(t, env.Cookie("token"))
}

func TestAdminLeadsPaginatesByEight(t *testing.T) {
	env := testutil.NewEnv(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		seedLead(t, env, fmt.Sprintf("Lead%02d", i), fmt.Sprintf("lead%02d@example.com", i), models.LeadStatusPending, base.Add(time.Duration(i)*time.Minute))
	}
	env.LoginAdmin()

	w := env.Page("/admin/leads")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	require.Equal(t, 8, strings.Count(body, "Mark as Reached Out"))
	// Newest first.
	require.Contains(t, body, "Lead09")
	require.NotContains(t, body, "Lead01")
	require.Contains(t, body, "10 total")

	w = env.Page("/admin/leads?page=2")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, strings.Count(w.Body.String(), "Mark as Reached Out"))

	w = env.Page("/admin/leads?sort=name&dir=asc")
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	require.Less(t, strings.Index(body, "Lead00"), strings.Index(body, "Lead07"))
	require.NotContains(t, body, "Lead08")
}

func TestAdminStatusUpdateRedirectsWithQuery(t *testing.T) {
	env := testutil.NewEnv(t)
	lead := seedLead(t, env, "India", "india@example.com", models.LeadStatusPending, time.Now())
	env.LoginAdmin()

	w := env.Page("/admin/leads")
	require.Contains(t, w.Body.String(), `name="status" value="REACHED_OUT"`)

	w = env.SubmitForm("/admin/leads/"+lead.ID+"/status", url.Values{
		"status": {"REACHED_OUT"},
		"return": {"?status=PENDING&search=ind&next=https://evil.example"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin/leads?search=ind&status=PENDING", w.Header().Get("Location"))

	var stored models.Lead
	require.NoError(t, env.DB.First(&stored, "id = ?", lead.ID).Error)
	require.Equal(t, models.LeadStatusReachedOut, stored.Status)

	w = env.Page("/admin/leads")
	require.Contains(t, w.Body.String(), "Mark as Pending")

	w = env.SubmitForm("/admin/leads/missing/status", url.Values{"status": {"PENDING"}})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Lead not found")
}

func TestAdminStatusUpdateAppliesPostedTarget(t *testing.T) {
	env := testutil.NewEnv(t)
	lead := seedLead(t, env, "Stale", "stale@example.com", models.LeadStatusPending, time.Now())
	env.LoginAdmin()
	env.Page("/admin/leads")

	// Two admins looking at the same page both press "Mark as Reached Out".
	for i := 0; i < 2; i++ {
		w := env.SubmitForm("/admin/leads/"+lead.ID+"/status", url.Values{"status": {"REACHED_OUT"}})
		require.Equal(t, http.StatusSeeOther, w.Code)
	}

	var stored models.Lead
	require.NoError(t, env.DB.First(&stored, "id = ?", lead.ID).Error)
	require.Equal(t, models.LeadStatusReachedOut, stored.Status)

	w := env.SubmitForm("/admin/leads/"+lead.ID+"/status", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid status")

	require.NoError(t, env.DB.First(&stored, "id = ?", lead.ID).Error)
	require.Equal(t, models.LeadStatusReachedOut, stored.Status)
}

func TestAdminLeadDetailShowsLeadAndResume(t *testing.T) {
	env := testutil.NewEnv(t)

	fields, multi := assessmentFields()
	fields["additional_info"] = "Published twelve papers on protein folding."
	w := env.SubmitMultipart("/assessment", fields, multi,
		testutil.FormFile{Field: "resume", Filename: "joe.pdf", Data: samplePDF})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var lead models.Lead
	require.NoError(t, env.DB.First(&lead).Error)
	require.NotNil(t, lead.ResumeFileID)

	w = env.Page("/admin/leads/" + lead.ID)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/admin", w.Header().Get("Location"))

	env.LoginAdmin()

	w = env.Page("/admin/leads")
	require.Contains(t, w.Body.String(), `href="/admin/leads/`+lead.ID+`"`)

	w = env.Page("/admin/leads/" + lead.ID + "?return=" + url.QueryEscape("?status=PENDING"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	require.Contains(t, body, "Joe Smith")
	require.Contains(t, body, "joe@example.com")
	require.Contains(t, body, "O-1, EB-2 NIW")
	require.Contains(t, body, "Published twelve papers on protein folding.")
	require.Contains(t, body, "View Resume")
	require.Contains(t, body, `href="/api/files/`+*lead.ResumeFileID+`"`)
	require.Contains(t, body, `name="status" value="REACHED_OUT"`)
	require.Contains(t, body, "Mark as Reached Out")
	require.Contains(t, body, `href="/admin/leads?status=PENDING"`)

	w = env.SubmitForm("/admin/leads/"+lead.ID+"/status", url.Values{
		"status": {"REACHED_OUT"},
		"view":   {"lead"},
		"return": {"?status=PENDING"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin/leads/"+lead.ID+"?return=%3Fstatus%3DPENDING", w.Header().Get("Location"))

	w = env.Page("/admin/leads/" + lead.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Mark as Pending")

	w = env.Page("/admin/leads/missing")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Lead not found")
}

func TestAssessmentSubmitDropsUnknownVisas(t *testing.T) {
	env := testutil.NewEnv(t)

	fields, _ := assessmentFields()
	w := env.SubmitMultipart("/assessment", fields,
		map[string][]string{"visas_of_interest": {"H-1B", "O-1"}},
		testutil.FormFile{Field: "resume", Filename: "joe.pdf", Data: samplePDF})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var lead models.Lead
	require.NoError(t, env.DB.First(&lead).Error)
	require.Equal(t, []string{"O-1"}, []string(lead.VisasOfInterest))
}

func TestAssessmentSubmitReportsFieldsBeforeOversizeResume(t *testing.T) {
	env := testutil.NewEnv(t)
	huge := testutil.FormFile{Field: "resume", Filename: "huge.pdf", Data: []byte(strings.Repeat("a", 2<<20))}

	fields, multi := assessmentFields()
	fields["first_name"] = "Jo"
	w := env.SubmitMultipart("/assessment", fields, multi, huge)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "First name must be at least 3 characters")

	fields["first_name"] = "Joe"
	w = env.SubmitMultipart("/assessment", fields, multi, huge)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Contains(t, w.Body.String(), "Resume exceeds the maximum upload size")

	var count int64
	require.NoError(t, env.DB.Model(&models.Lead{}).Count(&count).Error)
	require.Zero(t, count)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
