package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/assessment"
	"github.com/charlesng35/caseintake/internal/middleware"
	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/internal/table"
	appErrors "github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/logger"
)

// Paths of the server-rendered pages.
const (
	AdminLoginPath = "/admin"
	AdminLeadsPath = "/admin/leads"
)

// PageHandler renders the public assessment form and the admin screens.
type PageHandler struct {
	submitter assessment.Submitter
	leads     *services.LeadService
	auth      *AuthHandler
	maxBytes  int64
	log       *zap.Logger
}

// PageDeps bundles what the page handler needs.
type PageDeps struct {
	Submitter      assessment.Submitter
	Leads          *services.LeadService
	Auth           *AuthHandler
	MaxUploadBytes int64
}

func NewPageHandler(deps PageDeps) (*PageHandler, error) {
	switch {
	case deps.Submitter == nil:
		return nil, errors.New("page handler: submitter is required")
	case deps.Leads == nil:
		return nil, errors.New("page handler: lead service is required")
	case deps.Auth == nil:
		return nil, errors.New("page handler: auth handler is required")
	}
	maxBytes := deps.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = services.DefaultMaxUploadBytes
	}
	return &PageHandler{
		submitter: deps.Submitter,
		leads:     deps.Leads,
		auth:      deps.Auth,
		maxBytes:  maxBytes,
		log:       logger.WithModule("pages"),
	}, nil
}

type visaOption struct {
	Value   string
	Checked bool
}

type assessmentPage struct {
	Form        *assessment.Form
	Countries   []string
	Visas       []visaOption
	CSRFToken   string
	MaxUploadMB int64
}

type confirmationPage struct {
	LeadID string
}

// GET / and GET /assessment
func (h *PageHandler) AssessmentForm(c *gin.Context) {
	h.renderAssessment(c, http.StatusOK, &assessment.Form{})
}

// POST /assessment
func (h *PageHandler) SubmitAssessment(c *gin.Context) {
	form := &assessment.Form{}
	for _, field := range []assessment.Field{
		assessment.FieldFirstName,
		assessment.FieldLastName,
		assessment.FieldEmail,
		assessment.FieldCountry,
		assessment.FieldLinkedInProfile,
		assessment.FieldAdditionalInfo,
	} {
		form.SetField(field, c.PostForm(string(field)))
	}
	for _, visa := range c.PostFormArray(string(assessment.FieldVisas)) {
		if models.IsVisaCategory(visa) && !form.HasVisa(visa) {
			form.ToggleVisa(visa)
		}
	}

	resume, err := h.formResume(c)
	if err != nil {
		// Fields above the resume input are reported first.
		if verr := assessment.ValidateBefore(form, assessment.FieldResume); verr != nil {
			form.Error = verr.Error()
			h.renderAssessment(c, http.StatusBadRequest, form)
			return
		}
		appErr := appErrors.FromError(err)
		form.Error = appErr.Message
		h.renderAssessment(c, appErr.StatusCode, form)
		return
	}
	form.SetResume(resume)

	result := form.Submit(requestContext(c), h.submitter)
	if result.OK() {
		c.HTML(http.StatusCreated, "confirmation.html", confirmationPage{LeadID: result.LeadID})
		return
	}

	status := http.StatusInternalServerError
	var verr *assessment.ValidationError
	if errors.As(result.Err, &verr) {
		status = http.StatusBadRequest
	} else {
		h.log.Warn("assessment submission failed",
			zap.String("lead_id", result.LeadID), zap.Error(result.Err))
	}
	h.renderAssessment(c, status, form)
}

// formResume reads the optional resume part. A missing part is not an error;
// the form rules report it.
func (h *PageHandler) formResume(c *gin.Context) (*assessment.Resume, error) {
	header, err := c.FormFile(string(assessment.FieldResume))
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, services.ErrNoFile.WithInternal(err)
	}
	data, err := readUpload(header, h.maxBytes)
	if err != nil {
		return nil, err
	}
	return &assessment.Resume{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *PageHandler) renderAssessment(c *gin.Context, status int, form *assessment.Form) {
	visas := make([]visaOption, len(models.VisaCategories))
	for i, v := range models.VisaCategories {
		visas[i] = visaOption{Value: v, Checked: form.HasVisa(v)}
	}
	c.HTML(status, "assessment.html", assessmentPage{
		Form:        form,
		Countries:   models.Countries,
		Visas:       visas,
		CSRFToken:   middleware.CSRFToken(c),
		MaxUploadMB: h.maxBytes >> 20,
	})
}

type loginPage struct {
	Email     string
	Error     string
	CSRFToken string
}

// GET /admin
func (h *PageHandler) AdminLogin(c *gin.Context) {
	if sessionUser(c) != nil {
		c.Redirect(http.StatusFound, AdminLeadsPath)
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{CSRFToken: middleware.CSRFToken(c)})
}

// POST /admin
func (h *PageHandler) AdminLoginSubmit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if _, err := h.auth.signIn(c, email, c.PostForm("password")); err != nil {
		appErr := appErrors.FromError(err)
		c.HTML(appErr.StatusCode, "login.html", loginPage{
			Email:     email,
			Error:     appErr.Message,
			CSRFToken: middleware.CSRFToken(c),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, AdminLeadsPath)
}

// POST /admin/logout
func (h *PageHandler) AdminLogout(c *gin.Context) {
	http.SetCookie(c.Writer, h.auth.sessions.ClearCookie())
	c.Redirect(http.StatusSeeOther, AdminLoginPath)
}

type statusOption struct {
	Value    string
	Label    string
	Selected bool
}

type headerLink struct {
	table.Header
	URL string
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type leadsPage struct {
	User        *models.User
	CSRFToken   string
	Search      string
	Status      string
	Statuses    []statusOption
	Headers     []headerLink
	Rows        []table.Row[models.Lead]
	Pages       []pageLink
	PrevURL     string
	NextURL     string
	Total       int
	ReturnQuery string
	Error       string
}

// leadsQuery is the admin listing state carried in the URL.
type leadsQuery struct {
	Search string
	Status string
	Sort   string
	Dir    table.SortDirection
	Page   int
}

func parseLeadsQuery(values url.Values) leadsQuery {
	q := leadsQuery{
		Search: strings.TrimSpace(values.Get("search")),
		Status: strings.TrimSpace(values.Get("status")),
		Sort:   strings.TrimSpace(values.Get("sort")),
		Dir:    table.ParseSortDirection(values.Get("dir")),
	}
	if q.Status == "" {
		q.Status = "all"
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		q.Page = page - 1
	}
	return q
}

func (q leadsQuery) encode() string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Status != "" && q.Status != "all" {
		values.Set("status", q.Status)
	}
	if q.Sort != "" && q.Dir != table.SortNone {
		values.Set("sort", q.Sort)
		values.Set("dir", q.Dir.String())
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page+1))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func (q leadsQuery) url() string {
	return AdminLeadsPath + q.encode()
}

// GET /admin/leads
func (h *PageHandler) AdminLeads(c *gin.Context) {
	q := parseLeadsQuery(c.Request.URL.Query())

	page := leadsPage{
		User:      sessionUser(c),
		CSRFToken: middleware.CSRFToken(c),
		Search:    q.Search,
		Status:    q.Status,
	}
	page.Statuses = append(page.Statuses, statusOption{Value: "all", Label: "All", Selected: q.Status == "all"})
	for _, s := range models.LeadStatuses {
		page.Statuses = append(page.Statuses, statusOption{
			Value:    string(s),
			Label:    s.Label(),
			Selected: strings.EqualFold(q.Status, string(s)),
		})
	}

	status := http.StatusOK
	leads, err := h.leads.List(requestContext(c), services.LeadFilter{Search: q.Search, Status: q.Status})
	if err != nil {
		appErr := appErrors.FromError(err)
		status = appErr.StatusCode
		page.Error = appErr.Message
		leads = nil
	}

	tbl := table.New(leads, leadColumns(), table.WithPageSize(adminPageSize))
	tbl.SetSort(q.Sort, q.Dir)
	tbl.SetPage(q.Page)
	q.Sort, q.Dir = tbl.Sort()
	q.Page = tbl.PageIndex()
	view := tbl.View()

	page.Total = len(leads)
	page.Rows = view.Rows
	page.ReturnQuery = q.encode()
	for _, header := range view.Headers {
		link := headerLink{Header: header}
		if header.Sortable {
			next := q
			next.Sort, next.Dir, next.Page = header.ID, header.Sort.Next(), 0
			link.URL = next.url()
		}
		page.Headers = append(page.Headers, link)
	}
	for _, idx := range view.VisiblePages {
		target := q
		target.Page = idx
		page.Pages = append(page.Pages, pageLink{Number: idx + 1, URL: target.url(), Current: idx == view.PageIndex})
	}
	if view.CanPrevious {
		prev := q
		prev.Page--
		page.PrevURL = prev.url()
	}
	if view.CanNext {
		next := q
		next.Page++
		page.NextURL = next.url()
	}

	c.HTML(status, "leads.html", page)
}

type errorPage struct {
	Message string
	BackURL string
}

type leadPage struct {
	User        *models.User
	CSRFToken   string
	Lead        leadDTO
	Files       []fileDetailDTO
	Submitted   string
	Next        models.LeadStatus
	Action      string
	BackURL     string
	ReturnQuery string
}

// GET /admin/leads/:id
func (h *PageHandler) AdminLead(c *gin.Context) {
	returnQuery := sanitizeReturnQuery(c.Query("return"))
	back := AdminLeadsPath + returnQuery

	lead, err := h.leads.Get(requestContext(c), c.Param("id"))
	if err != nil {
		appErr := appErrors.FromError(err)
		c.HTML(appErr.StatusCode, "error.html", errorPage{Message: appErr.Message, BackURL: back})
		return
	}

	next := lead.Status.Toggled()
	c.HTML(http.StatusOK, "lead.html", leadPage{
		User:        sessionUser(c),
		CSRFToken:   middleware.CSRFToken(c),
		Lead:        newLeadDTO(lead),
		Files:       fileDetails(lead),
		Submitted:   lead.CreatedAt.Local().Format(submittedLayout),
		Next:        next,
		Action:      actionLabel(next),
		BackURL:     back,
		ReturnQuery: returnQuery,
	})
}

// POST /admin/leads/:id/status
//
// The form names the target status, so posting it twice is a no-op.
func (h *PageHandler) UpdateLeadStatus(c *gin.Context) {
	back := AdminLeadsPath + sanitizeReturnQuery(c.PostForm("return"))

	lead, err := h.leads.UpdateStatus(requestContext(c), c.Param("id"), models.LeadStatus(c.PostForm("status")))
	if err != nil {
		appErr := appErrors.FromError(err)
		c.HTML(appErr.StatusCode, "error.html", errorPage{Message: appErr.Message, BackURL: back})
		return
	}

	h.log.Info("lead status updated",
		zap.String("lead_id", lead.ID),
		zap.String("status", string(lead.Status)),
		zap.String("user_id", c.GetString(middleware.CtxUserIDKey)))

	if c.PostForm("view") == "lead" {
		c.Redirect(http.StatusSeeOther, AdminLeadsPath+"/"+url.PathEscape(lead.ID)+returnParam(c.PostForm("return")))
		return
	}
	c.Redirect(http.StatusSeeOther, back)
}

// sanitizeReturnQuery keeps only the listing parameters of a submitted query
// string so the redirect cannot leave the leads page.
func sanitizeReturnQuery(raw string) string {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return ""
	}
	return parseLeadsQuery(values).encode()
}

// returnParam carries the listing state through the detail page.
func returnParam(raw string) string {
	query := sanitizeReturnQuery(raw)
	if query == "" {
		return ""
	}
	return "?" + url.Values{"return": {query}}.Encode()
}
