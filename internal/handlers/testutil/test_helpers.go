package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/api"
	"github.com/charlesng35/caseintake/internal/app"
	sharedtestutil "github.com/charlesng35/caseintake/internal/database/testutil"
	"github.com/charlesng35/caseintake/internal/middleware"
	"github.com/charlesng35/caseintake/internal/storage"
)

// Credentials of the admin seeded into every test environment.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "correct-horse-battery"
)

// Env encapsulates a fully-wired router backed by an in-memory database for handler tests.
// It keeps a small cookie jar so the session and CSRF cookies follow the client.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Store  storage.BlobStore
	Config *app.Config
	Router *gin.Engine

	cookies map[string]*http.Cookie
}

// Option adjusts the configuration before the router is built.
type Option func(*app.Config)

// NewEnv provisions a fresh handler test environment with migrations and the admin seed applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAdmin(AdminEmail, AdminPassword))

	cfg := &app.Config{
		Server: app.ServerConfig{Environment: "test"},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "caseintake",
				TTL:    time.Hour,
			},
			Local: app.LocalAuthSettings{LockoutThreshold: 3, LockoutDuration: time.Minute},
		},
		Storage: app.StorageConfig{Driver: storage.BackendDatabase, MaxUploadBytes: 1 << 20},
		Metrics: app.MetricsConfig{Enabled: true},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store, err := storage.New(t.Context(), cfg.Storage.BlobStoreConfig(), db)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{Config: cfg, DB: db, Store: store})
	require.NoError(t, err)

	return &Env{
		T:       t,
		DB:      db,
		Store:   store,
		Config:  cfg,
		Router:  router,
		cookies: map[string]*http.Cookie{},
	}
}

// UserPayload captures the user fields returned from auth endpoints.
type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login signs in through the JSON API. The session cookie is kept for later requests.
func (e *Env) Login(email, password string) UserPayload {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result struct {
		User UserPayload `json:"user"`
	}
	DecodeInto(e.T, resp.Data, &result)
	require.Equal(e.T, email, result.User.Email)
	require.NotNil(e.T, e.Cookie("token"), "session cookie not set")
	return result.User
}

// LoginAdmin signs in as the seeded admin.
func (e *Env) LoginAdmin() UserPayload {
	e.T.Helper()
	return e.Login(AdminEmail, AdminPassword)
}

// Logout forgets every cookie held by the client.
func (e *Env) Logout() {
	e.cookies = map[string]*http.Cookie{}
}

// Cookie returns the cookie currently held by the client, if any.
func (e *Env) Cookie(name string) *http.Cookie {
	return e.cookies[name]
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes a JSON request against the router with the client's cookies.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.Do(req)
}

// Upload posts a multipart resume to /api/upload.
func (e *Env) Upload(leadID, filename string, data []byte) *httptest.ResponseRecorder {
	e.T.Helper()

	fields := map[string]string{}
	if leadID != "" {
		fields["lead_id"] = leadID
	}
	var files []FormFile
	if filename != "" {
		files = append(files, FormFile{Field: "file", Filename: filename, Data: data})
	}
	body, contentType := MultipartBody(e.T, fields, nil, files...)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	return e.Do(req)
}

// FormFile is one file part of a multipart body.
type FormFile struct {
	Field    string
	Filename string
	Data     []byte
}

// MultipartBody encodes fields, repeated multi-value fields and files.
func MultipartBody(t *testing.T, fields map[string]string, multi map[string][]string, files ...FormFile) (io.Reader, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, values := range multi {
		for _, v := range values {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

// Page fetches a server-rendered page. The CSRF cookie it issues is kept.
func (e *Env) Page(path string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// SubmitForm posts an url-encoded form to a page, echoing the CSRF token.
func (e *Env) SubmitForm(path string, form url.Values) *httptest.ResponseRecorder {
	e.T.Helper()

	form = cloneValues(form)
	form.Set(middleware.CSRFFormField, e.CSRFToken())

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.Do(req)
}

// SubmitMultipart posts a multipart form to a page, echoing the CSRF token.
func (e *Env) SubmitMultipart(path string, fields map[string]string, multi map[string][]string, files ...FormFile) *httptest.ResponseRecorder {
	e.T.Helper()

	withToken := map[string]string{middleware.CSRFFormField: e.CSRFToken()}
	for k, v := range fields {
		withToken[k] = v
	}
	body, contentType := MultipartBody(e.T, withToken, multi, files...)

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return e.Do(req)
}

// CSRFToken returns the double-submit token, fetching a page first when none is held yet.
func (e *Env) CSRFToken() string {
	e.T.Helper()
	if c := e.cookies[middleware.CSRFCookieName]; c != nil {
		return c.Value
	}
	w := e.Page("/assessment")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	c := e.cookies[middleware.CSRFCookieName]
	require.NotNil(e.T, c, "csrf cookie not issued")
	return c.Value
}

// Do sends req with the held cookies and records any cookies set in the response.
func (e *Env) Do(req *http.Request) *httptest.ResponseRecorder {
	e.T.Helper()

	for _, c := range e.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	e.captureCookies(w.Result())
	return w
}

func (e *Env) captureCookies(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.cookies, c.Name)
			continue
		}
		clone := *c
		e.cookies[c.Name] = &clone
	}
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, values := range v {
		out[k] = append([]string(nil), values...)
	}
	return out
}
