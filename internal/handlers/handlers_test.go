package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secdash/internal/backend"
	apperrors "secdash/internal/errors"
	"secdash/internal/locale"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/storage"
	"secdash/internal/uploads"
)

func init() {
	logger.SetOutput(io.Discard)
}

var testWebFS = fstest.MapFS{
	"templates/login.html":           {Data: []byte(`login|{{t .Locale "auth.login.title"}}|{{.Email}}|{{range $f, $k := .Fields}}{{$f}}={{$k}};{{end}}|{{.Error}}`)},
	"templates/forgot-password.html": {Data: []byte(`forgot|{{.Done}}|{{.Flash}}|{{.Error}}|{{range $f, $k := .Fields}}{{$f}};{{end}}`)},
	"templates/reset-password.html":  {Data: []byte(`reset|{{.Token}}|{{.Done}}|{{.Flash}}|{{.Error}}|{{range $f, $k := .Fields}}{{$f}};{{end}}`)},
	"templates/user-dashboard.html":  {Data: []byte(`dashboard|{{range .Services}}{{.Service.ID}}={{.Href}};{{end}}|{{range .Nav}}{{.Href}}{{if .Active}}*{{end}};{{end}}`)},
	"templates/change-password.html": {Data: []byte(`change|{{.Flash}}|{{.Error}}|{{range $f, $k := .Fields}}{{$f}};{{end}}`)},
	"templates/user-service.html": {Data: []byte(`service|{{.Service.ID}}|{{.Flash}}|{{.Error}}|{{template "uploads-table" .}}` +
		`{{define "uploads-table"}}table|{{.Uploads.Total}}|{{range .Uploads.Items}}{{.Filename}}:{{.Status}};{{end}}{{end}}`)},
	"templates/admin-dashboard.html": {Data: []byte(`admin|{{.Users.Total}}|{{.Totals.Total}}|{{range .Usage}}{{.Service.ID}}={{.Stats.Total}}{{if .Failed}}!{{end}};{{end}}|{{.Error}}|users={{.Totals.Users}}`)},
	"templates/admin-users.html": {Data: []byte(`users|{{.Stats.Total}}|{{.Error}}|{{template "users-table" .}}` +
		`{{define "users-table"}}rows|{{.Users.Filtered}}|{{range .Users.Items}}{{.Email}};{{end}}{{end}}`)},
	"templates/user-form.html": {Data: []byte(`form|{{.Creating}}|{{.Form.Email}}|{{.Error}}|{{range $f, $k := .Fields}}{{$f}};{{end}}`)},
	"templates/admin-records.html": {Data: []byte(`records|{{.Service.ID}}|{{.Stats.Total}}|{{.Error}}|{{template "records-table" .}}` +
		`{{define "records-table"}}rows|{{.Scans.Filtered}}|{{.Protections.Filtered}}|{{.Compatibility.Filtered}}|{{.Analyses.Filtered}}{{end}}`)},
	"templates/admin-analytics.html":  {Data: []byte(`analytics|{{.Report.Range}}|{{.Report.Current.Uploads}}|{{.Report.Current.Threats}}|{{range .Statuses}}{{.}}={{index $.Uploads .}};{{end}}|{{.Error}}`)},
	"templates/admin-settings.html":   {Data: []byte(`settings|{{.Settings.Site.Name}}|{{.Settings.Email.SMTPPassword}}|{{.SMTPPasswordSet}}|{{.Flash}}|{{.Error}}|{{range $f, $k := .Fields}}{{$f}};{{end}}`)},
	"templates/status-indicator.html": {Data: []byte(`{{.Class}}|{{.Title}}|{{.VersionText}}`)},
	"templates/docs.html":             {Data: []byte(`docs|{{.Service.ID}}|{{template "docs-content" .}}{{define "docs-content"}}{{.Content}}{{end}}`)},
	"docs/app-total-go.en.md":         {Data: []byte("# AppTotalGo\n\nScan apps.\n")},
	"docs/app-total-go.vi.md":         {Data: []byte("# AppTotalGo\n\nQuét ứng dụng.\n")},
}

// testNow places the demo records inside the analytics windows.
var testNow = time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)

type recordingObserver struct {
	mu   sync.Mutex
	seen map[string]records.Stats
}

func (o *recordingObserver) ObserveRecords(service string, stats records.Stats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = make(map[string]records.Stats)
	}
	o.seen[service] = stats
}

func (o *recordingObserver) get(service string) (records.Stats, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	stats, ok := o.seen[service]
	return stats, ok
}

type testEnv struct {
	t        *testing.T
	backend  backend.Client
	manager  *session.Manager
	store    *storage.Store
	uploads  *uploads.Repository
	observer *recordingObserver
	handlers *Handlers
	router   chi.Router
}

func newTestEnv(t *testing.T, client backend.Client) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "clients.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	db, err := uploads.Open(filepath.Join(dir, "uploads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	registry := locale.NewRegistry(ctx, locale.NewFSLoader(locale.EmbeddedFS()), 32)

	env := &testEnv{
		t:        t,
		backend:  client,
		manager:  session.NewManager(store, time.Hour, false),
		store:    store,
		uploads:  uploads.NewRepository(db),
		observer: &recordingObserver{},
	}
	env.handlers = New(Dependencies{
		Backend:  client,
		Sessions: env.manager,
		Locales:  registry,
		Uploads:  env.uploads,
		Observer: env.observer,
		Settings: NewSettingsStore(filepath.Join(dir, "settings.json")),
		Now:      func() time.Time { return testNow },
		WebFS:    testWebFS,
	})
	router := chi.NewRouter()
	router.Use(env.manager.Middleware)
	env.handlers.Register(router)
	env.router = router
	return env
}

func newDemoEnv(t *testing.T) *testEnv {
	t.Helper()
	client, err := backend.NewDemoClient(backend.DefaultDemoCredentials)
	require.NoError(t, err)
	return newTestEnv(t, client)
}

// signIn stores a session for token and user under a fresh client cookie.
func (e *testEnv) signIn(token string, user records.User) *http.Cookie {
	e.t.Helper()
	clientID := uuid.NewString()
	require.NoError(e.t, e.manager.Login(context.Background(), clientID, token, user))
	return &http.Cookie{Name: session.ClientCookieName, Value: clientID}
}

// signInDemo signs in against the demo backend.
func (e *testEnv) signInDemo(email, password string) (*http.Cookie, records.User) {
	e.t.Helper()
	result, err := e.backend.Login(context.Background(), email, password)
	require.NoError(e.t, err)
	return e.signIn(result.Token, result.User), result.User
}

func (e *testEnv) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func htmx(req *http.Request) *http.Request {
	req.Header.Set("HX-Request", "true")
	return req
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired session", apperrors.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"missing user", apperrors.ErrUserNotFound, http.StatusNotFound},
		{"missing backend resource", apperrors.ErrNotFound, http.StatusNotFound},
		{"records 404 is not a missing user", &backend.Error{Op: "list records", Status: http.StatusNotFound}, http.StatusNotFound},
		{"bad file type", apperrors.ErrInvalidFileType, http.StatusUnprocessableEntity},
		{"file too large", apperrors.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"backend down", &backend.Error{Op: "list", Status: 502}, http.StatusBadGateway},
		{"conflict passthrough", &backend.Error{Op: "create user", Status: http.StatusConflict}, http.StatusConflict},
		{"unknown error", errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestErrorKey(t *testing.T) {
	assert.Equal(t, "errors.backend", errorKey(apperrors.ErrBackendUnavailable))
	assert.Equal(t, "errors.forbidden", errorKey(apperrors.ErrUnauthorized))
	assert.Equal(t, "errors.notFound", errorKey(apperrors.ErrUploadNotFound))
	assert.Equal(t, "errors.notFound", errorKey(apperrors.ErrNotFound))
	assert.Equal(t, "errors.unexpected", errorKey(errors.New("boom")))
}

func TestLocalPath(t *testing.T) {
	tests := map[string]string{
		"":                        "/",
		"/user/dashboard":         "/user/dashboard",
		"/admin/users?search=jan": "/admin/users?search=jan",
		"https://evil.example/":   "/",
		"//evil.example/path":     "/",
		"relative/path":           "/",
	}
	for input, want := range tests {
		assert.Equal(t, want, localPath(input), "input %q", input)
	}
}

func TestNew_WithoutWebFSAnswers500(t *testing.T) {
	h := New(Dependencies{})
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	assert.False(t, h.render(rec, req, http.StatusOK, "login.html", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRedirect_HTMXUsesHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	redirect(rec, htmx(httptest.NewRequest(http.MethodPost, "/x", nil)), "/user/dashboard")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("HX-Redirect"))

	rec = httptest.NewRecorder()
	redirect(rec, httptest.NewRequest(http.MethodPost, "/x", nil), "/user/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
}
