// Package handlers serves the dashboard pages, HTMX fragments and JSON API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"secdash/internal/backend"
	"secdash/internal/cache"
	apperrors "secdash/internal/errors"
	"secdash/internal/locale"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/version"
	"secdash/middleware"
)

const (
	localeWaitTimeout = 2 * time.Second
	lastKnownTTL      = 30 * time.Minute
)

// UploadStore keeps the local upload history.
type UploadStore interface {
	Create(ctx context.Context, f *records.UploadedFile) error
	ListByUser(ctx context.Context, userID, service string) ([]records.UploadedFile, error)
	SyncStatuses(ctx context.Context, statuses map[string]records.Status) (int, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[records.Status]int, error)
}

// RecordsObserver receives the stats of every records page an admin loads.
type RecordsObserver interface {
	ObserveRecords(service string, stats records.Stats)
}

// Dependencies wires the handlers to the rest of the application.
type Dependencies struct {
	Backend  backend.Client
	Sessions *session.Manager
	Locales  *locale.Registry
	Uploads  UploadStore
	Observer RecordsObserver
	WebFS    fs.FS
	// Settings backs the admin settings page. Nil leaves it unmounted.
	Settings *SettingsStore
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handlers holds the parsed templates and shared state of the HTML and JSON
// routes. Routes registered from it expect session.Manager.Middleware to run
// first.
type Handlers struct {
	backend   backend.Client
	sessions  *session.Manager
	locales   *locale.Registry
	uploads   UploadStore
	observer  RecordsObserver
	webFS     fs.FS
	settings  *SettingsStore
	now       func() time.Time
	templates *template.Template
	lastKnown *cache.Cache[backend.RecordSet]
}

// New parses the templates under templates/ in deps.WebFS. A parse failure is
// logged and leaves pages answering 500.
func New(deps Dependencies) *Handlers {
	h := &Handlers{
		backend:   deps.Backend,
		sessions:  deps.Sessions,
		locales:   deps.Locales,
		uploads:   deps.Uploads,
		observer:  deps.Observer,
		webFS:     deps.WebFS,
		settings:  deps.Settings,
		now:       deps.Now,
		lastKnown: cache.New[backend.RecordSet](lastKnownTTL),
	}
	if h.now == nil {
		h.now = time.Now
	}
	if deps.WebFS != nil {
		t, err := template.New("").Funcs(templateFuncMap()).ParseFS(deps.WebFS, "templates/*.html")
		if err != nil {
			logger.Get().Error().Err(err).Msg("failed to parse templates")
		} else {
			h.templates = t
		}
	}
	return h
}

// Register mounts every HTML and JSON route of the dashboard.
func (h *Handlers) Register(router chi.Router) {
	h.RegisterUIRoutes(router)
	h.RegisterAuthRoutes(router)
	h.RegisterUserRoutes(router)
	h.RegisterAdminRoutes(router)
	h.RegisterAPIRoutes(router)
}

type navItem struct {
	Href   string
	Label  string
	Active bool
}

// pageData is embedded by every page template payload.
type pageData struct {
	Locale    *locale.Resolver
	Language  locale.Language
	Languages []locale.Language
	User      *records.User
	Path      string
	Nav       []navItem
	Flash     string
	Error     string
	Version   string
}

func (h *Handlers) newPage(w http.ResponseWriter, r *http.Request) pageData {
	resolver := h.localeFor(w, r)
	page := pageData{
		Locale:    resolver,
		Language:  resolver.Language(),
		Languages: locale.Supported(),
		Path:      r.URL.Path,
		Version:   version.Version,
	}
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		page.User = sess.User
		page.Nav = buildNav(resolver, *sess.User, r.URL.Path, h.settings != nil)
	}
	return page
}

func buildNav(resolver *locale.Resolver, user records.User, current string, settings bool) []navItem {
	items := []navItem{}
	if user.IsAdmin() {
		items = append(items,
			navItem{Href: "/admin/dashboard", Label: resolver.T("nav.dashboard")},
			navItem{Href: "/admin/users", Label: resolver.T("nav.users")},
			navItem{Href: "/admin/analytics", Label: resolver.T("nav.analytics")},
		)
		for _, service := range records.UploadServices() {
			items = append(items, navItem{Href: "/admin/" + service.ID, Label: resolver.T(service.NameKey())})
		}
		if settings {
			items = append(items, navItem{Href: "/admin/settings", Label: resolver.T("nav.settings")})
		}
	} else {
		items = append(items, navItem{Href: "/user/dashboard", Label: resolver.T("nav.dashboard")})
		for _, service := range records.UploadServices() {
			if records.HasPermission(user, service.Permission) {
				items = append(items, navItem{Href: "/user/" + service.ID, Label: resolver.T(service.NameKey())})
			}
		}
		items = append(items, navItem{Href: "/user/change-password", Label: resolver.T("nav.changePassword")})
	}
	for i := range items {
		items[i].Active = items[i].Href == current
	}
	return items
}

// localeFor returns the resolver of the requesting client. A valid lang query
// parameter switches the client's language first.
func (h *Handlers) localeFor(w http.ResponseWriter, r *http.Request) *locale.Resolver {
	clientID := ""
	if sess := session.FromContext(r.Context()); sess != nil {
		clientID = sess.ClientID
	} else {
		clientID = h.sessions.ClientID(w, r)
	}
	resolver := h.locales.Get(clientID, h.sessions.Store().Bucket(clientID))
	if requested, ok := locale.Parse(r.URL.Query().Get(locale.LangParam)); ok && requested != resolver.Language() {
		if err := resolver.SetLanguage(string(requested)); err != nil {
			logger.LocaleEvent(string(requested), err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("failed to switch language from query")
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), localeWaitTimeout)
	defer cancel()
	_ = resolver.Wait(ctx)
	return resolver
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render executes the named template. Failures are logged; the status line may
// already be written.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) bool {
	if h.templates == nil || h.templates.Lookup(name) == nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, errors.New("template not found: "+name)).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("missing template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("template", name).
			Msg("failed to render template")
		return false
	}
	return true
}

// redirect sends the browser to location, using HX-Redirect for HTMX calls.
func redirect(w http.ResponseWriter, r *http.Request, location string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// localPath keeps only same-site relative paths, falling back to "/".
func localPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || parsed.Host != "" || !strings.HasPrefix(parsed.Path, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	if parsed.RawQuery != "" {
		return parsed.Path + "?" + parsed.RawQuery
	}
	return parsed.Path
}

// errorKey maps backend and storage errors to a dictionary key.
func errorKey(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "auth.login.invalidCredentials"
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrUnauthorized):
		return "errors.forbidden"
	case errors.Is(err, apperrors.ErrUnknownService):
		return "errors.unknownService"
	case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrUploadNotFound), errors.Is(err, apperrors.ErrNotFound):
		return "errors.notFound"
	case errors.Is(err, apperrors.ErrBackendUnavailable), errors.Is(err, apperrors.ErrBackendNotConfigured):
		return "errors.backend"
	default:
		return "errors.unexpected"
	}
}

// statusFromError picks the HTTP status reported for err.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrUploadNotFound), errors.Is(err, apperrors.ErrUnknownService), errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidFileType), errors.Is(err, apperrors.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperrors.ErrBackendUnavailable), errors.Is(err, apperrors.ErrBackendNotConfigured):
		return http.StatusServiceUnavailable
	}
	var backendErr *backend.Error
	if errors.As(err, &backendErr) && backendErr.Status >= 400 && backendErr.Status < 500 {
		return backendErr.Status
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, status, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to encode json response")
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error, msg string) {
	logger.HTTPError(r.Method, r.URL.Path, status, err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg(msg)
	message := http.StatusText(status)
	var backendErr *backend.Error
	if errors.As(err, &backendErr) && backendErr.Message != "" && status < http.StatusInternalServerError {
		message = backendErr.Message
	}
	writeJSON(w, r, status, errorResponse{Error: message})
}
