package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"secdash/internal/locale"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/version"
	"secdash/middleware"
)

const statusCheckTimeout = 3 * time.Second

type statusTemplateData struct {
	Locale      *locale.Resolver
	Connected   bool
	Class       string
	Title       string
	VersionText string
}

type docsTemplateData struct {
	pageData
	Service records.Service
	Content template.HTML
}

// RegisterUIRoutes mounts the landing redirect, the language switch, the
// backend status pill and the service docs.
func (h *Handlers) RegisterUIRoutes(router chi.Router) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.Authenticated() {
			http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, session.DashboardPath(*sess.User), http.StatusSeeOther)
	})

	router.Post("/ui/language", func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		resolver := h.localeFor(w, r)
		code := r.Form.Get(locale.LangParam)
		if err := resolver.SetLanguage(code); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, locale.ErrUnsupportedLanguage) {
				status = http.StatusBadRequest
			}
			logger.HTTPError(r.Method, r.URL.Path, status, err).
				Str("request_id", requestID).
				Str("language", code).
				Msg("language switch rejected")
			http.Error(w, resolver.T("language.unsupported"), status)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), localeWaitTimeout)
		defer cancel()
		_ = resolver.Wait(ctx)
		locale.SetLanguageCookie(w, resolver.Language())

		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
			Str("request_id", requestID).
			Str("language", string(resolver.Language())).
			Msg("switched language")

		if isHTMX(r) {
			w.Header().Set("HX-Refresh", "true")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, localPath(r.Form.Get("redirect")), http.StatusSeeOther)
	})

	router.Get("/ui/status", func(w http.ResponseWriter, r *http.Request) {
		resolver := h.localeFor(w, r)
		ctx, cancel := context.WithTimeout(r.Context(), statusCheckTimeout)
		defer cancel()
		data := statusTemplateData{
			Locale:      resolver,
			Connected:   true,
			Class:       "sd-status-pill sd-status-ok",
			Title:       "OK",
			VersionText: resolver.Tf("app.version", "version", version.Version),
		}
		if err := h.backend.CheckConnection(ctx); err != nil {
			data.Connected = false
			data.Class = "sd-status-pill sd-status-error"
			data.Title = resolver.T("errors.backend")
		}
		if !h.render(w, r, http.StatusOK, "status-indicator.html", data) {
			return
		}
		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Bool("backend_connected", data.Connected).
			Msg("rendered status indicator")
	})

	router.Get("/ui/docs/{service}", func(w http.ResponseWriter, r *http.Request) {
		service, ok := records.LookupService(chi.URLParam(r, "service"))
		if !ok {
			http.Error(w, "Documentation not found", http.StatusNotFound)
			return
		}
		page := h.newPage(w, r)
		content, err := h.renderDoc(service.ID, page.Language)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, fs.ErrNotExist) {
				status = http.StatusNotFound
			}
			logger.HTTPError(r.Method, r.URL.Path, status, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Str("service", service.ID).
				Msg("failed to render documentation")
			http.Error(w, http.StatusText(status), status)
			return
		}
		data := docsTemplateData{pageData: page, Service: service, Content: content}
		name := "docs.html"
		if isHTMX(r) {
			name = "docs-content"
		}
		h.render(w, r, http.StatusOK, name, data)
	})
}

// renderDoc converts docs/<service>.<lang>.md to HTML, falling back to English.
func (h *Handlers) renderDoc(serviceID string, lang locale.Language) (template.HTML, error) {
	if h.webFS == nil {
		return "", fs.ErrNotExist
	}
	source, err := fs.ReadFile(h.webFS, fmt.Sprintf("docs/%s.%s.md", serviceID, lang))
	if err != nil && lang != locale.DefaultLanguage {
		source, err = fs.ReadFile(h.webFS, fmt.Sprintf("docs/%s.%s.md", serviceID, locale.DefaultLanguage))
	}
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := goldmark.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}
