package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "secdash/internal/errors"
	"secdash/internal/logger"
	"secdash/internal/session"
	"secdash/internal/validation"
	"secdash/middleware"
)

type authTemplateData struct {
	pageData
	Email  string
	Token  string
	Fields validation.Errors
	Done   bool
}

// RegisterAuthRoutes mounts sign-in, sign-out and the password reset flow.
func (h *Handlers) RegisterAuthRoutes(router chi.Router) {
	router.Get("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if sess := session.FromContext(r.Context()); sess.Authenticated() {
			http.Redirect(w, r, session.DashboardPath(*sess.User), http.StatusSeeOther)
			return
		}
		h.render(w, r, http.StatusOK, "login.html", authTemplateData{pageData: h.newPage(w, r)})
	})

	router.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.Form.Get("email"))
		password := r.Form.Get("password")
		data := authTemplateData{pageData: h.newPage(w, r), Email: email}

		if fields := validation.ValidateLogin(email, password); !fields.OK() {
			data.Fields = fields
			h.render(w, r, http.StatusUnprocessableEntity, "login.html", data)
			return
		}
		result, err := h.backend.Login(r.Context(), email, password)
		if err != nil {
			status := http.StatusUnauthorized
			data.Error = data.Locale.T("auth.login.invalidCredentials")
			if !errors.Is(err, apperrors.ErrInvalidCredentials) {
				status = statusFromError(err)
				data.Error = data.Locale.T("auth.login.failed")
			}
			logger.HTTPError(r.Method, r.URL.Path, status, err).
				Str("request_id", requestID).
				Msg("login failed")
			h.render(w, r, status, "login.html", data)
			return
		}
		sess := session.FromContext(r.Context())
		if err := h.sessions.Login(r.Context(), sess.ClientID, result.Token, result.User); err != nil {
			logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
				Str("request_id", requestID).
				Msg("failed to store session")
			data.Error = data.Locale.T("auth.login.failed")
			h.render(w, r, http.StatusInternalServerError, "login.html", data)
			return
		}
		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusSeeOther, 0).
			Str("request_id", requestID).
			Str("user_id", result.User.ID).
			Str("role", string(result.User.Role)).
			Msg("user signed in")
		redirect(w, r, session.DashboardPath(result.User))
	})

	router.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess != nil {
			if err := h.sessions.Logout(r.Context(), sess.ClientID); err != nil {
				logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
					Str("request_id", middleware.GetRequestID(r.Context())).
					Msg("failed to clear session")
			}
		}
		redirect(w, r, session.LoginPath)
	})

	router.Get("/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, "forgot-password.html", authTemplateData{pageData: h.newPage(w, r)})
	})

	router.Post("/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.Form.Get("email"))
		data := authTemplateData{pageData: h.newPage(w, r), Email: email}
		if fields := validation.ValidateForgotPassword(email); !fields.OK() {
			data.Fields = fields
			h.render(w, r, http.StatusUnprocessableEntity, "forgot-password.html", data)
			return
		}
		// The answer does not reveal whether the account exists.
		if err := h.backend.ForgotPassword(r.Context(), email); err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			status := statusFromError(err)
			logger.HTTPError(r.Method, r.URL.Path, status, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("forgot password request failed")
			data.Error = data.Locale.T(errorKey(err))
			h.render(w, r, status, "forgot-password.html", data)
			return
		}
		data.Done = true
		data.Flash = data.Locale.T("auth.forgot.sent")
		h.render(w, r, http.StatusOK, "forgot-password.html", data)
	})

	router.Get("/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		data := authTemplateData{pageData: h.newPage(w, r), Token: strings.TrimSpace(r.URL.Query().Get("token"))}
		if data.Token == "" {
			data.Error = data.Locale.T("auth.reset.tokenMissing")
		}
		h.render(w, r, http.StatusOK, "reset-password.html", data)
	})

	router.Post("/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		token := strings.TrimSpace(r.Form.Get("token"))
		password := r.Form.Get("password")
		data := authTemplateData{pageData: h.newPage(w, r), Token: token}
		if fields := validation.ValidateResetPassword(token, password, r.Form.Get("confirmPassword")); !fields.OK() {
			data.Fields = fields
			h.render(w, r, http.StatusUnprocessableEntity, "reset-password.html", data)
			return
		}
		if err := h.backend.ResetPassword(r.Context(), token, password); err != nil {
			status := statusFromError(err)
			logger.HTTPError(r.Method, r.URL.Path, status, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("password reset failed")
			data.Error = data.Locale.T("auth.reset.failed")
			h.render(w, r, status, "reset-password.html", data)
			return
		}
		data.Done = true
		data.Flash = data.Locale.T("auth.reset.success")
		h.render(w, r, http.StatusOK, "reset-password.html", data)
	})
}
