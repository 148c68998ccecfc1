package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"secdash/internal/backend"
	apperrors "secdash/internal/errors"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/validation"
	"secdash/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        records.User `json:"user"`
	RedirectURL string       `json:"redirectUrl"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type usersResponse struct {
	Users []records.User    `json:"users"`
	Stats records.UserStats `json:"stats"`
}

// RegisterAPIRoutes mounts the JSON API used by scripts and HTMX forms.
func (h *Handlers) RegisterAPIRoutes(router chi.Router) {
	router.Post("/api/auth/login", h.apiLogin)
	router.Post("/api/auth/logout", h.apiLogout)
	router.Post("/api/auth/forgot-password", h.apiForgotPassword)
	router.Post("/api/auth/reset-password", h.apiResetPassword)

	router.Group(func(r chi.Router) {
		r.Use(session.RequireUser)
		r.Post("/api/auth/change-password", h.apiChangePassword)
		r.Get("/api/users/profile/me", h.apiProfile)
		r.Post("/api/user/avatar", h.apiUploadAvatar)
		r.Post("/api/{service}/upload", h.apiUpload)
	})

	router.Group(func(r chi.Router) {
		r.Use(session.RequireRole(records.RoleAdmin))
		r.Get("/api/users", h.apiListUsers)
		r.Post("/api/users", h.apiCreateUser)
		r.Get("/api/users/{id}", h.apiGetUser)
		r.Put("/api/users/{id}", h.apiUpdateUser)
		r.Delete("/api/users/{id}", h.apiDeleteUser)
		r.Get("/api/admin/analytics", h.apiAnalytics)
		if h.settings != nil {
			r.Get("/api/admin/settings", h.apiGetSettings)
			r.Put("/api/admin/settings", h.apiPutSettings)
		}
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, r, status, err, "invalid request body")
		return false
	}
	return true
}

// writeFieldErrors answers 422 with each field's message in the client's language.
func (h *Handlers) writeFieldErrors(w http.ResponseWriter, r *http.Request, fields validation.Errors) {
	resolver := h.localeFor(w, r)
	translated := make(map[string]string, len(fields))
	for field, key := range fields {
		translated[field] = resolver.T(key)
	}
	writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: translated})
}

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if fields := validation.ValidateLogin(req.Email, req.Password); !fields.OK() {
		h.writeFieldErrors(w, r, fields)
		return
	}
	result, err := h.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, statusFromError(err), err, "login failed")
		return
	}
	sess := session.FromContext(r.Context())
	if err := h.sessions.Login(r.Context(), sess.ClientID, result.Token, result.User); err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to store session")
		return
	}
	logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("user_id", result.User.ID).
		Msg("user signed in")
	writeJSON(w, r, http.StatusOK, loginResponse{User: result.User, RedirectURL: session.DashboardPath(result.User)})
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		if err := h.sessions.Logout(r.Context(), sess.ClientID); err != nil {
			writeError(w, r, http.StatusInternalServerError, err, "failed to clear session")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) apiForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if fields := validation.ValidateForgotPassword(req.Email); !fields.OK() {
		h.writeFieldErrors(w, r, fields)
		return
	}
	if err := h.backend.ForgotPassword(r.Context(), req.Email); err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		writeError(w, r, statusFromError(err), err, "forgot password request failed")
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: h.localeFor(w, r).T("auth.forgot.sent")})
}

func (h *Handlers) apiResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if fields := validation.ValidateResetPassword(req.Token, req.Password, req.ConfirmPassword); !fields.OK() {
		h.writeFieldErrors(w, r, fields)
		return
	}
	if err := h.backend.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, statusFromError(err), err, "password reset failed")
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: h.localeFor(w, r).T("auth.reset.success")})
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validation.ValidateChangePassword(req.CurrentPassword, req.NewPassword, req.ConfirmPassword); !fields.OK() {
		h.writeFieldErrors(w, r, fields)
		return
	}
	sess := session.FromContext(r.Context())
	if err := h.backend.ChangePassword(r.Context(), sess.Token, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, statusFromError(err), err, "password change failed")
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: h.localeFor(w, r).T("user.changePassword.successMessage")})
}

func (h *Handlers) apiProfile(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	profile, err := h.backend.Profile(r.Context(), sess.Token)
	if err != nil {
		writeError(w, r, statusFromError(err), err, "failed to load profile")
		return
	}
	if err := h.sessions.UpdateUser(r.Context(), sess.ClientID, profile); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to refresh session profile")
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (h *Handlers) apiUploadAvatar(w http.ResponseWriter, r *http.Request) {
	var input backend.AvatarInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Avatar = strings.TrimSpace(input.Avatar)
	if fields := validation.ValidateAvatar(input.Avatar); !fields.OK() {
		h.writeFieldErrors(w, r, fields)
		return
	}
	sess := session.FromContext(r.Context())
	user, err := h.backend.UploadAvatar(r.Context(), sess.Token, input)
	if err != nil {
		writeError(w, r, statusFromError(err), err, "failed to upload avatar")
		return
	}
	if err := h.sessions.UpdateUser(r.Context(), sess.ClientID, user); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to refresh session profile")
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handlers) apiUpload(w http.ResponseWriter, r *http.Request) {
	service, ok := records.LookupService(chi.URLParam(r, "service"))
	if !ok || !service.AcceptsUploads() {
		writeError(w, r, http.StatusNotFound, apperrors.ErrUnknownService, "unknown upload service")
		return
	}
	sess := session.FromContext(r.Context())
	if !records.HasPermission(*sess.User, service.Permission) {
		writeError(w, r, http.StatusForbidden, apperrors.ErrForbidden, "service access denied")
		return
	}
	upload, err := h.processUpload(r, service)
	if err != nil {
		status := statusFromError(err)
		if status == http.StatusUnprocessableEntity || status == http.StatusRequestEntityTooLarge {
			msg := h.localeFor(w, r).T(uploadErrorKey(err))
			writeJSON(w, r, status, errorResponse{Error: msg, Fields: map[string]string{"file": msg}})
			return
		}
		writeError(w, r, status, err, "upload failed")
		return
	}
	writeJSON(w, r, http.StatusCreated, upload)
}

func (h *Handlers) apiListUsers(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	filter := backend.UserFilter{
		Role:   strings.TrimSpace(r.URL.Query().Get("role")),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	users, err := h.backend.ListUsers(r.Context(), sess.Token, filter)
	if err != nil {
		writeError(w, r, statusFromError(err), err, "failed to list users")
		return
	}
	writeJSON(w, r, http.StatusOK, usersResponse{Users: users, Stats: records.SummarizeUsers(users)})
}

func (h *Handlers) apiGetUser(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	user, err := h.backend.GetUser(r.Context(), sess.Token, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, statusFromError(err), err, "failed to load user")
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handlers) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	h.apiSaveUser(w, r, "")
}

func (h *Handlers) apiUpdateUser(w http.ResponseWriter, r *http.Request) {
	h.apiSaveUser(w, r, chi.URLParam(r, "id"))
}

func (h *Handlers) apiSaveUser(w http.ResponseWriter, r *http.Request, id string) {
	var input backend.UserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	creating := id == ""
	form := validation.UserForm{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      string(input.Role),
	}
	if fields := validation.ValidateUserForm(form, creating); !fields.OK() {
		h.writeFieldErrors(w, r, fields)
		return
	}
	if role, ok := records.ParseRole(form.Role); ok {
		input.Role = role
	}
	sess := session.FromContext(r.Context())
	var (
		user records.User
		err  error
	)
	status := http.StatusOK
	if creating {
		user, err = h.backend.CreateUser(r.Context(), sess.Token, input)
		status = http.StatusCreated
	} else {
		user, err = h.backend.UpdateUser(r.Context(), sess.Token, id, input)
	}
	if err != nil {
		writeError(w, r, statusFromError(err), err, "failed to save user")
		return
	}
	if user.ID == sess.User.ID {
		if err := h.sessions.UpdateUser(r.Context(), sess.ClientID, user); err != nil {
			logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("failed to refresh session profile")
		}
	}
	writeJSON(w, r, status, user)
}

func (h *Handlers) apiDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == sess.User.ID {
		writeJSON(w, r, http.StatusConflict, errorResponse{Error: "cannot delete the signed-in account"})
		return
	}
	if err := h.backend.DeleteUser(r.Context(), sess.Token, id); err != nil {
		writeError(w, r, statusFromError(err), err, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
