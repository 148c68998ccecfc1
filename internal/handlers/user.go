package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"secdash/internal/browser"
	apperrors "secdash/internal/errors"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/validation"
	"secdash/middleware"
)

const multipartMemory = 32 << 20

type serviceCard struct {
	Service records.Service
	Href    string
}

type userDashboardTemplateData struct {
	pageData
	Services []serviceCard
}

type changePasswordTemplateData struct {
	pageData
	Fields       validation.Errors
	Requirements []validation.Requirement
}

type userServiceTemplateData struct {
	pageData
	Service  records.Service
	Uploads  browser.Page[records.UploadedFile]
	Statuses []records.Status
}

// RegisterUserRoutes mounts the signed-in user's pages.
func (h *Handlers) RegisterUserRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(session.RequireUser)

		r.Get("/user/dashboard", func(w http.ResponseWriter, r *http.Request) {
			page := h.newPage(w, r)
			cards := []serviceCard{}
			for _, service := range records.Services() {
				if !records.HasPermission(*page.User, service.Permission) {
					continue
				}
				href := "/ui/docs/" + service.ID
				if service.AcceptsUploads() {
					href = "/user/" + service.ID
				}
				cards = append(cards, serviceCard{Service: service, Href: href})
			}
			h.render(w, r, http.StatusOK, "user-dashboard.html", userDashboardTemplateData{pageData: page, Services: cards})
		})

		r.Get("/user/change-password", func(w http.ResponseWriter, r *http.Request) {
			data := changePasswordTemplateData{pageData: h.newPage(w, r), Requirements: validation.PasswordRequirements("")}
			h.render(w, r, http.StatusOK, "change-password.html", data)
		})

		r.Post("/user/change-password", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			sess := session.FromContext(r.Context())
			current := r.Form.Get("currentPassword")
			next := r.Form.Get("newPassword")
			data := changePasswordTemplateData{pageData: h.newPage(w, r), Requirements: validation.PasswordRequirements(next)}
			if fields := validation.ValidateChangePassword(current, next, r.Form.Get("confirmPassword")); !fields.OK() {
				data.Fields = fields
				h.render(w, r, http.StatusUnprocessableEntity, "change-password.html", data)
				return
			}
			if err := h.backend.ChangePassword(r.Context(), sess.Token, current, next); err != nil {
				status := statusFromError(err)
				logger.HTTPError(r.Method, r.URL.Path, status, err).
					Str("request_id", middleware.GetRequestID(r.Context())).
					Str("user_id", sess.User.ID).
					Msg("password change failed")
				data.Error = data.Locale.T("user.changePassword.failed")
				h.render(w, r, status, "change-password.html", data)
				return
			}
			data.Flash = data.Locale.T("user.changePassword.successMessage")
			data.Requirements = validation.PasswordRequirements("")
			h.render(w, r, http.StatusOK, "change-password.html", data)
		})

		r.Get("/user/{service}", func(w http.ResponseWriter, r *http.Request) {
			service, ok := h.userService(w, r)
			if !ok {
				return
			}
			h.renderUserService(w, r, http.StatusOK, service, h.newPage(w, r))
		})

		r.Post("/user/{service}/upload", func(w http.ResponseWriter, r *http.Request) {
			service, ok := h.userService(w, r)
			if !ok {
				return
			}
			page := h.newPage(w, r)
			upload, err := h.processUpload(r, service)
			status := http.StatusOK
			if err != nil {
				status = statusFromError(err)
				page.Error = page.Locale.T(uploadErrorKey(err))
			} else {
				page.Flash = page.Locale.T("user.uploads.success")
				logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
					Str("request_id", middleware.GetRequestID(r.Context())).
					Str("service", service.ID).
					Str("upload_id", upload.ID).
					Int64("size", upload.FileSize).
					Msg("file uploaded")
			}
			h.renderUserService(w, r, status, service, page)
		})
	})
}

// userService resolves the {service} parameter for the signed-in user,
// answering 404 or 403 itself.
func (h *Handlers) userService(w http.ResponseWriter, r *http.Request) (records.Service, bool) {
	service, ok := records.LookupService(chi.URLParam(r, "service"))
	if !ok || !service.AcceptsUploads() {
		http.NotFound(w, r)
		return records.Service{}, false
	}
	sess := session.FromContext(r.Context())
	if !records.HasPermission(*sess.User, service.Permission) {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusForbidden, apperrors.ErrForbidden).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("user_id", sess.User.ID).
			Msg("service access denied")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return records.Service{}, false
	}
	return service, true
}

func (h *Handlers) renderUserService(w http.ResponseWriter, r *http.Request, status int, service records.Service, page pageData) {
	sess := session.FromContext(r.Context())
	history, err := h.uploads.ListByUser(r.Context(), sess.User.ID, service.ID)
	if err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("service", service.ID).
			Msg("failed to list uploads")
		history = []records.UploadedFile{}
		if page.Error == "" {
			page.Error = page.Locale.T("errors.loadFailed")
		}
	}
	query := browser.ParseQuery(r.URL.Query())
	data := userServiceTemplateData{
		pageData: page,
		Service:  service,
		Uploads:  records.UploadPipeline.Browse(history, query),
		Statuses: records.ProcessingStatuses,
	}
	name := "user-service.html"
	if isHTMX(r) && r.Method == http.MethodGet {
		name = "uploads-table"
	}
	h.render(w, r, status, name, data)
}

// processUpload validates the multipart "file" field, forwards it to the
// backend and records it in the upload history.
func (h *Handlers) processUpload(r *http.Request, service records.Service) (records.UploadedFile, error) {
	sess := session.FromContext(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return records.UploadedFile{}, apperrors.ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return records.UploadedFile{}, apperrors.ErrEmptyFile
		}
		return records.UploadedFile{}, err
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return records.UploadedFile{}, apperrors.ErrEmptyFile
		}
		return records.UploadedFile{}, err
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if err := validation.ValidateUpload(service, filename, header.Size); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, statusFromError(err), err).
			Str("request_id", requestID).
			Str("service", service.ID).
			Str("filename", filename).
			Msg("upload rejected")
		return records.UploadedFile{}, err
	}
	result, err := h.backend.Upload(r.Context(), sess.Token, service.ID, filename, file)
	if err != nil {
		logger.HTTPError(r.Method, r.URL.Path, statusFromError(err), err).
			Str("request_id", requestID).
			Str("service", service.ID).
			Msg("backend upload failed")
		return records.UploadedFile{}, err
	}
	upload := records.UploadedFile{
		ID:       result.ID,
		UserID:   sess.User.ID,
		Service:  service.ID,
		Filename: filename,
		FileSize: header.Size,
		Version:  strings.TrimSpace(r.FormValue("version")),
		Status:   result.Status,
	}
	if result.Version != "" {
		upload.Version = result.Version
	}
	if err := h.uploads.Create(r.Context(), &upload); err != nil {
		// The backend already accepted the file; only the local history is missing.
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", requestID).
			Str("upload_id", upload.ID).
			Msg("failed to record upload")
	}
	return upload, nil
}

func uploadErrorKey(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidFileType), errors.Is(err, apperrors.ErrFileTooLarge), errors.Is(err, apperrors.ErrEmptyFile):
		return validation.UploadErrorKey(err)
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		return "errors.backend"
	default:
		return "user.uploads.failed"
	}
}
