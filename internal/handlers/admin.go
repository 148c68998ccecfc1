package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"secdash/internal/backend"
	"secdash/internal/browser"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/session"
	"secdash/internal/validation"
	"secdash/middleware"
)

type serviceUsage struct {
	Service records.Service
	Stats   records.Stats
	Failed  bool
}

type adminDashboardTemplateData struct {
	pageData
	Users  records.UserStats
	Totals records.Stats
	Usage  []serviceUsage
}

type adminUsersTemplateData struct {
	pageData
	Stats records.UserStats
	Users browser.Page[records.User]
	Roles []records.Role
}

type userFormTemplateData struct {
	pageData
	Form     userFormValues
	Fields   validation.Errors
	Creating bool
	Roles    []records.Role
}

type userFormValues struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	CompanyName  string
	AndroidTimes int
	IOSTimes     int
}

type adminRecordsTemplateData struct {
	pageData
	Service       records.Service
	Stats         records.Stats
	Statuses      []records.Status
	Scans         browser.Page[records.ScanRecord]
	Protections   browser.Page[records.ProtectionRecord]
	Compatibility browser.Page[records.CompatibilityRecord]
	Analyses      browser.Page[records.AnalysisRecord]
}

var formRoles = []records.Role{records.RoleUser, records.RoleAdmin}

// RegisterAdminRoutes mounts the admin dashboard, user management and the
// per-service record pages.
func (h *Handlers) RegisterAdminRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(session.RequireRole(records.RoleAdmin))

		r.Get("/admin/dashboard", h.adminDashboard)
		r.Get("/admin/users", h.adminUsers)
		r.Get("/admin/users/new", func(w http.ResponseWriter, r *http.Request) {
			data := userFormTemplateData{
				pageData: h.newPage(w, r),
				Form:     userFormValues{Role: string(records.RoleUser)},
				Creating: true,
				Roles:    formRoles,
			}
			h.render(w, r, http.StatusOK, "user-form.html", data)
		})
		r.Get("/admin/users/{id}", h.adminEditUser)
		r.Post("/admin/users", h.adminSaveUser)
		r.Post("/admin/users/{id}", h.adminSaveUser)
		r.Post("/admin/users/{id}/delete", h.adminDeleteUser)
		r.Get("/admin/analytics", h.adminAnalytics)
		if h.settings != nil {
			r.Get("/admin/settings", h.adminSettings)
			r.Post("/admin/settings", h.adminSaveSettings)
		}
		r.Get("/admin/{service}", h.adminRecords)
	})
}

func (h *Handlers) adminDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	page := h.newPage(w, r)
	data := adminDashboardTemplateData{pageData: page}

	users, err := h.backend.ListUsers(r.Context(), sess.Token, backend.UserFilter{})
	if err != nil {
		h.logBackendError(r, err, "failed to list users")
		data.Error = page.Locale.T(errorKey(err))
	}
	data.Users = records.SummarizeUsers(users)

	owners := make(map[string]struct{})
	for _, service := range records.UploadServices() {
		set, err := h.loadRecords(r, sess.Token, service)
		for _, id := range ownersOf(service.Kind, set) {
			owners[id] = struct{}{}
		}
		usage := serviceUsage{Service: service, Stats: summarizeSet(service.Kind, set)}
		if err != nil {
			usage.Failed = true
			if data.Error == "" {
				data.Error = page.Locale.T(errorKey(err))
			}
		}
		data.Totals.Total += usage.Stats.Total
		data.Totals.Processing += usage.Stats.Processing
		data.Totals.Completed += usage.Stats.Completed
		data.Totals.Failed += usage.Stats.Failed
		data.Usage = append(data.Usage, usage)
	}
	data.Totals.Users = len(owners)
	h.render(w, r, http.StatusOK, "admin-dashboard.html", data)
}

func (h *Handlers) adminUsers(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	page := h.newPage(w, r)
	users, err := h.backend.ListUsers(r.Context(), sess.Token, backend.UserFilter{})
	if err != nil {
		h.logBackendError(r, err, "failed to list users")
		page.Error = page.Locale.T(errorKey(err))
		users = []records.User{}
	}
	data := adminUsersTemplateData{
		pageData: page,
		Stats:    records.SummarizeUsers(users),
		Users:    records.UserPipeline.Browse(users, browser.ParseQuery(r.URL.Query())),
		Roles:    formRoles,
	}
	name := "admin-users.html"
	if isHTMX(r) {
		name = "users-table"
	}
	h.render(w, r, http.StatusOK, name, data)
}

func (h *Handlers) adminEditUser(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	user, err := h.backend.GetUser(r.Context(), sess.Token, id)
	if err != nil {
		status := statusFromError(err)
		h.logBackendError(r, err, "failed to load user")
		http.Error(w, http.StatusText(status), status)
		return
	}
	data := userFormTemplateData{
		pageData: h.newPage(w, r),
		Form: userFormValues{
			ID:           user.ID,
			Email:        user.Email,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			Role:         string(user.Role),
			CompanyName:  user.CompanyName,
			AndroidTimes: user.AndroidTimes,
			IOSTimes:     user.IOSTimes,
		},
		Roles: formRoles,
	}
	h.render(w, r, http.StatusOK, "user-form.html", data)
}

func (h *Handlers) adminSaveUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	creating := id == ""
	form := validation.UserForm{
		Email:     strings.TrimSpace(r.Form.Get("email")),
		Password:  r.Form.Get("password"),
		FirstName: strings.TrimSpace(r.Form.Get("firstName")),
		LastName:  strings.TrimSpace(r.Form.Get("lastName")),
		Role:      r.Form.Get("role"),
	}
	values := userFormValues{
		ID:           id,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Role:         form.Role,
		CompanyName:  strings.TrimSpace(r.Form.Get("companyName")),
		AndroidTimes: formInt(r.Form.Get("androidTimes")),
		IOSTimes:     formInt(r.Form.Get("iosTimes")),
	}
	data := userFormTemplateData{pageData: h.newPage(w, r), Form: values, Creating: creating, Roles: formRoles}

	if fields := validation.ValidateUserForm(form, creating); !fields.OK() {
		data.Fields = fields
		h.render(w, r, http.StatusUnprocessableEntity, "user-form.html", data)
		return
	}
	role, _ := records.ParseRole(form.Role)
	input := backend.UserInput{
		Email:        form.Email,
		Password:     form.Password,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Role:         role,
		CompanyName:  values.CompanyName,
		AndroidTimes: values.AndroidTimes,
		IOSTimes:     values.IOSTimes,
	}
	var (
		saved records.User
		err   error
	)
	if creating {
		saved, err = h.backend.CreateUser(r.Context(), sess.Token, input)
	} else {
		saved, err = h.backend.UpdateUser(r.Context(), sess.Token, id, input)
	}
	if err != nil {
		status := statusFromError(err)
		h.logBackendError(r, err, "failed to save user")
		data.Error = data.Locale.T("admin.users.failed")
		h.render(w, r, status, "user-form.html", data)
		return
	}
	if saved.ID == sess.User.ID {
		if err := h.sessions.UpdateUser(r.Context(), sess.ClientID, saved); err != nil {
			logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("failed to refresh session profile")
		}
	}
	logger.HTTPEvent(r.Method, r.URL.Path, http.StatusSeeOther, 0).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("user_id", saved.ID).
		Bool("created", creating).
		Msg("saved user")
	redirect(w, r, "/admin/users")
}

func (h *Handlers) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == sess.User.ID {
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		return
	}
	if err := h.backend.DeleteUser(r.Context(), sess.Token, id); err != nil {
		status := statusFromError(err)
		h.logBackendError(r, err, "failed to delete user")
		http.Error(w, http.StatusText(status), status)
		return
	}
	logger.HTTPEvent(r.Method, r.URL.Path, http.StatusSeeOther, 0).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("user_id", id).
		Msg("deleted user")
	redirect(w, r, "/admin/users")
}

func (h *Handlers) adminRecords(w http.ResponseWriter, r *http.Request) {
	service, ok := records.LookupService(chi.URLParam(r, "service"))
	if !ok || !service.AcceptsUploads() {
		http.NotFound(w, r)
		return
	}
	sess := session.FromContext(r.Context())
	page := h.newPage(w, r)
	set, err := h.loadRecords(r, sess.Token, service)
	if err != nil {
		page.Error = page.Locale.T("errors.loadFailed")
	}

	query := browser.ParseQuery(r.URL.Query())
	data := adminRecordsTemplateData{
		pageData: page,
		Service:  service,
		Stats:    summarizeSet(service.Kind, set),
		Statuses: records.ProcessingStatuses,
	}
	switch service.Kind {
	case records.KindScan:
		data.Scans = records.ScanPipeline.Browse(set.Scans, query)
	case records.KindProtection:
		data.Protections = records.ProtectionPipeline.Browse(set.Protections, query)
	case records.KindCompatibility:
		data.Statuses = records.CompatibilityStatuses
		data.Compatibility = records.CompatibilityPipeline.Browse(set.Compatibility, query)
	case records.KindAnalysis:
		data.Analyses = records.AnalysisPipeline.Browse(set.Analyses, query)
	}
	name := "admin-records.html"
	if isHTMX(r) {
		name = "records-table"
	}
	h.render(w, r, http.StatusOK, name, data)
}

// loadRecords fetches a service's records. On failure it returns the last
// set loaded for the service, or an empty set, together with the error.
func (h *Handlers) loadRecords(r *http.Request, token string, service records.Service) (backend.RecordSet, error) {
	set, err := h.backend.ListRecords(r.Context(), token, service.ID)
	if err != nil {
		h.logBackendError(r, err, "failed to load records")
		last, ok := h.lastKnown.Get(service.ID)
		if !ok {
			last = backend.RecordSet{Service: service.ID}
		}
		return last, err
	}
	h.lastKnown.Set(service.ID, set)
	if h.observer != nil {
		h.observer.ObserveRecords(service.ID, summarizeSet(service.Kind, set))
	}
	h.syncUploads(r, service, set)
	return set, nil
}

// syncUploads copies finished backend statuses into the upload history so
// users see their files complete. Failures only cost freshness.
func (h *Handlers) syncUploads(r *http.Request, service records.Service, set backend.RecordSet) {
	if h.uploads == nil || !service.AcceptsUploads() {
		return
	}
	changed, err := h.uploads.SyncStatuses(r.Context(), set.FinishedStatuses())
	if err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("service", service.ID).
			Msg("failed to sync upload statuses")
		return
	}
	if changed > 0 {
		logger.Get().Info().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("service", service.ID).
			Int("changed", changed).
			Msg("upload statuses synced")
	}
}

func (h *Handlers) logBackendError(r *http.Request, err error, msg string) {
	logger.HTTPError(r.Method, r.URL.Path, statusFromError(err), err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg(msg)
}

func summarizeSet(kind records.Kind, set backend.RecordSet) records.Stats {
	switch kind {
	case records.KindScan:
		return records.SummarizeScans(set.Scans)
	case records.KindProtection:
		return records.SummarizeProtections(set.Protections)
	case records.KindCompatibility:
		return records.SummarizeCompatibility(set.Compatibility)
	case records.KindAnalysis:
		return records.SummarizeAnalyses(set.Analyses)
	default:
		return records.Stats{}
	}
}

// ownersOf lists the user IDs behind the records summarized for kind.
func ownersOf(kind records.Kind, set backend.RecordSet) []string {
	var ids []string
	switch kind {
	case records.KindScan:
		for _, r := range set.Scans {
			ids = append(ids, r.UserID)
		}
	case records.KindProtection:
		for _, r := range set.Protections {
			ids = append(ids, r.UserID)
		}
	case records.KindCompatibility:
		for _, r := range set.Compatibility {
			ids = append(ids, r.UserID)
		}
	case records.KindAnalysis:
		for _, r := range set.Analyses {
			ids = append(ids, r.UserID)
		}
	}
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func formInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
