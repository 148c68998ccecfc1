package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"secdash/config"
	"secdash/internal/logger"
	"secdash/internal/validation"
	"secdash/middleware"
)

// InvalidSettingsError carries the per-field failures of a rejected save.
type InvalidSettingsError struct {
	Fields validation.Errors
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid settings: %d field(s)", len(e.Fields))
}

// SettingsStore keeps the admin settings in a JSON file. Saves go through a
// temp file and a rename so readers never see a partial file.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Load returns the saved settings, or the defaults when nothing was saved.
func (s *SettingsStore) Load() (config.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *SettingsStore) read() (config.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.DefaultSettings(), nil
		}
		return config.Settings{}, err
	}
	settings := config.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return config.Settings{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return settings, nil
}

// Update validates and saves next. An empty SMTP password keeps the stored
// one.
func (s *SettingsStore) Update(next config.Settings) (config.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next.Email.SMTPPassword == "" {
		current, err := s.read()
		if err != nil {
			return config.Settings{}, err
		}
		next.Email.SMTPPassword = current.Email.SMTPPassword
	}
	if fields := validation.ValidateSettings(next); !fields.OK() {
		return config.Settings{}, &InvalidSettingsError{Fields: fields}
	}
	if err := s.write(next); err != nil {
		return config.Settings{}, err
	}
	return next, nil
}

func (s *SettingsStore) write(settings config.Settings) error {
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "settings-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

type settingsResponse struct {
	Settings        config.Settings `json:"settings"`
	SMTPPasswordSet bool            `json:"smtpPasswordSet"`
}

func newSettingsResponse(settings config.Settings) settingsResponse {
	return settingsResponse{Settings: settings.Redacted(), SMTPPasswordSet: settings.HasSMTPPassword()}
}

type adminSettingsTemplateData struct {
	pageData
	Settings        config.Settings
	SMTPPasswordSet bool
	Fields          validation.Errors
}

func (h *Handlers) apiGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to load admin settings")
		return
	}
	writeJSON(w, r, http.StatusOK, newSettingsResponse(settings))
}

func (h *Handlers) apiPutSettings(w http.ResponseWriter, r *http.Request) {
	var next config.Settings
	if !decodeJSON(w, r, &next) {
		return
	}
	saved, err := h.settings.Update(next)
	if err != nil {
		var invalid *InvalidSettingsError
		if errors.As(err, &invalid) {
			h.writeFieldErrors(w, r, invalid.Fields)
			return
		}
		writeError(w, r, http.StatusInternalServerError, err, "failed to save admin settings")
		return
	}
	h.logSettingsSaved(r)
	writeJSON(w, r, http.StatusOK, newSettingsResponse(saved))
}

func (h *Handlers) adminSettings(w http.ResponseWriter, r *http.Request) {
	page := h.newPage(w, r)
	settings, err := h.settings.Load()
	if err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to load admin settings")
		page.Error = page.Locale.T("admin.settings.loadFailed")
		settings = config.DefaultSettings()
	}
	if r.URL.Query().Get("saved") == "1" {
		page.Flash = page.Locale.T("admin.settings.saved")
	}
	data := adminSettingsTemplateData{pageData: page, Settings: settings.Redacted(), SMTPPasswordSet: settings.HasSMTPPassword()}
	h.render(w, r, http.StatusOK, "admin-settings.html", data)
}

func (h *Handlers) adminSaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	next := settingsFromForm(r)
	page := h.newPage(w, r)
	if _, err := h.settings.Update(next); err != nil {
		data := adminSettingsTemplateData{pageData: page, Settings: next.Redacted()}
		status := http.StatusInternalServerError
		var invalid *InvalidSettingsError
		if errors.As(err, &invalid) {
			status = http.StatusUnprocessableEntity
			data.Fields = invalid.Fields
		} else {
			logger.HTTPError(r.Method, r.URL.Path, status, err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("failed to save admin settings")
			data.Error = page.Locale.T("admin.settings.failed")
		}
		if current, loadErr := h.settings.Load(); loadErr == nil {
			data.SMTPPasswordSet = current.HasSMTPPassword()
		}
		h.render(w, r, status, "admin-settings.html", data)
		return
	}
	h.logSettingsSaved(r)
	redirect(w, r, "/admin/settings?saved=1")
}

func (h *Handlers) logSettingsSaved(r *http.Request) {
	logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg("admin settings saved")
}

func settingsFromForm(r *http.Request) config.Settings {
	get := func(name string) string { return strings.TrimSpace(r.Form.Get(name)) }
	num := func(name string) int {
		n, err := strconv.Atoi(get(name))
		if err != nil {
			return 0
		}
		return n
	}
	on := func(name string) bool {
		switch get(name) {
		case "on", "true", "1":
			return true
		default:
			return false
		}
	}
	return config.Settings{
		Site: config.SiteSettings{
			Name:         get("site.name"),
			URL:          get("site.url"),
			AdminEmail:   get("site.adminEmail"),
			SupportEmail: get("site.supportEmail"),
		},
		Security: config.SecuritySettings{
			SessionTimeoutMinutes: num("security.sessionTimeoutMinutes"),
			MaxLoginAttempts:      num("security.maxLoginAttempts"),
			PasswordMinLength:     num("security.passwordMinLength"),
			RequireTwoFactor:      on("security.requireTwoFactor"),
		},
		Email: config.EmailSettings{
			SMTPHost:     get("email.smtpHost"),
			SMTPPort:     num("email.smtpPort"),
			SMTPUser:     get("email.smtpUser"),
			SMTPPassword: r.Form.Get("email.smtpPassword"),
			FromName:     get("email.fromName"),
		},
		API: config.APISettings{
			RateLimit:      num("api.rateLimit"),
			TimeoutSeconds: num("api.timeoutSeconds"),
			EnableLogging:  on("api.enableLogging"),
		},
		Notifications: config.NotificationSettings{
			Email:        on("notifications.email"),
			Slack:        on("notifications.slack"),
			SlackWebhook: get("notifications.slackWebhook"),
		},
	}
}
