package handlers

import (
	"net/http"

	"secdash/config"
	"secdash/internal/locale"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/middleware"
)

// ConfigResponse holds the public configuration exposed to the frontend.
type ConfigResponse struct {
	Environment     string            `json:"environment"`
	DemoBackend     bool              `json:"demoBackend"`
	Languages       []locale.Language `json:"languages"`
	DefaultLanguage locale.Language   `json:"defaultLanguage"`
	MaxUploadSize   int64             `json:"maxUploadSize"`
	Services        []serviceConfig   `json:"services"`
}

type serviceConfig struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Platform   string   `json:"platform,omitempty"`
	Extensions []string `json:"extensions"`
}

// GetConfig returns the application configuration.
func GetConfig(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ConfigResponse{
			Environment:     string(cfg.Env),
			DemoBackend:     cfg.Backend.Demo(),
			Languages:       locale.Supported(),
			DefaultLanguage: locale.DefaultLanguage,
			MaxUploadSize:   records.MaxUploadSize,
			Services:        []serviceConfig{},
		}
		for _, service := range records.Services() {
			extensions := service.Extensions
			if extensions == nil {
				extensions = []string{}
			}
			resp.Services = append(resp.Services, serviceConfig{
				ID:         service.ID,
				Name:       service.Name,
				Platform:   service.Platform,
				Extensions: extensions,
			})
		}
		writeJSON(w, r, http.StatusOK, resp)
		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("config retrieved")
	}
}
