package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"secdash/internal/locale"
	"secdash/internal/logger"
	"secdash/middleware"
)

// I18nResponse is the payload of GET /api/i18n.
type I18nResponse struct {
	Language  locale.Language   `json:"language"`
	Supported []locale.Language `json:"supported"`
	Messages  locale.Dictionary `json:"messages"`
}

// RegisterI18nRoutes exposes the dictionaries to API clients. The language is
// negotiated from the lang query parameter, the lang cookie and
// Accept-Language.
func RegisterI18nRoutes(router chi.Router, loader locale.Loader) {
	router.Get("/api/i18n", func(w http.ResponseWriter, r *http.Request) {
		language := locale.ResolveLanguage(r)
		dictionary, err := loader.Load(r.Context(), language)
		if err != nil {
			logger.LocaleEvent(string(language), err).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("failed to load dictionary for api")
			writeError(w, r, http.StatusInternalServerError, err, "failed to load i18n messages")
			return
		}
		writeJSON(w, r, http.StatusOK, I18nResponse{
			Language:  language,
			Supported: locale.Supported(),
			Messages:  dictionary,
		})
	})
}
