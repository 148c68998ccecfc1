package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"secdash/internal/backend"
	apperrors "secdash/internal/errors"
	"secdash/internal/locale"
	"secdash/internal/storage"
)

func TestLanding_RedirectsByRole(t *testing.T) {
	env := newDemoEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	cookie, _ := env.signInDemo("user@ics.com", "user123")
	rec = env.do(httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))
}

func TestLanguageSwitch_RejectsUnsupportedWithoutWriting(t *testing.T) {
	env := newDemoEnv(t)
	cookie, _ := env.signInDemo("user@ics.com", "user123")

	rec := env.do(formRequest(http.MethodPost, "/ui/language", url.Values{locale.LangParam: {"fr"}}), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This language is not supported")

	_, found, err := env.store.Get(context.Background(), cookie.Value, storage.KeyLanguage)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLanguageSwitch_PersistsAndRefreshes(t *testing.T) {
	env := newDemoEnv(t)
	cookie, _ := env.signInDemo("user@ics.com", "user123")

	rec := env.do(htmx(formRequest(http.MethodPost, "/ui/language", url.Values{locale.LangParam: {"vi"}})), cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))

	value, found, err := env.store.Get(context.Background(), cookie.Value, storage.KeyLanguage)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "vi", value)

	var langCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == locale.LangCookieName {
			langCookie = c
		}
	}
	require.NotNil(t, langCookie)
	assert.Equal(t, "vi", langCookie.Value)

	rec = env.do(formRequest(http.MethodPost, "/ui/language", url.Values{locale.LangParam: {"zh"}, "redirect": {"https://evil.example"}}), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLanguage_SurvivesLogout(t *testing.T) {
	env := newDemoEnv(t)
	cookie, _ := env.signInDemo("user@ics.com", "user123")

	rec := env.do(formRequest(http.MethodPost, "/ui/language", url.Values{locale.LangParam: {"vi"}}), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	env.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), cookie)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil), cookie)
	assert.Contains(t, rec.Body.String(), "Chào mừng trở lại")
}

func TestStatusIndicator(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		class   string
		message string
	}{
		{"connected", nil, "sd-status-ok", "OK"},
		{"disconnected", apperrors.ErrBackendUnavailable, "sd-status-error", "The service is temporarily unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &backend.MockClient{}
			client.On("CheckConnection", mock.Anything).Return(tt.err)
			env := newTestEnv(t, client)

			rec := env.do(httptest.NewRequest(http.MethodGet, "/ui/status", nil), nil)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, tt.class)
			assert.Contains(t, body, "|"+tt.message+"|")
			assert.Contains(t, body, "Version dev")
			client.AssertExpectations(t)
		})
	}
}

func TestDocs(t *testing.T) {
	env := newDemoEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/ui/docs/app-total-go", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "docs|app-total-go|"))
	assert.Contains(t, rec.Body.String(), "<h1>AppTotalGo</h1>")
	assert.Contains(t, rec.Body.String(), "<p>Scan apps.</p>")

	rec = env.do(htmx(httptest.NewRequest(http.MethodGet, "/ui/docs/app-total-go?lang=vi", nil)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<h1>AppTotalGo</h1>"))
	assert.Contains(t, rec.Body.String(), "Quét ứng dụng.")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/ui/docs/apk-protect", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/ui/docs/unknown", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderDoc_FallsBackToEnglish(t *testing.T) {
	h := &Handlers{webFS: testWebFS}
	html, err := h.renderDoc("app-total-go", locale.LanguageChinese)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Scan apps.")
}

func TestTemplateFuncs(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 GB", formatBytes(2<<30))
	assert.Equal(t, "sd-badge sd-badge-ok", statusClass("completed"))
	assert.Equal(t, "sd-badge sd-badge-progress", statusClass("testing"))
	assert.Equal(t, "—", formatTimePtr(nil))
	assert.Equal(t, "94.5%", formatPercent(94.5))
	assert.Equal(t, "+12.5%", formatChange(12.5))
	assert.Equal(t, "-15.0%", formatChange(-15))
	assert.Equal(t, "0.0%", formatChange(0))
	assert.Equal(t, "20m0s", formatElapsed(20*time.Minute))
	assert.Equal(t, "—", formatElapsed(0))

	m, err := dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
	_, err = dict("a")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)
}
