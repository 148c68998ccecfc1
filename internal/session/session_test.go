package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "secdash/internal/errors"
	"secdash/internal/records"
	"secdash/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "clients.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, time.Hour, false)
}

var demoUser = records.User{ID: "2", Email: "user@ics.com", FirstName: "John", LastName: "Doe", Role: records.RoleUser}
var demoAdmin = records.User{ID: "1", Email: "admin@ics.com", FirstName: "Admin", LastName: "ICS", Role: records.RoleAdmin}

func TestClientID_IssuesAndReusesCookie(t *testing.T) {
	m := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	id := m.ClientID(rec, req)
	require.NotEmpty(t, id)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ClientCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	assert.Equal(t, id, m.ClientID(rec2, again))
	assert.Empty(t, rec2.Result().Cookies())
}

func TestClientID_ReplacesMalformedCookie(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "../../etc"})
	rec := httptest.NewRecorder()
	id := m.ClientID(rec, req)
	assert.NotEqual(t, "../../etc", id)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestLoginLoadLogout(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Store().Set(ctx, "c1", storage.KeyLanguage, "vi"))
	require.NoError(t, m.Login(ctx, "c1", "token-1", demoUser))

	sess, err := m.Load(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "token-1", sess.Token)
	assert.Equal(t, "John Doe", sess.User.FullName())

	require.NoError(t, m.Logout(ctx, "c1"))
	sess, err = m.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())

	lang, ok, err := m.Store().Get(ctx, "c1", storage.KeyLanguage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "vi", lang)
}

func TestLogin_RejectsEmptyToken(t *testing.T) {
	m := newTestManager(t)
	err := m.Login(context.Background(), "c1", " ", demoUser)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoad_ExpiredSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, "c1", "token-1", demoUser))

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	sess, err := m.Load(ctx, "c1")
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.False(t, sess.Authenticated())

	_, ok, err := m.Store().Get(ctx, "c1", storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func protectedRouter(m *Manager, mw func(http.Handler) http.Handler) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return m.Middleware(mw(ok))
}

func signedInRequest(t *testing.T, m *Manager, method, path string, user records.User) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	id := m.ClientID(rec, req)
	require.NoError(t, m.Login(context.Background(), id, "token", user))
	signed := httptest.NewRequest(method, path, nil)
	signed.AddCookie(&http.Cookie{Name: ClientCookieName, Value: id})
	return signed
}

func TestRequireUser(t *testing.T) {
	m := newTestManager(t)
	handler := protectedRouter(m, RequireUser)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/profile/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	hx := httptest.NewRequest(http.MethodGet, "/user/dashboard", nil)
	hx.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, hx)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("HX-Redirect"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInRequest(t, m, http.MethodGet, "/user/dashboard", demoUser))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	m := newTestManager(t)
	handler := protectedRouter(m, RequireRole(records.RoleAdmin))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInRequest(t, m, http.MethodGet, "/admin/users", demoUser))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/user/dashboard", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInRequest(t, m, http.MethodGet, "/api/users", demoUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, signedInRequest(t, m, http.MethodGet, "/admin/users", demoAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", DashboardPath(demoAdmin))
	assert.Equal(t, "/user/dashboard", DashboardPath(demoUser))
}
