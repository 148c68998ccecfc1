// Package session binds browser clients to their stored state: a client
// cookie identifies the bucket, the bucket holds the backend token, the
// signed-in profile and the language preference.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "secdash/internal/errors"
	"secdash/internal/logger"
	"secdash/internal/records"
	"secdash/internal/storage"
)

const (
	ClientCookieName = "secdash_client"
	LoginPath        = "/auth/login"
	keyExpiresAt     = "expires_at"
	defaultTTL       = 12 * time.Hour
	clientCookieAge  = 365 * 24 * time.Hour
)

type contextKey struct{}

// Session is the per-request view of a client.
type Session struct {
	ClientID string
	Token    string
	User     *records.User
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil && s.Token != ""
}

// Manager issues client cookies and keeps sign-in state in storage.
type Manager struct {
	store         *storage.Store
	ttl           time.Duration
	secureCookies bool
	now           func() time.Time
}

// NewManager returns a manager over store. ttl <= 0 uses 12 hours.
func NewManager(store *storage.Store, ttl time.Duration, secureCookies bool) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{store: store, ttl: ttl, secureCookies: secureCookies, now: time.Now}
}

// Store exposes the underlying client storage.
func (m *Manager) Store() *storage.Store {
	return m.store
}

// ClientID returns the client ID carried by the request cookie, issuing a
// new one when the cookie is missing or malformed.
func (m *Manager) ClientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(ClientCookieName); err == nil {
		if id, parseErr := uuid.Parse(strings.TrimSpace(cookie.Value)); parseErr == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secureCookies,
		Expires:  m.now().Add(clientCookieAge),
	})
	r.AddCookie(&http.Cookie{Name: ClientCookieName, Value: id})
	return id
}

// Login stores the backend token and profile for clientID.
func (m *Manager) Login(ctx context.Context, clientID, token string, user records.User) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("login: %w", apperrors.ErrInvalidCredentials)
	}
	if err := m.store.Set(ctx, clientID, storage.KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := m.store.SetJSON(ctx, clientID, storage.KeyUser, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	expiresAt := m.now().Add(m.ttl).UTC().Format(time.RFC3339)
	if err := m.store.Set(ctx, clientID, keyExpiresAt, expiresAt); err != nil {
		return fmt.Errorf("store expiry: %w", err)
	}
	return nil
}

// UpdateUser replaces the stored profile, keeping the token.
func (m *Manager) UpdateUser(ctx context.Context, clientID string, user records.User) error {
	return m.store.SetJSON(ctx, clientID, storage.KeyUser, user)
}

// Logout drops the token and profile. The language preference survives.
func (m *Manager) Logout(ctx context.Context, clientID string) error {
	return m.store.Delete(ctx, clientID, storage.KeyToken, storage.KeyUser, keyExpiresAt)
}

// Load reads the session for clientID. Expired sessions are cleared and
// reported with ErrSessionExpired.
func (m *Manager) Load(ctx context.Context, clientID string) (*Session, error) {
	sess := &Session{ClientID: clientID}
	token, ok, err := m.store.Get(ctx, clientID, storage.KeyToken)
	if err != nil {
		return sess, err
	}
	if !ok {
		return sess, nil
	}
	if raw, found, expErr := m.store.Get(ctx, clientID, keyExpiresAt); expErr == nil && found {
		if expiresAt, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil && m.now().After(expiresAt) {
			_ = m.Logout(ctx, clientID)
			return sess, apperrors.ErrSessionExpired
		}
	}
	var user records.User
	found, err := m.store.GetJSON(ctx, clientID, storage.KeyUser, &user)
	if err != nil {
		return sess, err
	}
	if !found {
		return sess, nil
	}
	sess.Token = token
	sess.User = &user
	return sess, nil
}

// Middleware attaches the client session to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := m.ClientID(w, r)
		sess, err := m.Load(r.Context(), clientID)
		if err != nil && !errors.Is(err, apperrors.ErrSessionExpired) {
			logger.Get().Warn().
				Err(err).
				Str("client_id", clientID).
				Msg("failed to load client session")
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// RequireUser rejects anonymous requests. Pages redirect to the login page,
// API calls get 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).Authenticated() {
			deny(w, r, http.StatusUnauthorized, LoginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects users without role. Signed-in users are sent to their
// own dashboard.
func RequireRole(role records.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := FromContext(r.Context())
			if !sess.Authenticated() {
				deny(w, r, http.StatusUnauthorized, LoginPath)
				return
			}
			if sess.User.Role != role {
				deny(w, r, http.StatusForbidden, DashboardPath(*sess.User))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DashboardPath is the landing page for user.
func DashboardPath(user records.User) string {
	if user.IsAdmin() {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}

func deny(w http.ResponseWriter, r *http.Request, status int, location string) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
