package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Logf("write error: %v", err)
		}
	}))

	t.Run("nil body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("body within limit", func(t *testing.T) {
		body := strings.NewReader("small body")
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.ContentLength = int64(len("small body"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("body exceeds limit", func(t *testing.T) {
		body := strings.NewReader(strings.Repeat("a", 200))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.ContentLength = 200
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status 413, got %d", rec.Code)
		}
	})
}

func TestBodyLimitWithConfig_UploadOverride(t *testing.T) {
	handler := BodyLimitWithConfig(BodyLimitConfig{
		Default: 10,
		Overrides: []BodyLimitOverride{
			{Method: http.MethodPost, Suffix: "/upload", Limit: 1000},
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		method   string
		path     string
		size     int
		expected int
	}{
		{"upload within override", http.MethodPost, "/user/app-total-go/upload", 500, http.StatusOK},
		{"upload above override", http.MethodPost, "/api/apk-protect/upload", 2000, http.StatusRequestEntityTooLarge},
		{"form above default", http.MethodPost, "/auth/login", 50, http.StatusRequestEntityTooLarge},
		{"override ignores other methods", http.MethodPut, "/user/app-total-go/upload", 50, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(strings.Repeat("a", tt.size)))
			req.ContentLength = int64(tt.size)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestCSRFProtection_SameOrigin(t *testing.T) {
	handler := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "https://example.com/api", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("same origin should be allowed, got status %d", rec.Code)
	}
}

func TestCSRFProtection_DifferentOrigin(t *testing.T) {
	handler := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "https://example.com/api", nil)
	req.Header.Set("Origin", "https://evil.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("different origin should be forbidden, got status %d", rec.Code)
	}
}

func TestCSRFProtection_SafeMethods(t *testing.T) {
	handler := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	safeMethods := []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	for _, method := range safeMethods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("%s should not require CSRF check, got status %d", method, rec.Code)
			}
		})
	}
}
