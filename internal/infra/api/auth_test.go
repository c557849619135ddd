//go:build !integration

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/infra/logging"
)

func TestAuthManager(t *testing.T) {
	a := NewAuthManager("secret", true, time.Hour)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	t.Run("should mint an anonymous subject and set a cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tok, sub, err := a.Mint(rec, "")
		if err != nil || tok == "" || sub == "" {
			t.Fatalf("Mint: %q %q %v", tok, sub, err)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != "act_session" || !cookies[0].HttpOnly || !cookies[0].Secure {
			t.Errorf("cookie = %+v", cookies)
		}
	})

	t.Run("should read the token from a bearer header or the cookie", func(t *testing.T) {
		tok, _, _ := a.Mint(nil, "user-1")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if c, err := a.ParseFromRequest(req); err != nil || c.Subject != "user-1" {
			t.Errorf("header: %+v, %v", c, err)
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "act_session", Value: tok})
		if c, err := a.ParseFromRequest(req); err != nil || c.Subject != "user-1" {
			t.Errorf("cookie: %+v, %v", c, err)
		}
	})

	t.Run("should report a missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if _, err := a.ParseFromRequest(req); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("should reject expired and foreign tokens", func(t *testing.T) {
		tok, _, _ := a.Mint(nil, "user-1")
		now = now.Add(2 * time.Hour)
		defer func() { now = now.Add(-2 * time.Hour) }()
		if _, err := a.parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expired: %v", err)
		}

		other := NewAuthManager("other-secret", false, time.Hour)
		foreign, _, _ := other.Mint(nil, "user-1")
		if _, err := a.parse(foreign); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("foreign: %v", err)
		}
	})

	t.Run("should reject a non-bearer authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		if _, err := a.ParseFromRequest(req); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestRequireUser(t *testing.T) {
	logger := zerolog.Nop()
	a := NewAuthManager("secret", false, time.Hour)
	var seen string
	h := RequireUser(a, &logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = logging.UserID(r.Context())
	}))

	t.Run("should put the subject on the context", func(t *testing.T) {
		tok, _, _ := a.Mint(nil, "user-5")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || seen != "user-5" {
			t.Errorf("code=%d user=%q", rec.Code, seen)
		}
	})

	t.Run("should answer 401 without a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d", rec.Code)
		}
	})
}

func TestRecover(t *testing.T) {
	logger := zerolog.Nop()
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), Recover(&logger))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d", rec.Code)
	}
}
