package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isdelr/simplecomm-be/internal/models"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidEmail, "Format email salah."},
		{ErrInvalidCredentials, "Email atau password salah."},
		{fmt.Errorf("register: %w", ErrEmailExists), "Email sudah terdaftar."},
		{ErrWeakPassword, "Password minimal 6 karakter."},
		{errors.New("disk full"), "Terjadi kesalahan."},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateEmail("budi@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	for _, bad := range []string{"", "budi", "Budi <budi@example.com>"} {
		if err := ValidateEmail(bad); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("ValidateEmail(%q) = %v, want ErrInvalidEmail", bad, err)
		}
	}
	if err := ValidatePassword("12345"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password accepted: %v", err)
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("six-char password rejected: %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "rahasia123"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "salah"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestJWTMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	token, err := issuer.GenerateJWT(models.User{ID: "u1", Username: "budi"})
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	var seen *Claims
	handler := issuer.JWTMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		if seen == nil || seen.UserID != "u1" {
			t.Errorf("claims = %+v", seen)
		}
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("foreign signature", func(t *testing.T) {
		other, _ := NewTokenIssuer("other-secret").GenerateJWT(models.User{ID: "u1"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
