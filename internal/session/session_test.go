package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestManager(t *testing.T, authURL string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return NewManager(path, authURL, zap.NewNop())
}

func fakeAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			http.NotFound(w, r)
			return
		}

		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if creds.Email != "r@x.com" || creds.Password != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid email or password"})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"token_type":   "bearer",
			"user": map[string]any{
				"id":        7,
				"email":     creds.Email,
				"full_name": "Recruiter",
				"is_active": true,
			},
		})
	}))
}

func TestRestoreWithoutFile(t *testing.T) {
	m := newTestManager(t, "http://unused")
	if s := m.Restore(); s != nil {
		t.Fatalf("expected nil session, got %+v", s)
	}
	if m.Token() != "" {
		t.Fatalf("expected empty token, got %q", m.Token())
	}
}

func TestEstablishPersistsSession(t *testing.T) {
	srv := fakeAuthServer(t)
	defer srv.Close()

	m := newTestManager(t, srv.URL)
	s, err := m.Establish(context.Background(), "r@x.com", "p")
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if s.Token != "tok-123" {
		t.Fatalf("unexpected token: %q", s.Token)
	}
	if s.User.Email != "r@x.com" || !s.User.Active {
		t.Fatalf("unexpected user: %+v", s.User)
	}
	if m.Token() != "tok-123" {
		t.Fatalf("manager token = %q, want tok-123", m.Token())
	}

	// A fresh manager over the same file must see the same session.
	restored := NewManager(m.path, srv.URL, zap.NewNop()).Restore()
	if restored == nil || restored.Token != "tok-123" || restored.User.ID != 7 {
		t.Fatalf("restore after establish = %+v", restored)
	}
}

func TestEstablishInvalidCredentials(t *testing.T) {
	srv := fakeAuthServer(t)
	defer srv.Close()

	m := newTestManager(t, srv.URL)
	_, err := m.Establish(context.Background(), "r@x.com", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
	if m.Token() != "" {
		t.Fatal("no session should be stored after a failed login")
	}
	if _, err := os.Stat(m.path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("session file must not exist after a failed login")
	}
}

func TestEstablishUnreachableService(t *testing.T) {
	m := newTestManager(t, "http://127.0.0.1:1")
	_, err := m.Establish(context.Background(), "r@x.com", "p")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T: %v", err, err)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	srv := fakeAuthServer(t)
	defer srv.Close()

	m := newTestManager(t, srv.URL)
	if _, err := m.Establish(context.Background(), "r@x.com", "p"); err != nil {
		t.Fatalf("establish: %v", err)
	}

	m.Clear()
	m.Clear()

	if m.Token() != "" {
		t.Fatalf("token after clear = %q, want empty", m.Token())
	}
	if s := m.Restore(); s != nil {
		t.Fatalf("restore after clear = %+v, want nil", s)
	}
}

func TestRestoreIgnoresCorruptFile(t *testing.T) {
	m := newTestManager(t, "http://unused")
	if err := os.WriteFile(m.path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if s := m.Restore(); s != nil {
		t.Fatalf("expected nil session for corrupt file, got %+v", s)
	}
}
