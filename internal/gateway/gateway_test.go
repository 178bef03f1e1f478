package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/session"
)

func newTestClient(t *testing.T, backendURL string) (*Client, *session.Manager) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	sess := session.NewManager(path, backendURL, zap.NewNop())
	return New(backendURL, sess, zap.NewNop()), sess
}

func loginHandler(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"user":         map[string]any{"id": 1, "email": "r@x.com", "is_active": true},
		})
	}
}

func TestRequestCarriesSessionToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", loginHandler("tok-abc"))
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, sess := newTestClient(t, srv.URL)
	if _, err := sess.Establish(context.Background(), "r@x.com", "p"); err != nil {
		t.Fatalf("establish: %v", err)
	}

	var out []any
	if err := client.GetJSON(context.Background(), "/api/jobs", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer tok-abc")
	}
}

func TestNoTokenAfterClear(t *testing.T) {
	var gotAuth string
	var hadAuth bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", loginHandler("tok-abc"))
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		hadAuth = gotAuth != ""
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, sess := newTestClient(t, srv.URL)
	if _, err := sess.Establish(context.Background(), "r@x.com", "p"); err != nil {
		t.Fatalf("establish: %v", err)
	}
	sess.Clear()

	if err := client.GetJSON(context.Background(), "/api/jobs", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if hadAuth {
		t.Fatalf("request after clear still carried Authorization %q", gotAuth)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", loginHandler("tok-abc"))
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, sess := newTestClient(t, srv.URL)
	if _, err := sess.Establish(context.Background(), "r@x.com", "p"); err != nil {
		t.Fatalf("establish: %v", err)
	}

	err := client.GetJSON(context.Background(), "/api/jobs", nil, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if sess.Token() != "" {
		t.Fatal("session must be cleared after an authorization-denied response")
	}
}

func TestRequestFailedCarriesStatusAndDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Number of files must match number of CTC values"})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	err := client.GetJSON(context.Background(), "/api/candidates", nil, nil)

	var failed *RequestFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected *RequestFailed, got %T: %v", err, err)
	}
	if failed.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", failed.Status)
	}
	if failed.Detail != "Number of files must match number of CTC values" {
		t.Fatalf("unexpected detail: %q", failed.Detail)
	}
}

func TestPostMultipartShape(t *testing.T) {
	var files, current, expected []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for _, fh := range r.MultipartForm.File["files"] {
			files = append(files, fh.Filename)
		}
		current = r.MultipartForm.Value["current_ctcs"]
		expected = r.MultipartForm.Value["expected_ctcs"]
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	uploads := []Upload{
		{Name: "a.pdf", Content: strings.NewReader("%PDF-1.4 a")},
		{Name: "b.pdf", Content: strings.NewReader("%PDF-1.4 b")},
	}

	err := client.PostMultipart(context.Background(), "/api/candidates/create-candidates-from-pdfs",
		nil, uploads, []string{"10", "12"}, []string{"14", "16"}, nil)
	if err != nil {
		t.Fatalf("post multipart: %v", err)
	}

	if len(files) != 2 || files[0] != "a.pdf" || files[1] != "b.pdf" {
		t.Fatalf("unexpected files: %v", files)
	}
	if len(current) != 2 || current[0] != "10" {
		t.Fatalf("unexpected current_ctcs: %v", current)
	}
	if len(expected) != 2 || expected[1] != "16" {
		t.Fatalf("unexpected expected_ctcs: %v", expected)
	}
}

func TestPatchSendsQueryParams(t *testing.T) {
	var gotQuery url.Values
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	q := url.Values{}
	q.Set("job_id", "42")
	q.Set("status", "saved")

	if err := client.Patch(context.Background(), "/api/candidates/a@b.com/status", q); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %q, want PATCH", gotMethod)
	}
	if gotQuery.Get("job_id") != "42" || gotQuery.Get("status") != "saved" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}
