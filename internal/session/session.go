package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const loginPath = "/api/auth/login"

// User is the identity returned by the auth service on login.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Active   bool   `json:"is_active"`
}

// Session pairs the opaque bearer token with the user it was issued to.
// A non-nil Session always carries a non-empty token.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthError reports a failed credential exchange: invalid credentials,
// an inactive account, or an unreachable auth service.
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("authentication failed: %s", e.Detail)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Manager owns the persisted session. It is the only legitimate writer of
// the session file: Restore, Establish and Clear are the full lifecycle.
type Manager struct {
	AuthURL    string
	HTTPClient *http.Client

	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current *Session
}

func NewManager(path, authURL string, logger *zap.Logger) *Manager {
	return &Manager{
		AuthURL: authURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		path:   path,
		logger: logger,
	}
}

// Restore reads the persisted session from disk, if any. It never contacts
// the network. A missing or unreadable file simply means no session.
func (m *Manager) Restore() *Session {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.Token == "" {
		m.logger.Debug("ignoring unusable session file", zap.String("path", m.path))
		return nil
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.Debug("restored session", zap.String("user", s.User.Email))
	return &s
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Establish exchanges credentials for a token at the auth service and
// persists the resulting session atomically. The returned error is always
// an *AuthError when the exchange itself failed.
func (m *Manager) Establish(ctx context.Context, email, password string) (*Session, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.AuthURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return nil, &AuthError{Detail: "auth service unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Detail == "" {
			body.Detail = resp.Status
		}
		return nil, &AuthError{Detail: body.Detail}
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, &AuthError{Detail: "malformed login response", Err: err}
	}

	if lr.AccessToken == "" {
		return nil, &AuthError{Detail: "login response carried no token"}
	}

	s := &Session{Token: lr.AccessToken, User: lr.User}
	if err := m.persist(s); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Info("session established", zap.String("user", s.User.Email))
	return s, nil
}

// Clear erases the persisted session and the in-memory copy. It is
// idempotent and never fails; a clear must be visible to all requests
// issued afterwards.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("removing session file", zap.String("path", m.path), zap.Error(err))
	}
}

// Token returns the current bearer token, or empty when no session exists.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Current returns the in-memory session, or nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current
}

// persist writes token and user in one atomic step: both land on disk, or
// neither does.
func (m *Manager) persist(s *Session) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), m.path)
}
