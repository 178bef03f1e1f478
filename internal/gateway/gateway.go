// Package gateway is the single outbound channel to the recruiting backend.
// It attaches the bearer token from the current session to every request,
// turns an authorization-denied response into a forced session clear, and
// normalizes all other transport failures into RequestFailed.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/session"
	"github.com/recruiterlab/rankdesk/internal/util"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "rankdesk (recruiterlab)"

	// Response bodies are included in errors verbatim, but bounded.
	maxDetailLen = 512
)

// ErrSessionExpired signals that a previously valid session was rejected by
// the backend. The session has already been cleared by the time the caller
// sees this error; the only recovery is re-authentication.
var ErrSessionExpired = errors.New("session expired")

// RequestFailed is a generic backend failure: network error aside, any
// non-2xx response other than authorization-denied. The gateway never
// retries; ranking triggers are expensive and must not be duplicated.
type RequestFailed struct {
	Status int
	Detail string
}

func (e *RequestFailed) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Upload is one file attached to a multipart request.
type Upload struct {
	Name    string
	Content io.Reader
}

type Client struct {
	APIURL     string
	UserAgent  string
	HTTPClient *http.Client

	session *session.Manager
	logger  *zap.Logger
}

// New creates a gateway over the given API base URL. The HTTP client
// carries no timeout of its own: ranking triggers legitimately run for up
// to a minute, so deadlines belong to the caller's context.
func New(apiURL string, sess *session.Manager, logger *zap.Logger) *Client {
	return &Client{
		APIURL:     strings.TrimRight(apiURL, "/"),
		UserAgent:  userAgent,
		HTTPClient: &http.Client{},
		session:    sess,
		logger:     logger,
	}
}

// Do issues a single request and returns the response on any 2xx status.
// The caller owns the response body. Absence of a token is not an error
// here; some endpoints are public.
func (c *Client) Do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, body)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("method", method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.session.Clear()
		c.logger.Warn("backend rejected the session token", zap.String("path", path))
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		resp.Body.Close()
		return nil, &RequestFailed{Status: resp.StatusCode, Detail: detail}
	}

	return resp, nil
}

// GetJSON issues a GET request and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, path string, q url.Values, target any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, q, nil, contentTypeJSON)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeBody(resp.Body, target)
}

// PostJSON issues a POST request with an optional JSON payload and decodes
// the JSON response into target when target is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.Do(ctx, http.MethodPost, path, nil, body, contentTypeJSON)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeBody(resp.Body, target)
}

// PutJSON issues a PUT request with a JSON payload and decodes the JSON
// response into target when target is non-nil.
func (c *Client) PutJSON(ctx context.Context, path string, payload, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, http.MethodPut, path, nil, bytes.NewReader(data), contentTypeJSON)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeBody(resp.Body, target)
}

// Patch issues a PATCH request with query parameters and discards the body.
func (c *Client) Patch(ctx context.Context, path string, q url.Values) error {
	resp, err := c.Do(ctx, http.MethodPatch, path, q, nil, contentTypeJSON)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Delete issues a DELETE request and discards the body.
func (c *Client) Delete(ctx context.Context, path string) error {
	resp, err := c.Do(ctx, http.MethodDelete, path, nil, nil, contentTypeJSON)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// PostMultipart uploads files with accompanying per-file compensation
// figures as three positional sequences: one "files" part per upload, one
// "current_ctcs" field per current figure, one "expected_ctcs" field per
// expected figure. Length equality across the three is the caller's
// responsibility; the gateway writes whatever it is given.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []Upload, currentCTCs, expectedCTCs []string, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			return err
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return err
		}
	}

	for _, v := range currentCTCs {
		if err := w.WriteField("current_ctcs", v); err != nil {
			return err
		}
	}
	for _, v := range expectedCTCs {
		if err := w.WriteField("expected_ctcs", v); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	resp, err := c.Do(ctx, http.MethodPost, path, nil, &b, w.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeBody(resp.Body, target)
}

func (c *Client) setHeaders(req *http.Request) {
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentTypeJSON)
}

func decodeBody(body io.Reader, target any) error {
	if target == nil {
		return nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// readDetail extracts the backend's error message. FastAPI-style backends
// wrap it as {"detail": "..."}; anything else is surfaced raw.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var wrapped struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Detail != "" {
		return wrapped.Detail
	}

	return util.TruncateForLog(string(data), maxDetailLen)
}
