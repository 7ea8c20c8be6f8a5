// internal/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lms-web/internal/domain/auth"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrUnexpectedResponse means a 2xx response did not carry the expected payload.
var ErrUnexpectedResponse = errors.New("unexpected backend response")

// StatusError is a backend failure status, taken from HTTP or from the envelope.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Client talks to the LMS backend. It is the only place that knows the
// backend routes and envelope.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Jar       http.CookieJar
}

func New(opts Options, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			Jar:       opts.Jar,
		},
		logger: logger,
	}
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginData, error) {
	var data auth.LoginData
	if err := c.call(Anonymous(ctx), http.MethodPost, "/user/login", req, &data); err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, fmt.Errorf("%w: login returned no token", ErrUnexpectedResponse)
	}
	return &data, nil
}

// Register creates the account. The backend may or may not include a token.
func (c *Client) Register(ctx context.Context, in auth.RegisterInput) (*auth.RegisterData, error) {
	var data auth.RegisterData
	if err := c.call(Anonymous(ctx), http.MethodPost, "/user/register", in, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Logout tells the backend the session is ending. A 401 does not trigger
// rejection; the caller tears the session down regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(KeepSessionOnReject(ctx), http.MethodPost, "/user/logout", nil, nil)
}

// Me fetches the profile of credential.
func (c *Client) Me(ctx context.Context, credential string) (*auth.ProfileResponse, error) {
	var profile auth.ProfileResponse
	if err := c.call(WithCredential(ctx, credential), http.MethodGet, "/user/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Forward sends an arbitrary authorized request to path under the base URL.
// The caller owns the response body.
func (c *Client) Forward(ctx context.Context, method, path string, query url.Values, header http.Header, body io.Reader) (*http.Response, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for _, h := range []string{"Content-Type", "Accept", "Accept-Language"} {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	var env auth.Envelope
	parseErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Message: env.Message}
	}
	if parseErr == nil && env.Status >= 400 {
		return &StatusError{Status: env.Status, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if parseErr != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, parseErr)
	}
	if !env.HasData() {
		return fmt.Errorf("%w: %s has no data", ErrUnexpectedResponse, path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}
