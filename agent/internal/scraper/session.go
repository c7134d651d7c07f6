package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// Session is an authenticated handle on one switch. It is created by Login,
// used for the requests of a single poll cycle and released with Logout.
// Sessions are never shared between cycles.
type Session struct {
	endpoint string
	cookie   string
	client   *http.Client
}

// Login posts the password to the switch and returns a Session carrying the
// cookie from the response's Set-Cookie headers. Several headers are joined
// with ", " into a single Cookie value.
//
// Any failure, including a response without Set-Cookie (wrong password: the
// firmware answers with the login page again), is returned as *types.AuthError.
func Login(ctx context.Context, client *http.Client, endpoint, password string) (*Session, error) {
	endpoint = strings.TrimRight(endpoint, "/")
	authErr := func(err error) error {
		return &types.AuthError{Endpoint: endpoint, Err: err}
	}

	form := url.Values{"password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+loginPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, authErr(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, authErr(fmt.Errorf("post login: %w", err))
	}
	defer drain(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, authErr(fmt.Errorf("login status %d", resp.StatusCode))
	}

	cookie := strings.Join(resp.Header.Values("Set-Cookie"), ", ")
	if cookie == "" {
		return nil, authErr(errors.New("login response has no Set-Cookie header"))
	}

	return &Session{
		endpoint: endpoint,
		cookie:   cookie,
		client:   withCookie(client, cookie),
	}, nil
}

// Get fetches path with the session cookie attached. A request failure or a
// non-2xx status is returned as *types.TransportError. On success the caller
// owns the response body.
func (s *Session) Get(ctx context.Context, path string) (*http.Response, error) {
	u := s.endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &types.TransportError{Op: "GET", URL: u, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &types.TransportError{Op: "GET", URL: u, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil, &types.TransportError{Op: "GET", URL: u, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Logout releases the session on the switch. The firmware allows only a
// handful of concurrent web sessions, so a leaked one can lock out the next
// login; failures are still only logged since the next cycle logs in again.
func (s *Session) Logout(ctx context.Context) {
	resp, err := s.Get(ctx, logoutPath)
	if err != nil {
		slog.Warn("scraper: logout failed", "endpoint", s.endpoint, "err", err)
		return
	}
	drain(resp.Body)
}

// WithSession logs in, runs fn with the session and logs out again. Logout
// runs on every exit path of fn, including errors and panics, and uses a
// context detached from ctx's cancellation so a shutdown still releases the
// session.
func WithSession(ctx context.Context, client *http.Client, endpoint, password string, fn func(*Session) error) error {
	s, err := Login(ctx, client, endpoint, password)
	if err != nil {
		return err
	}
	defer s.Logout(context.WithoutCancel(ctx))

	return fn(s)
}

// drain discards the rest of body and closes it so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}
