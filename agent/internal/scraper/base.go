package scraper

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Paths of the switch web UI, relative to the configured device URL.
const (
	loginPath      = "/login.cgi"
	logoutPath     = "/logout.cgi"
	statisticsPath = "/port_statistics.htm"
)

// cookieRoundTripper attaches the session cookie to every outgoing request.
type cookieRoundTripper struct {
	base   http.RoundTripper
	cookie string
}

func (t *cookieRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Cookie", t.cookie)
	return t.base.RoundTrip(req)
}

// NewHTTPClient builds the client used to talk to the switch. Redirects are
// not followed: the firmware answers an expired session with a redirect to
// the login page, which must surface as a failed request rather than as a
// page without counters.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // user-configured
			},
		},
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// withCookie returns a shallow copy of client whose transport injects cookie.
func withCookie(client *http.Client, cookie string) *http.Client {
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := *client
	c.Transport = &cookieRoundTripper{base: base, cookie: cookie}
	return &c
}
