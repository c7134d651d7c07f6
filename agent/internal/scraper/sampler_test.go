package scraper

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/portstat/gs108e-agent/agent/internal/config"
	"github.com/portstat/gs108e-agent/pkg/types"
)

// newTestSampler points a Sampler at srv with a fixed clock.
func newTestSampler(t *testing.T, url, password string, at time.Time) *Sampler {
	t.Helper()
	t.Setenv("TEST_SWITCH_PASSWORD", password)
	s := New(config.DeviceConfig{URL: url, PasswordEnv: "TEST_SWITCH_PASSWORD"}, 2*time.Second)
	s.now = func() time.Time { return at }
	return s
}

func TestSampler_Sample(t *testing.T) {
	fs, srv := newFakeSwitch(t, statsPage(
		portRow(1, "10", "20", "0"),
		portRow(2, "ff", "0", "1"),
	))
	at := time.Unix(1700000000, 0)
	s := newTestSampler(t, srv.URL, fs.password, at)

	snap, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if snap.Timestamp != at.Unix() {
		t.Errorf("Timestamp = %d, want %d", snap.Timestamp, at.Unix())
	}
	if got := snap.Ports[1]; got != (types.PortCounters{Received: 16, Sent: 32}) {
		t.Errorf("port 1 = %+v", got)
	}
	if got := snap.Ports[2]; got != (types.PortCounters{Received: 255, Errors: 1}) {
		t.Errorf("port 2 = %+v", got)
	}

	logins, logouts, stats, bad := fs.counts()
	if logins != 1 || logouts != 1 || stats != 1 || bad != 0 {
		t.Errorf("logins=%d logouts=%d stats=%d badAuth=%d, want 1 1 1 0", logins, logouts, stats, bad)
	}
}

func TestSampler_ParseError_NoSnapshot_LogsOut(t *testing.T) {
	fs, srv := newFakeSwitch(t, statsPage(portRow(1, "nothex", "0", "0")))
	s := newTestSampler(t, srv.URL, fs.password, time.Unix(1, 0))

	snap, err := s.Sample(context.Background())
	if types.Kind(err) != types.KindParse {
		t.Fatalf("Sample() error = %v, want parse kind", err)
	}
	if snap != nil {
		t.Errorf("snapshot returned alongside error: %+v", snap)
	}
	if _, logouts, _, _ := fs.counts(); logouts != 1 {
		t.Errorf("logouts = %d, want 1", logouts)
	}
}

func TestSampler_StatusError_Transport(t *testing.T) {
	fs, srv := newFakeSwitch(t, "")
	fs.status = http.StatusServiceUnavailable
	s := newTestSampler(t, srv.URL, fs.password, time.Unix(1, 0))

	_, err := s.Sample(context.Background())
	if types.Kind(err) != types.KindTransport {
		t.Fatalf("Sample() error = %v, want transport kind", err)
	}
	if _, logouts, _, _ := fs.counts(); logouts != 1 {
		t.Errorf("logouts = %d, want 1", logouts)
	}
}

func TestSampler_RedirectToLogin_Transport(t *testing.T) {
	fs, srv := newFakeSwitch(t, "")
	fs.status = http.StatusFound
	s := newTestSampler(t, srv.URL, fs.password, time.Unix(1, 0))

	_, err := s.Sample(context.Background())
	if types.Kind(err) != types.KindTransport {
		t.Fatalf("Sample() error = %v, want transport kind", err)
	}
}

func TestSampler_AuthError(t *testing.T) {
	fs, srv := newFakeSwitch(t, statsPage(portRow(1, "1", "1", "1")))
	s := newTestSampler(t, srv.URL, "not-the-password", time.Unix(1, 0))

	_, err := s.Sample(context.Background())
	if types.Kind(err) != types.KindAuth {
		t.Fatalf("Sample() error = %v, want auth kind", err)
	}
	if _, _, stats, _ := fs.counts(); stats != 0 {
		t.Errorf("stats page fetched %d times without a session", stats)
	}
}
