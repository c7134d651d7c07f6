package scraper

import (
	"context"
	"net/http"
	"time"

	"github.com/portstat/gs108e-agent/agent/internal/config"
	"github.com/portstat/gs108e-agent/pkg/types"
)

// Sampler performs one authenticated fetch-and-parse of the port statistics
// page per call.
type Sampler struct {
	endpoint string
	password string
	client   *http.Client
	now      func() time.Time // injectable for tests
}

// New returns a Sampler for the switch described by cfg. The password is
// resolved once, here.
func New(cfg config.DeviceConfig, timeout time.Duration) *Sampler {
	return &Sampler{
		endpoint: cfg.URL,
		password: cfg.Password(),
		client:   NewHTTPClient(timeout, cfg.InsecureSkipVerify),
		now:      time.Now,
	}
}

// Sample logs in, reads port_statistics.htm, logs out and returns the parsed
// counters. The snapshot is stamped as soon as the response arrives, before
// parsing.
//
// Errors are *types.AuthError, *types.TransportError or *types.ParseError.
// No snapshot is returned alongside an error.
func (s *Sampler) Sample(ctx context.Context) (*types.Snapshot, error) {
	var snap *types.Snapshot
	err := WithSession(ctx, s.client, s.endpoint, s.password, func(sess *Session) error {
		resp, err := sess.Get(ctx, statisticsPath)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		stamp := s.now().Unix()

		rows, err := Extract(resp.Body)
		if err != nil {
			return err
		}

		ports := make(map[int]types.PortCounters, len(rows))
		for _, r := range rows {
			ports[r.Port] = r.Counters
		}
		snap = &types.Snapshot{Timestamp: stamp, Ports: ports}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
