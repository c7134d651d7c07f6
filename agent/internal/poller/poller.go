package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/portstat/gs108e-agent/agent/internal/compute"
	"github.com/portstat/gs108e-agent/agent/internal/config"
	"github.com/portstat/gs108e-agent/agent/internal/shipper"
	"github.com/portstat/gs108e-agent/pkg/types"
)

// Sampler reads one snapshot of the switch counters.
type Sampler interface {
	Sample(ctx context.Context) (*types.Snapshot, error)
}

// Sink delivers a batch of metric points.
type Sink interface {
	Send(ctx context.Context, points []types.MetricPoint) error
}

// Publisher receives every rate sample that was produced, before delivery.
type Publisher interface {
	Publish(ts int64, rates types.RateSample, points []types.MetricPoint)
}

// Outcome is the result of one poll cycle.
type Outcome int

const (
	// OutcomeFailed means sampling failed; the baseline did not move.
	OutcomeFailed Outcome = iota
	// OutcomeNoRate means a snapshot was taken but no rate could be derived
	// yet (first sample, or same-second resample).
	OutcomeNoRate
	// OutcomeShipped means rates were produced and submitted. Delivery may
	// still have failed; see the error returned alongside.
	OutcomeShipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeNoRate:
		return "no_rate"
	case OutcomeShipped:
		return "shipped"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Poller drives sample → rate → format → ship on a fixed interval. It owns the
// previous snapshot and runs one cycle at a time on the caller's goroutine.
type Poller struct {
	hostID  string
	sampler Sampler
	sink    Sink
	pub     Publisher // optional
	engine  *compute.Engine

	pollInterval  atomic.Int64 // time.Duration
	retryInterval time.Duration
	debug         atomic.Bool

	sleep func(ctx context.Context, d time.Duration) error // injectable for tests
}

// New creates a Poller. pub may be nil.
func New(cfg *config.Config, sampler Sampler, sink Sink, pub Publisher) *Poller {
	p := &Poller{
		hostID:        cfg.HostID,
		sampler:       sampler,
		sink:          sink,
		pub:           pub,
		engine:        compute.NewEngine(),
		retryInterval: cfg.RetryInterval,
		sleep:         sleepCtx,
	}
	p.pollInterval.Store(int64(cfg.PollInterval))
	p.debug.Store(cfg.Debug)
	return p
}

// Reload applies the settings that may change at runtime: the poll interval
// and the debug flag. It is safe to call from another goroutine.
func (p *Poller) Reload(cfg *config.Config) {
	p.pollInterval.Store(int64(cfg.PollInterval))
	p.debug.Store(cfg.Debug)
}

// Run polls until ctx is cancelled. A failing cycle is logged and never stops
// the loop.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("poller: started",
		"host_id", p.hostID,
		"poll_interval", time.Duration(p.pollInterval.Load()),
		"retry_interval", p.retryInterval)

	for {
		outcome, err := p.RunCycle(ctx)
		if ctx.Err() != nil {
			slog.Info("poller: stopped")
			return
		}
		if err != nil {
			logCycleError(outcome, err)
		}

		wait := time.Duration(p.pollInterval.Load())
		if outcome == OutcomeNoRate {
			wait = p.retryInterval
		}
		if err := p.sleep(ctx, wait); err != nil {
			slog.Info("poller: stopped")
			return
		}
	}
}

// RunCycle performs one poll cycle and reports how far it got. A sampling
// error leaves the previous snapshot untouched. Once a snapshot was taken it
// becomes the new baseline whatever happens to delivery.
func (p *Poller) RunCycle(ctx context.Context) (Outcome, error) {
	curr, err := p.sampler.Sample(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("sample: %w", err)
	}

	rates, ok := p.engine.Process(curr)
	if !ok {
		slog.Debug("poller: no rate yet", "timestamp", curr.Timestamp, "ports", len(curr.Ports))
		return OutcomeNoRate, nil
	}

	points := shipper.Format(p.hostID, curr.Timestamp, rates)
	if p.debug.Load() {
		slog.Info("poller: metrics batch", "points", points)
	}
	if p.pub != nil {
		p.pub.Publish(curr.Timestamp, rates, points)
	}

	if err := p.sink.Send(ctx, points); err != nil {
		return OutcomeShipped, fmt.Errorf("send: %w", err)
	}
	slog.Debug("poller: cycle complete", "points", len(points), "timestamp", curr.Timestamp)
	return OutcomeShipped, nil
}

// Previous returns the snapshot the next rate will be computed against.
func (p *Poller) Previous() *types.Snapshot {
	return p.engine.Previous()
}

// logCycleError logs a failed cycle once, with the error kind and the HTTP
// status when there was one.
func logCycleError(outcome Outcome, err error) {
	attrs := []any{
		"kind", types.Kind(err),
		"outcome", outcome.String(),
		"err", err,
	}

	var (
		transportErr *types.TransportError
		sinkErr      *types.SinkError
	)
	switch {
	case errors.As(err, &transportErr):
		attrs = append(attrs, "op", transportErr.Op, "url", transportErr.URL)
		if transportErr.StatusCode != 0 {
			attrs = append(attrs, "status", transportErr.StatusCode)
		}
	case errors.As(err, &sinkErr):
		attrs = append(attrs, "op", "send", "url", sinkErr.URL)
		if sinkErr.StatusCode != 0 {
			attrs = append(attrs, "status", sinkErr.StatusCode)
		}
	}
	slog.Error("poller: cycle failed", attrs...)
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
