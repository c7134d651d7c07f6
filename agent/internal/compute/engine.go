package compute

import (
	"log/slog"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// ComputeRate derives per-second rates from two snapshots.
//
// It returns false, and no sample, when prev is nil (first cycle) or when both
// snapshots carry the same timestamp. Otherwise every port of curr gets
// (curr - prev) / elapsed for each counter. A counter that went backwards
// (switch reboot, wrap) produces a negative rate; it is passed through as is.
//
// A port present in curr but missing from prev has no baseline and is left
// out of the sample with a warning. When no port has a baseline the result is
// false as well.
func ComputeRate(prev, curr *types.Snapshot) (types.RateSample, bool) {
	if prev == nil || curr == nil {
		return nil, false
	}
	elapsed := curr.Timestamp - prev.Timestamp
	if elapsed == 0 {
		return nil, false
	}
	secs := float64(elapsed)

	out := make(types.RateSample, len(curr.Ports))
	for port, c := range curr.Ports {
		p, ok := prev.Ports[port]
		if !ok {
			slog.Warn("compute: port has no baseline, skipping", "port", port)
			continue
		}
		out[port] = types.PortRates{
			Received: delta(c.Received, p.Received) / secs,
			Sent:     delta(c.Sent, p.Sent) / secs,
			Errors:   delta(c.Errors, p.Errors) / secs,
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// delta returns current - previous as a float64, negative when the counter
// went backwards.
func delta(current, previous uint64) float64 {
	if current >= previous {
		return float64(current - previous)
	}
	return -float64(previous - current)
}

// Engine keeps the previous snapshot across poll cycles. It is owned by a
// single poller goroutine and is not safe for concurrent use.
type Engine struct {
	prev *types.Snapshot
}

// NewEngine returns an Engine with no baseline.
func NewEngine() *Engine {
	return &Engine{}
}

// Process computes rates between the retained snapshot and curr, then makes
// curr the new baseline. The baseline advances even when no rate is produced,
// so the first cycle and a same-second resample both prime the next call.
func (e *Engine) Process(curr *types.Snapshot) (types.RateSample, bool) {
	rates, ok := ComputeRate(e.prev, curr)
	e.prev = curr
	return rates, ok
}

// Previous returns the retained baseline, or nil before the first Process.
func (e *Engine) Previous() *types.Snapshot {
	return e.prev
}
