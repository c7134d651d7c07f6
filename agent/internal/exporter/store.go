package exporter

import (
	"sync"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// latest holds the most recent published rate sample. HTTP handlers read it
// concurrently with the poller writing it.
type latest struct {
	mu     sync.RWMutex
	ts     int64
	rates  types.RateSample
	points []types.MetricPoint
}

func (l *latest) set(ts int64, rates types.RateSample, points []types.MetricPoint) {
	l.mu.Lock()
	l.ts = ts
	l.rates = rates
	l.points = points
	l.mu.Unlock()
}

// get returns the last published values. rates and points must not be
// mutated by the caller; set always replaces them wholesale.
func (l *latest) get() (int64, types.RateSample, []types.MetricPoint) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ts, l.rates, l.points
}
