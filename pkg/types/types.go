package types

// Counter field names as they appear in metric names.
const (
	FieldReceived = "received"
	FieldSent     = "sent"
	FieldError    = "error"
)

// Fields is the fixed enumeration order of the per-port counters.
var Fields = []string{FieldReceived, FieldSent, FieldError}

// PortCounters holds the cumulative counters reported by the switch for one
// port. Received and Sent are bytes, Errors is packets.
type PortCounters struct {
	Received uint64
	Sent     uint64
	Errors   uint64
}

// Snapshot is one timestamped reading of every port's counters.
// It is never mutated after the sampler builds it.
type Snapshot struct {
	// Timestamp is unix seconds, taken right after the status page arrived.
	Timestamp int64

	// Ports maps a 1-based port number to its counters.
	Ports map[int]PortCounters
}

// PortRates is the per-second change of each counter of one port.
type PortRates struct {
	Received float64
	Sent     float64
	Errors   float64
}

// Value returns the rate for a field name from Fields. Unknown names yield 0.
func (r PortRates) Value(field string) float64 {
	switch field {
	case FieldReceived:
		return r.Received
	case FieldSent:
		return r.Sent
	case FieldError:
		return r.Errors
	}
	return 0
}

// RateSample maps a port number to its rates over one sampling interval.
type RateSample map[int]PortRates

// MetricPoint is one time-series value in the ingestion API wire format.
type MetricPoint struct {
	HostID string  `json:"hostId"`
	Name   string  `json:"name"`
	Time   int64   `json:"time"`
	Value  float64 `json:"value"`
}
