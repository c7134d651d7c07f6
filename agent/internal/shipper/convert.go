package shipper

import (
	"fmt"
	"sort"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// metricPrefix is prepended to every metric name sent to the ingestion API.
const metricPrefix = "custom.gs108e"

// MetricName returns the series name for one port counter, e.g.
// custom.gs108e.port3.received.
func MetricName(port int, field string) string {
	return fmt.Sprintf("%s.port%d.%s", metricPrefix, port, field)
}

// Format converts a rate sample into metric points stamped with ts.
// Ports are emitted in ascending order and each port's fields in
// types.Fields order, so the same input always yields the same slice.
func Format(hostID string, ts int64, rates types.RateSample) []types.MetricPoint {
	ports := make([]int, 0, len(rates))
	for p := range rates {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	out := make([]types.MetricPoint, 0, len(ports)*len(types.Fields))
	for _, p := range ports {
		r := rates[p]
		for _, f := range types.Fields {
			out = append(out, types.MetricPoint{
				HostID: hostID,
				Name:   MetricName(p, f),
				Time:   ts,
				Value:  r.Value(f),
			})
		}
	}
	return out
}
