package exporter

import (
	"net/http"
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// Exposed metric names.
const (
	metricReceived   = "gs108e_port_received_bytes_per_second"
	metricSent       = "gs108e_port_sent_bytes_per_second"
	metricErrors     = "gs108e_port_crc_errors_per_second"
	metricLastSample = "gs108e_last_sample_timestamp_seconds"
)

// families renders a rate sample as Prometheus gauge families. It returns
// nothing before the first sample has been published.
func families(ts int64, rates types.RateSample) []*dto.MetricFamily {
	if ts == 0 {
		return nil
	}

	ports := make([]int, 0, len(rates))
	for p := range rates {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	recv := gaugeFamily(metricReceived, "Bytes received per second over the last sampling interval.")
	sent := gaugeFamily(metricSent, "Bytes sent per second over the last sampling interval.")
	errs := gaugeFamily(metricErrors, "CRC error packets per second over the last sampling interval.")
	for _, p := range ports {
		r := rates[p]
		label := []*dto.LabelPair{{Name: proto.String("port"), Value: proto.String(strconv.Itoa(p))}}
		recv.Metric = append(recv.Metric, gauge(label, r.Received))
		sent.Metric = append(sent.Metric, gauge(label, r.Sent))
		errs.Metric = append(errs.Metric, gauge(label, r.Errors))
	}

	last := gaugeFamily(metricLastSample, "Unix time of the last sample that produced rates.")
	last.Metric = []*dto.Metric{gauge(nil, float64(ts))}

	return []*dto.MetricFamily{recv, sent, errs, last}
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

// metrics serves GET /metrics in the exposition format negotiated from the
// Accept header.
func (e *Exporter) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ts, rates, _ := e.latest.get()
	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families(ts, rates) {
		if err := enc.Encode(mf); err != nil {
			// Headers are already written; the client sees a truncated body.
			return
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		_ = closer.Close()
	}
}
