// Package exporter serves the agent's latest per-port rates on a local HTTP
// listener, for scraping by Prometheus or for a live dashboard.
//
// /metrics renders the last sample as gauges with prometheus/client_model and
// encodes them with prometheus/common/expfmt using Accept negotiation.
// /api/v1/rates returns the last formatted metric points as JSON.
// /ws is a gorilla/websocket feed: clients get the last sample on connect and
// one message per Publish afterwards; slow clients are disconnected.
//
// The exporter is optional and disabled unless exporter.listen_addr is set.
package exporter
