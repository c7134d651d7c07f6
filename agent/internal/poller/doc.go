// Package poller runs the agent's main loop.
//
// Each cycle samples the switch, feeds the snapshot to the compute engine,
// formats the resulting rates, publishes them to the local exporter (when
// configured) and submits them to the ingestion API. The first cycle, and any
// cycle stamped in the same second as the previous one, yields no rate; the
// poller then retries after the short retry interval instead of the full poll
// interval.
//
// Every error is caught at the cycle boundary and logged with its kind
// (auth, parse, transport, sink). A sampling failure keeps the previous
// snapshot; a delivery failure does not, since the rate itself was computed.
package poller
