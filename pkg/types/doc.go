// Package types defines the shared Go types passed between the agent stages:
// raw counter snapshots read from the switch, per-second rate samples derived
// from two snapshots, and the metric points shipped to the ingestion API.
//
// errors.go holds the error taxonomy used at the poll-cycle boundary:
// AuthError, ParseError, TransportError and SinkError. Kind classifies any
// error into one of those for structured logging.
package types
