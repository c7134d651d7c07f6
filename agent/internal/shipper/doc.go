// Package shipper formats rate samples as Mackerel host metrics and posts them
// to the ingestion API (POST /api/v0/tsdb, X-Api-Key header, JSON array body).
//
// convert.go holds the pure Format function: one point per port and counter,
// named custom.gs108e.port<N>.<received|sent|error>, in a stable order.
// shipper.go holds the HTTP sink. Delivery is fire-and-forget: the poller logs
// a failed Send and moves on to the next cycle.
package shipper
