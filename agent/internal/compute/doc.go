// Package compute turns cumulative switch counters into per-second rates.
//
// ComputeRate is the pure calculation between two snapshots. Engine wraps it
// with the single retained baseline the poller threads across cycles; callers
// only hand it snapshots from successful samples, so a failed cycle never
// moves the baseline.
package compute
