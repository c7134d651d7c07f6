// Package scraper reads per-port counters from the web UI of a GS108E-class
// switch.
//
// session.go implements the login/logout lifecycle: Login posts the password
// to /login.cgi and keeps the returned Set-Cookie value; WithSession wraps an
// operation so /logout.cgi is always requested afterwards. extract.go parses
// the <tr class="portID"> rows of /port_statistics.htm with golang.org/x/net/html.
// sampler.go ties both together into Sampler.Sample, which returns one
// timestamped types.Snapshot per call.
//
// Failures are reported as the typed errors from pkg/types so the poller can
// log them by kind.
package scraper
