package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/portstat/gs108e-agent/pkg/types"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Message is the JSON envelope pushed to WebSocket clients.
type Message struct {
	Event string              `json:"event"`
	Time  int64               `json:"time"`
	Data  []types.MetricPoint `json:"data"`
}

// Exporter publishes the most recent rate sample locally over HTTP:
//
//	GET /metrics        Prometheus exposition
//	GET /api/v1/rates   latest metric points as JSON
//	GET /ws             WebSocket feed, one Message per published sample
type Exporter struct {
	latest latest
	hub    *hub
	mux    *http.ServeMux
}

// New creates an Exporter with its routes registered.
func New() *Exporter {
	e := &Exporter{hub: newHub(), mux: http.NewServeMux()}

	e.mux.HandleFunc("/metrics", e.metrics)
	e.mux.HandleFunc("/api/v1/rates", e.rates)
	e.mux.HandleFunc("/ws", e.ws)

	return e
}

func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mux.ServeHTTP(w, r)
}

// Publish records a new sample and pushes it to WebSocket clients.
func (e *Exporter) Publish(ts int64, rates types.RateSample, points []types.MetricPoint) {
	e.latest.set(ts, rates, points)

	data, err := json.Marshal(Message{Event: "rates", Time: ts, Data: points})
	if err != nil {
		slog.Warn("exporter: encode message", "err", err)
		return
	}
	e.hub.broadcast(data)
}

// ListenAndServe serves the exporter on addr until ctx is cancelled, then
// disconnects WebSocket clients and shuts the listener down.
func (e *Exporter) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("exporter: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	e.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- route handlers ---------------------------------------------------------

// rates returns GET /api/v1/rates, the points of the last published sample.
func (e *Exporter) rates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ts, _, points := e.latest.get()
	if points == nil {
		points = []types.MetricPoint{}
	}
	jsonResp(w, http.StatusOK, Message{Event: "rates", Time: ts, Data: points})
}

// ws upgrades GET /ws and sends the last sample immediately, if any.
func (e *Exporter) ws(w http.ResponseWriter, r *http.Request) {
	var initial []byte
	if ts, _, points := e.latest.get(); ts != 0 {
		initial, _ = json.Marshal(Message{Event: "rates", Time: ts, Data: points})
	}
	e.hub.serve(w, r, initial)
}

func jsonResp(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	jsonResp(w, status, map[string]string{"error": msg})
}
