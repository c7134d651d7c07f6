package exporter

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/portstat/gs108e-agent/pkg/types"
)

func testSample() (int64, types.RateSample, []types.MetricPoint) {
	rates := types.RateSample{
		1: {Received: 50, Sent: 12.5, Errors: 0},
		2: {Received: 0, Sent: 0, Errors: 0.1},
	}
	points := []types.MetricPoint{
		{HostID: "h", Name: "custom.gs108e.port1.received", Time: 1700000010, Value: 50},
	}
	return 1700000010, rates, points
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMetrics_BeforeFirstSample(t *testing.T) {
	e := New()
	rec := get(t, e, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "gs108e_") {
		t.Errorf("no series expected before the first sample, got:\n%s", rec.Body.String())
	}
}

func TestMetrics_TextExposition(t *testing.T) {
	e := New()
	e.Publish(testSample())

	rec := get(t, e, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE gs108e_port_received_bytes_per_second gauge",
		`gs108e_port_received_bytes_per_second{port="1"} 50`,
		`gs108e_port_sent_bytes_per_second{port="1"} 12.5`,
		`gs108e_port_crc_errors_per_second{port="2"} 0.1`,
		"gs108e_last_sample_timestamp_seconds 1.70000001e+09",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRates_JSON(t *testing.T) {
	e := New()

	rec := get(t, e, "/api/v1/rates")
	var empty Message
	if err := json.Unmarshal(rec.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(empty.Data) != 0 || empty.Time != 0 {
		t.Errorf("before publish: got %+v, want empty", empty)
	}

	ts, rates, points := testSample()
	e.Publish(ts, rates, points)

	rec = get(t, e, "/api/v1/rates")
	var got Message
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Time != ts || len(got.Data) != 1 || got.Data[0].Value != 50 {
		t.Errorf("got %+v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	e := New()
	for _, path := range []string{"/metrics", "/api/v1/rates"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s = %d, want 405", path, rec.Code)
		}
	}
}

// dialWS connects a WebSocket client to the exporter behind srv.
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

// waitClients polls until the hub has n clients.
func waitClients(t *testing.T, e *Exporter, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.hub.count() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub has %d clients, want %d", e.hub.count(), n)
}

func TestWS_InitialAndBroadcast(t *testing.T) {
	e := New()
	ts, rates, points := testSample()
	e.Publish(ts, rates, points)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)
	first := readMessage(t, conn)
	if first.Event != "rates" || first.Time != ts {
		t.Errorf("initial message = %+v", first)
	}
	waitClients(t, e, 1)

	e.Publish(ts+60, rates, points)
	next := readMessage(t, conn)
	if next.Time != ts+60 {
		t.Errorf("broadcast Time = %d, want %d", next.Time, ts+60)
	}
}

func TestWS_NoInitialBeforeFirstSample(t *testing.T) {
	e := New()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)
	waitClients(t, e, 1)

	e.Publish(testSample())
	if m := readMessage(t, conn); m.Time != 1700000010 {
		t.Errorf("first message Time = %d, want the published sample", m.Time)
	}
}

func TestWS_Disconnect(t *testing.T) {
	e := New()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)
	waitClients(t, e, 1)
	conn.Close()
	waitClients(t, e, 0)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	lis.Close()

	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.ListenAndServe(ctx, addr) }()

	// Wait until the listener accepts requests.
	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/api/v1/rates")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("exporter never came up: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
