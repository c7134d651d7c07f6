package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/portstat/gs108e-agent/agent/internal/config"
	"github.com/portstat/gs108e-agent/pkg/types"
)

// tsdbPath is the host-metric ingestion route of the Mackerel API.
const tsdbPath = "/api/v0/tsdb"

// maxErrorBody caps how much of an error response is kept in SinkError.
const maxErrorBody = 512

// Shipper posts metric points to the ingestion API. Send is synchronous and
// never retries; a failed batch is reported to the caller and dropped.
type Shipper struct {
	url    string
	apiKey string
	client *http.Client
}

// New creates a Shipper from the agent config. The API key is resolved once.
func New(cfg *config.Config) *Shipper {
	return &Shipper{
		url:    strings.TrimRight(cfg.APIEndpoint, "/") + tsdbPath,
		apiKey: cfg.APIKey(),
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Send submits points as one JSON array. Any failure, including a non-2xx
// response, is returned as *types.SinkError.
func (s *Shipper) Send(ctx context.Context, points []types.MetricPoint) error {
	body, err := json.Marshal(points)
	if err != nil {
		return &types.SinkError{URL: s.url, Err: fmt.Errorf("encode: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &types.SinkError{URL: s.url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return &types.SinkError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &types.SinkError{
			URL:        s.url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	slog.Debug("shipper: batch delivered",
		"points", len(points), "took", time.Since(start))
	return nil
}
