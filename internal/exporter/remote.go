// Package exporter implements the two-tier delivery pipeline: remote
// spreadsheet webhook first, local snapshot on any remote failure.
package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ack is the acknowledgement shape returned by the spreadsheet webhook.
type Ack struct {
	Status  string `json:"status"` // "success" or "error"
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// RemoteSink posts the full dataset as a JSON array to the configured
// endpoint. Only a confirmed success acknowledgement counts as delivered.
type RemoteSink struct {
	endpoint string
	client   *http.Client
}

func NewRemoteSink(endpoint string, timeout time.Duration) *RemoteSink {
	return &RemoteSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send delivers the serialized dataset and returns the acknowledged row
// count. Unreachable endpoint, non-2xx response, malformed acknowledgement
// and error acknowledgement are all delivery failures.
func (s *RemoteSink) Send(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("deliver to %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("remote sink responded %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read delivery acknowledgement: %w", err)
	}

	var ack Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		return 0, fmt.Errorf("malformed delivery acknowledgement: %w", err)
	}
	if ack.Status != "success" {
		return 0, fmt.Errorf("remote sink rejected dataset: %s", ack.Message)
	}
	return ack.Count, nil
}
