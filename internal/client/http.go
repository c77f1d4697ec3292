package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/common"
)

// send issues one request with the API key header and returns the raw body and
// status. Only transport failures are returned as errors; status codes are
// classified by the caller.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, int, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()
	url := c.url(path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("client.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, &TransportError{Endpoint: path, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set(constants.APIKeyHeader, c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Info("client.http.request",
		"req_id", reqID,
		"run_id", common.RunIDFromContext(ctx),
		"method", method,
		"url", url,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("client.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, &TransportError{Endpoint: path, Err: err}
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("client.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("client.http.read_error", "req_id", reqID, "error", err)
		return nil, resp.StatusCode, &TransportError{Endpoint: path, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Info("client.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, nil
}

// classify maps a status code onto the unauthorized/failure outcomes shared by both endpoints.
func (c *Client) classify(path string, status int, raw []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		c.logger.Warn("client.unauthorized", "endpoint", path)
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case status/100 == 2:
		return nil
	default:
		return &StatusError{Endpoint: path, StatusCode: status, Body: truncate(string(raw), 256)}
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
