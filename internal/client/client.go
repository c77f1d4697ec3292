package client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for the extraction service client.
type Config struct {
	BaseURL string        // e.g. https://extract.example.com
	APIKey  string        // sent as x-api-key
	Timeout time.Duration // http client timeout
}

// Client talks to the remote extraction service: one batch upload endpoint and
// one processed-results endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) url(path string) string {
	return c.cfg.BaseURL + path
}
