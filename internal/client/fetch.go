package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
	"github.com/joseph-ayodele/invoice-collator/internal/schema"
)

// FetchProcessed retrieves the processed results. An empty 2xx body is a parse
// failure, never an empty result set.
func (c *Client) FetchProcessed(ctx context.Context) ([]entity.ProcessingResult, error) {
	raw, status, err := c.send(ctx, http.MethodGet, constants.PathProcessed, nil, "")
	if err != nil {
		return nil, err
	}
	if err := c.classify(constants.PathProcessed, status, raw); err != nil {
		return nil, err
	}

	results, err := DecodeProcessed(raw)
	if err != nil {
		c.logger.Error("client.fetch.parse_error", "error", err, "bytes", len(raw))
		return nil, err
	}
	c.logger.Info("client.fetch.ok", "results", len(results))
	return results, nil
}

// DecodeProcessed parses a processed endpoint body.
func DecodeProcessed(raw []byte) ([]entity.ProcessingResult, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Endpoint: constants.PathProcessed, Err: ErrEmptyBody}
	}
	if err := schema.ValidateJSON(schema.ProcessedResponse, raw); err != nil {
		return nil, &ParseError{Endpoint: constants.PathProcessed, Err: err}
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &ParseError{Endpoint: constants.PathProcessed, Err: err}
	}
	out := make([]entity.ProcessingResult, 0, len(records))
	for _, r := range records {
		var name string
		// a non-string name leaves the filename blank, as the record itself is still usable
		_ = json.Unmarshal(r["name"], &name)
		out = append(out, entity.ProcessingResult{Name: name, Data: r["data"]})
	}
	return out, nil
}
