package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
)

// Upload sends every file in one multipart request under the repeated files[]
// field. The body is built fresh on each call. A 2xx answer must carry JSON,
// which is returned as-is.
func (c *Client) Upload(ctx context.Context, files []entity.SelectedFile) (json.RawMessage, error) {
	if len(files) == 0 {
		return nil, errors.New("upload: no files")
	}

	body, contentType, err := buildMultipart(files)
	if err != nil {
		return nil, &TransportError{Endpoint: constants.PathProcessMultiple, Err: err}
	}

	c.logger.Info("client.upload.start", "files", len(files), "bytes", body.Len())
	raw, status, err := c.send(ctx, http.MethodPost, constants.PathProcessMultiple, body, contentType)
	if err != nil {
		return nil, err
	}
	if err := c.classify(constants.PathProcessMultiple, status, raw); err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, &ParseError{Endpoint: constants.PathProcessMultiple, Err: errors.New("invalid JSON")}
	}
	c.logger.Info("client.upload.ok", "files", len(files), "status", status)
	return json.RawMessage(raw), nil
}

func buildMultipart(files []entity.SelectedFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(constants.UploadField, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}
