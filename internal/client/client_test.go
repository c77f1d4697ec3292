package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
)

const testKey = "secret-key"

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: testKey}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, srv
}

func pdfFiles(names ...string) []entity.SelectedFile {
	out := make([]entity.SelectedFile, 0, len(names))
	for _, n := range names {
		content := []byte("%PDF-1.4 " + n)
		out = append(out, entity.SelectedFile{Name: n, ContentType: constants.MIMEPDF, Size: len(content), Content: content})
	}
	return out
}

func TestUpload_SendsAllFilesUnderRepeatedField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, constants.PathProcessMultiple, r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get(constants.APIKeyHeader))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		parts := r.MultipartForm.File[constants.UploadField]
		require.Len(t, parts, 2)
		assert.Equal(t, "a.pdf", parts[0].Filename)
		assert.Equal(t, "b.pdf", parts[1].Filename)

		f, err := parts[1].Open()
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4 b.pdf", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"queued":2}`))
	})

	ack, err := c.Upload(context.Background(), pdfFiles("a.pdf", "b.pdf"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"queued":2}`, string(ack))
}

func TestUpload_BuildsFreshBodyPerCall(t *testing.T) {
	var counts []int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		counts = append(counts, len(r.MultipartForm.File[constants.UploadField]))
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Upload(context.Background(), pdfFiles("a.pdf", "b.pdf"))
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), pdfFiles("c.pdf"))
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, counts)
}

func TestUpload_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, IsUnauthorized(err))
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
				assert.ErrorIs(t, err, common.ErrTransport)
				assert.False(t, IsUnauthorized(err))
			},
		},
		{
			name:   "forbidden is a plain failure",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.False(t, IsUnauthorized(err))
			},
		},
		{
			name:   "success without json",
			status: http.StatusOK,
			body:   "<html>ok</html>",
			check: func(t *testing.T, err error) {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.ErrorIs(t, err, common.ErrParse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ack, err := c.Upload(context.Background(), pdfFiles("a.pdf"))
			require.Error(t, err)
			assert.Nil(t, ack)
			tt.check(t, err)
		})
	}
}

func TestUpload_TransportError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Upload(context.Background(), pdfFiles("a.pdf"))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestUpload_NoFiles(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	_, err := c.Upload(context.Background(), nil)

	require.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestFetchProcessed_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, constants.PathProcessed, r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get(constants.APIKeyHeader))
		_, _ = w.Write([]byte(`[{"name":"a.pdf","data":"{\"entities\":[]}"},{"name":"b.pdf","data":{"x":1}},{"data":"{}"}]`))
	})

	results, err := c.FetchProcessed(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	data, ok := results[0].DataString()
	assert.True(t, ok)
	assert.Equal(t, `{"entities":[]}`, data)
	assert.Equal(t, "a.pdf", results[0].Name)

	_, ok = results[1].DataString()
	assert.False(t, ok)

	assert.Equal(t, "", results[2].Name)
}

func TestFetchProcessed_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "empty body is a parse failure",
			status: http.StatusOK,
			body:   "",
			check: func(t *testing.T, err error) {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.ErrorIs(t, err, ErrEmptyBody)
			},
		},
		{
			name:   "whitespace body is a parse failure",
			status: http.StatusOK,
			body:   "  \n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyBody)
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `[{"name":`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrParse)
			},
		},
		{
			name:   "object instead of list",
			status: http.StatusOK,
			body:   `{"name":"a.pdf"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrParse)
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, IsUnauthorized(err))
			},
		},
		{
			name:   "bad gateway",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, constants.PathProcessed, se.Endpoint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			results, err := c.FetchProcessed(context.Background())
			require.Error(t, err)
			assert.Nil(t, results)
			tt.check(t, err)
		})
	}
}

func TestErrors_Classification(t *testing.T) {
	assert.False(t, errors.Is(&StatusError{StatusCode: 500}, ErrUnauthorized))
	assert.True(t, errors.Is(&ParseError{Err: ErrEmptyBody}, ErrEmptyBody))
}
