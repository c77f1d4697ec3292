package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not pdf", fmt.Errorf("%w: x.txt", selector.ErrNotPDF), http.StatusUnprocessableEntity, "NOT_PDF"},
		{"no files", selector.ErrNoFiles, http.StatusBadRequest, "NO_FILES"},
		{"busy", session.ErrBusy, http.StatusConflict, "BUSY"},
		{"finished", session.ErrRunFinished, http.StatusConflict, "RUN_FINISHED"},
		{"nothing to export", session.ErrNothingToExport, http.StatusNotFound, "NOTHING_TO_EXPORT"},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "TOO_LARGE"},
		{"invalid input", common.NewAppError("READ_ERROR", "read a.pdf", common.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{"bad request", NewBadRequestError("nope"), http.StatusBadRequest, "BAD_REQUEST"},
		{"echo", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAPIError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotContains(t, got.Message, "db down")
		})
	}
}
