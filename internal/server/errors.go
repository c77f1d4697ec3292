package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

// APIError is the JSON error body of the /api routes.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
}

// toAPIError maps domain errors onto HTTP statuses. Only the AppError message
// is exposed; causes stay in the log.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return &APIError{Status: http.StatusRequestEntityTooLarge, Code: "TOO_LARGE", Message: "the batch is too large"}
	case errors.Is(err, selector.ErrNotPDF):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: selector.ErrNotPDF.Code, Message: selector.ErrNotPDF.Message}
	case errors.Is(err, selector.ErrNoFiles):
		return &APIError{Status: http.StatusBadRequest, Code: selector.ErrNoFiles.Code, Message: selector.ErrNoFiles.Message}
	case errors.Is(err, session.ErrBusy):
		return &APIError{Status: http.StatusConflict, Code: session.ErrBusy.Code, Message: session.ErrBusy.Message}
	case errors.Is(err, session.ErrRunFinished):
		return &APIError{Status: http.StatusConflict, Code: session.ErrRunFinished.Code, Message: session.ErrRunFinished.Message}
	case errors.Is(err, session.ErrNothingToExport):
		return &APIError{Status: http.StatusNotFound, Code: session.ErrNothingToExport.Code, Message: session.ErrNothingToExport.Message}
	case errors.Is(err, common.ErrInvalidInput):
		return &APIError{Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: "invalid input"}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &APIError{Status: he.Code, Code: "HTTP_ERROR", Message: fmt.Sprintf("%v", he.Message)}
	}
	return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"}
}

// errorHandler renders every unhandled error as an APIError.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		apiErr := toAPIError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("http.error", "path", c.Path(), "error", err)
		}
		if err := c.JSON(apiErr.Status, apiErr); err != nil {
			logger.Warn("http.error.write_failed", "error", err)
		}
	}
}
