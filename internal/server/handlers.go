package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/export"
	"github.com/joseph-ayodele/invoice-collator/internal/repository"
	"github.com/joseph-ayodele/invoice-collator/internal/selector"
	"github.com/joseph-ayodele/invoice-collator/internal/session"
)

// notices are the only user-facing texts for rejected selections.
var notices = map[string]string{
	"not_pdf":   "One or more selected files are not PDFs. Nothing was uploaded.",
	"no_files":  "Select at least one PDF.",
	"too_large": "The selected batch is too large.",
}

type indexView struct {
	Snapshot    session.Snapshot
	Notice      string
	LoadingText string
	Idle        bool
	Loading     bool
	Complete    bool
	Failed      bool
	Terminal    bool
}

func (s *Server) handleIndex(c echo.Context) error {
	snap := controllerFrom(c).Snapshot()
	view := indexView{
		Snapshot:    snap,
		Notice:      notices[c.QueryParam("notice")],
		LoadingText: session.MessageLoading,
		Idle:        snap.State == constants.RunStateIdle,
		Loading:     snap.State == constants.RunStateLoading,
		Complete:    snap.State == constants.RunStateComplete,
		Failed:      snap.State == constants.RunStateFailed,
		Terminal:    snap.State.Terminal(),
	}
	return c.Render(http.StatusOK, "index", view)
}

// handleUploadForm runs the workflow for a browser form post and sends the
// browser back to the screen for the resulting state.
func (s *Server) handleUploadForm(c echo.Context) error {
	_, err := s.selectFromRequest(c)
	if err == nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return c.Redirect(http.StatusSeeOther, "/?notice=too_large")
	case errors.Is(err, selector.ErrNotPDF):
		return c.Redirect(http.StatusSeeOther, "/?notice=not_pdf")
	case errors.Is(err, selector.ErrNoFiles):
		return c.Redirect(http.StatusSeeOther, "/?notice=no_files")
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrRunFinished):
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return err
}

func (s *Server) handleUploadAPI(c echo.Context) error {
	snap, err := s.selectFromRequest(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) selectFromRequest(c echo.Context) (session.Snapshot, error) {
	req := c.Request()
	if s.cfg.MaxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.MaxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return session.Snapshot{}, maxErr
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return session.Snapshot{}, NewBadRequestError("expected a multipart/form-data body")
		}
		return session.Snapshot{}, NewBadRequestError("invalid multipart body")
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File[constants.UploadField]
	if len(headers) == 0 {
		headers = form.File["files"]
	}
	return controllerFrom(c).Select(req.Context(), selector.FromMultipart(headers))
}

func (s *Server) handleResetForm(c echo.Context) error {
	if err := controllerFrom(c).Reset(c.Request().Context()); err != nil && !errors.Is(err, session.ErrBusy) {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleResetAPI(c echo.Context) error {
	ctrl := controllerFrom(c)
	if err := ctrl.Reset(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleDownload(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return NewBadRequestError(err.Error())
	}
	b, err := controllerFrom(c).Export(format)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", format.FileName(), url.PathEscape(format.FileName())))
	return c.Blob(http.StatusOK, format.ContentType(), b)
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, controllerFrom(c).Snapshot())
}

func (s *Server) handleRuns(c echo.Context) error {
	if s.journal == nil {
		return c.JSON(http.StatusOK, []any{})
	}
	events, err := s.journal.ListBySession(c.Request().Context(), controllerFrom(c).ID(), 100)
	if err != nil {
		return err
	}
	if events == nil {
		return c.JSON(http.StatusOK, []any{})
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleHealth(c echo.Context) error {
	status := map[string]any{"status": "ok", "sessions": s.sessions.Len()}
	if s.db != nil {
		if err := repository.HealthCheck(c.Request().Context(), s.db, 0); err != nil {
			s.logger.Error("health.journal.failed", "error", err)
			status["status"] = "degraded"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
	}
	return c.JSON(http.StatusOK, status)
}
