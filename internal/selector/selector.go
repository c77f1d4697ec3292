package selector

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/invoice-collator/constants"
	"github.com/joseph-ayodele/invoice-collator/internal/common"
	"github.com/joseph-ayodele/invoice-collator/internal/entity"
)

var (
	// ErrNotPDF rejects a batch containing any file whose declared type is not PDF.
	ErrNotPDF = common.NewAppError("NOT_PDF", "one or more selected files are not PDFs", common.ErrInvalidInput)
	// ErrNoFiles is returned for an empty selection.
	ErrNoFiles = common.NewAppError("NO_FILES", "no files selected", common.ErrInvalidInput)
)

// Candidate is a user-chosen file before it is accepted into a selection.
type Candidate struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Selector validates candidates and materializes them in memory.
type Selector struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{logger: logger}
}

// Select accepts the whole batch or nothing: any non-PDF declared type rejects it.
// Accepted files are read fully into memory, in candidate order.
func (s *Selector) Select(candidates []Candidate) ([]entity.SelectedFile, error) {
	if len(candidates) == 0 {
		return nil, ErrNoFiles
	}

	var rejected []string
	for _, c := range candidates {
		if constants.NormalizeMIME(c.ContentType) != constants.MIMEPDF {
			rejected = append(rejected, c.Name)
		}
	}
	if len(rejected) > 0 {
		s.logger.Warn("selector.reject",
			"files", len(candidates),
			"rejected", rejected,
		)
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, strings.Join(rejected, ", "))
	}

	out := make([]entity.SelectedFile, 0, len(candidates))
	for _, c := range candidates {
		content, err := readAll(c)
		if err != nil {
			s.logger.Error("selector.read_error", "file", c.Name, "error", err)
			return nil, common.NewAppError("READ_ERROR", fmt.Sprintf("read %s", c.Name), err)
		}
		out = append(out, entity.SelectedFile{
			Name:        c.Name,
			ContentType: constants.MIMEPDF,
			Size:        len(content),
			Pages:       countPages(content),
			Content:     content,
		})
	}

	s.logger.Info("selector.accept", "files", len(out))
	return out, nil
}

func readAll(c Candidate) ([]byte, error) {
	if c.Open == nil {
		return nil, errors.New("no content")
	}
	rc, err := c.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// countPages is best-effort; an unreadable PDF reports 0 pages and is still accepted.
func countPages(content []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
