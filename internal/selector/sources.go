package selector

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joseph-ayodele/invoice-collator/constants"
)

// FromMultipart turns uploaded form parts into candidates. The declared type
// is the part's own Content-Type header.
func FromMultipart(headers []*multipart.FileHeader) []Candidate {
	out := make([]Candidate, 0, len(headers))
	for _, h := range headers {
		h := h
		out = append(out, Candidate{
			Name:        h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return h.Open()
			},
		})
	}
	return out
}

// FromPaths turns local paths into candidates. Glob patterns (doublestar
// syntax, "**" included) expand first. Directories expand to the PDF files
// beneath them, hidden entries skipped; files named explicitly or matched by a
// pattern are kept whatever their extension so a stray non-PDF still rejects
// the batch.
func FromPaths(args []string) ([]Candidate, error) {
	paths, err := expandPatterns(args)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			c, err := fileCandidate(p)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path != p && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
				return nil
			}
			c, err := fileCandidate(path)
			if err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoFiles
	}
	return out, nil
}

// expandPatterns replaces every argument holding glob metacharacters with its
// sorted matches. A pattern matching nothing is an error.
func expandPatterns(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			continue
		}
		if !strings.ContainsAny(a, "*?[{") {
			out = append(out, a)
			continue
		}
		matches, err := doublestar.FilepathGlob(a)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", a, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %s: no matching files", a)
		}
		for _, m := range matches {
			if IsHidden(m) {
				continue
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func fileCandidate(path string) (Candidate, error) {
	ct, err := sniff(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("sniff %s: %w", path, err)
	}
	return Candidate{
		Name:        filepath.Base(path),
		ContentType: ct,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// sniff derives the declared type of a local file from its leading bytes.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// AllowedExt checks if a file extension is picked up by directory expansion.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
