package constants

import "strings"

// MIMEPDF is the only declared content type accepted for a batch.
const MIMEPDF = "application/pdf"

// UploadField is the repeated multipart field every file is attached under.
const UploadField = "files[]"

// APIKeyHeader carries the extraction service key on every request.
const APIKeyHeader = "x-api-key"

// Endpoint paths relative to the configured server URL.
const (
	PathProcessMultiple = "/process-multiple"
	PathProcessed       = "/processed"
)

// AllowedExtensions holds the file extensions picked up when a directory is expanded.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMIME strips parameters and lowercases a declared content type.
func NormalizeMIME(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
