package detect

import (
	"strings"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// formatToMIME is the static format→MIME table used for response
// content-types and header-based detection. Response content types come from
// this table, never from a backend header alone.
var formatToMIME = map[string]string{
	// Document formats
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":  "application/vnd.oasis.opendocument.text",
	"ods":  "application/vnd.oasis.opendocument.spreadsheet",
	"odp":  "application/vnd.oasis.opendocument.presentation",
	"rtf":  "application/rtf",
	"epub": "application/epub+zip",

	// Text formats
	"txt":  "text/plain",
	"html": "text/html",
	"md":   "text/markdown",
	"tex":  "application/x-tex",

	// Apple formats
	"pages":   "application/vnd.apple.pages",
	"numbers": "application/vnd.apple.numbers",
	"key":     "application/vnd.apple.keynote",

	// Email formats
	"eml": "message/rfc822",
	"msg": "application/vnd.ms-outlook",

	// Archive formats
	"zip": "application/zip",

	// Image formats
	"png": "image/png",
	"jpg": "image/jpeg",
	"gif": "image/gif",
	"bmp": "image/bmp",
	"tif": "image/tiff",

	// Structured data
	"json": "application/json",
	"xml":  "application/xml",
	"csv":  "text/csv",
}

var mimeToFormat = func() map[string]string {
	m := make(map[string]string, len(formatToMIME))
	for format, mime := range formatToMIME {
		m[mime] = format
	}
	// Common variants not covered by the reverse mapping.
	m["application/xhtml+xml"] = "html"
	m["text/x-markdown"] = "md"
	m["text/x-tex"] = "tex"
	return m
}()

// MIMEForFormat returns the canonical content type for a format, falling back
// to application/octet-stream for unknown formats.
func MIMEForFormat(format string) string {
	if mime, ok := formatToMIME[catalog.Normalize(format)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// FormatForMIME maps a content-type header value to a format name, ignoring
// parameters like charset. Returns "" when the type is unknown.
func FormatForMIME(contentType string) string {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return catalog.Normalize(mimeToFormat[mime])
}

// CompatibleMIME reports whether a backend's declared content type is
// plausible for the requested output format. The engine uses this to catch
// disguised errors: an HTML error page delivered with HTTP 200 in place of
// the PDF that was asked for. Octet-stream and empty headers are accepted
// since several backends never set a specific type.
func CompatibleMIME(contentType, outputFormat string) bool {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" {
		return true
	}
	format := catalog.Normalize(outputFormat)
	if mimeToFormat[mime] == format {
		return true
	}
	// Text-family outputs tolerate any text/* declaration: backends disagree
	// on text/markdown vs text/plain vs text/x-markdown.
	switch format {
	case "txt", "md", "html", "tex", "csv":
		return strings.HasPrefix(mime, "text/")
	case "json":
		return strings.HasSuffix(mime, "+json")
	}
	return false
}
