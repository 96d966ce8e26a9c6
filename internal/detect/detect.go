// Package detect sniffs the true document format of a payload from its
// bytes, its content-type header, and its URL, in that priority order.
// Detection is a pure function of its inputs so results are reproducible.
package detect

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// DefaultFormat is assumed for web content when nothing else matches.
const DefaultFormat = "html"

// Format determines the document format of a payload.
//
// Priority order:
//  1. content sniffing (magic bytes, HTML tags, JSON parse, mimetype library)
//  2. the content-type header via the static MIME table
//  3. the URL's path extension via the same table
//  4. DefaultFormat
//
// Content sniffing deliberately outranks the header: servers routinely
// mislabel payloads, and the bytes do not lie.
func Format(content []byte, contentType, rawURL string) string {
	if len(content) > 0 {
		if format := sniffContent(content); format != "" {
			return format
		}
	}
	if contentType != "" {
		if format := FormatForMIME(contentType); format != "" {
			return format
		}
	}
	if rawURL != "" {
		if format := formatFromExtension(rawURL); format != "" {
			return format
		}
	}
	return DefaultFormat
}

// FormatFromURL guesses a format from the URL path extension alone. Used
// before any bytes have been fetched. Defaults to DefaultFormat for
// extension-less web URLs.
func FormatFromURL(rawURL string) string {
	if format := formatFromExtension(rawURL); format != "" {
		return format
	}
	return DefaultFormat
}

func formatFromExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return ""
	}
	format := catalog.Normalize(ext)
	if _, known := formatToMIME[format]; known {
		return format
	}
	return ""
}

// sniffContent inspects payload bytes. Hand-rolled checks for the formats the
// routing engine cares most about run first; the mimetype library covers the
// long tail of binary signatures.
func sniffContent(content []byte) string {
	if len(content) >= 5 && string(content[:5]) == "%PDF-" {
		return "pdf"
	}

	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := strings.ToLower(string(head))
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype html") {
		return "html"
	}

	if looksLikeJSON(content) {
		return "json"
	}

	if format := FormatForMIME(mimetype.Detect(content).String()); format != "" {
		// mimetype reports text/plain for most prose; that is too weak a
		// signal to outrank the header or the URL extension.
		if format != "txt" {
			return format
		}
	}
	return ""
}

func looksLikeJSON(content []byte) bool {
	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid([]byte(trimmed))
}
