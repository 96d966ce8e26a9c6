package catalog

import "strings"

// formatAliases maps equivalent format names onto the canonical one used as
// matrix keys. Detection and lookup both go through Normalize, so "latex" and
// "tex" hit the same catalog rows.
var formatAliases = map[string]string{
	"latex":    "tex",
	"htm":      "html",
	"markdown": "md",
	"doc":      "docx",
	"jpeg":     "jpg",
	"tiff":     "tif",
}

// Normalize lowercases a format name and resolves known aliases.
func Normalize(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	if canonical, ok := formatAliases[f]; ok {
		return canonical
	}
	return f
}

// passthroughFormats is the closed set of formats that may be returned
// unconverted when a URL's detected format already matches the requested
// output. Binary office formats are deliberately excluded: requesting
// docx output for a docx URL is treated as an invalid no-op request.
var passthroughFormats = map[string]bool{
	"html": true,
	"pdf":  true,
	"md":   true,
	"txt":  true,
	"json": true,
}

// PassthroughEligible reports whether a format may be served back unconverted.
func PassthroughEligible(format string) bool {
	return passthroughFormats[Normalize(format)]
}
