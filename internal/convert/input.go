package convert

import (
	"github.com/kfreiman/docbridge/internal/tempfile"
)

// Input is the resolved source of a conversion. Exactly one of URL and File
// is set: URL when the source is a remote resource a backend can fetch
// itself, File when the content has been materialized into a temp file.
type Input struct {
	// URL is set for direct-URL conversions that skip the local fetch.
	URL string

	// File holds downloaded or uploaded content. Nil for direct-URL inputs.
	File *tempfile.Handle

	// Filename is the name presented to backends in multipart uploads.
	Filename string

	// Format is the effective input format after detection.
	Format string

	Meta Metadata
}

// Metadata records how the input was resolved, for logging and diagnostics.
type Metadata struct {
	SourceURL      string
	DeclaredFormat string
	DetectedFormat string
	ContentType    string
	FetchStatus    int
	FetchBytes     int64
	DirectURL      bool
}

// IsURL reports whether the input is a direct URL handed to the backend.
func (in *Input) IsURL() bool {
	return in.URL != "" && in.File == nil
}

// Content returns the materialized bytes. Only valid for file inputs.
func (in *Input) Content() ([]byte, error) {
	return in.File.Read()
}

// Cleanup releases the temp file, if any. Safe to call more than once.
func (in *Input) Cleanup() error {
	if in.File == nil {
		return nil
	}
	return in.File.Cleanup()
}
