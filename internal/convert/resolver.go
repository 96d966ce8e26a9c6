package convert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kfreiman/docbridge/internal/catalog"
	"github.com/kfreiman/docbridge/internal/detect"
	"github.com/kfreiman/docbridge/internal/tempfile"
)

// ResolveRequest describes the raw input of a conversion before any
// fetching or detection has happened. Exactly one of URL and Content is set.
type ResolveRequest struct {
	URL          string
	Content      []byte
	Filename     string
	InputFormat  string
	OutputFormat string
}

// Resolution is the outcome of resolving a request: either a passthrough
// payload that needs no backend, or an Input ready for the candidate loop.
type Resolution struct {
	Input       *Input
	Passthrough bool
	Content     []byte
	Filename    string
}

// Cleanup releases any temp file the resolution holds.
func (r *Resolution) Cleanup() error {
	if r.Input == nil {
		return nil
	}
	return r.Input.Cleanup()
}

// Resolver turns uploads and URLs into conversion inputs. URL sources are
// either handed to a URL-capable backend directly or downloaded, sniffed,
// and spilled to a temp file.
type Resolver struct {
	fetcher *Fetcher
	files   *tempfile.Manager
	logger  *slog.Logger
}

func NewResolver(fetcher *Fetcher, files *tempfile.Manager, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{fetcher: fetcher, files: files, logger: logger}
}

// Resolve prepares a request for conversion.
//
// An input format of "url" means the caller only knows the source is a
// link: the effective format comes from detection after download, unless a
// backend can consume the URL directly for the requested output. A concrete
// declared format is trusted as-is; detection still runs and disagreements
// are logged but do not override the route the client chose.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	in := catalog.Normalize(req.InputFormat)
	out := catalog.Normalize(req.OutputFormat)

	if req.URL == "" && len(req.Content) == 0 {
		return nil, &InvalidRequestError{Reason: "no file content or URL provided"}
	}

	if req.URL != "" {
		return r.resolveURL(ctx, req.URL, in, out)
	}
	return r.resolveUpload(req.Content, req.Filename, in, out)
}

func (r *Resolver) resolveURL(ctx context.Context, rawURL, in, out string) (*Resolution, error) {
	// A URL whose extension already names the target format is served back
	// as-is. This must be decided before the direct-URL shortcut: handing
	// such a URL to a backend would re-render the original bytes.
	if in == "url" && detect.FormatFromURL(rawURL) == out {
		if !catalog.PassthroughEligible(out) {
			return nil, &InvalidRequestError{
				Reason: fmt.Sprintf("converting %s to itself is not supported", out),
			}
		}
		fetched, err := r.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		filename := FilenameForURL(fetched.FinalURL, fetched.Content, out)
		r.logger.Info("passthrough, source already in target format",
			"url", rawURL, "format", out, "bytes", len(fetched.Content))
		return &Resolution{Passthrough: true, Content: fetched.Content, Filename: filename}, nil
	}

	if in == "url" && directURLCandidate(out) {
		r.logger.Debug("routing URL directly to backend", "url", rawURL, "output_format", out)
		return &Resolution{
			Input: &Input{
				URL:    rawURL,
				Format: in,
				Meta:   Metadata{SourceURL: rawURL, DeclaredFormat: in, DirectURL: true},
			},
		}, nil
	}

	fetched, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	detected := detect.Format(fetched.Content, fetched.ContentType, fetched.FinalURL)
	effective := in
	if in == "url" {
		effective = detected
	} else if detected != in {
		r.logger.Debug("detected format differs from declared",
			"url", rawURL, "declared", in, "detected", detected)
	}

	filename := FilenameForURL(fetched.FinalURL, fetched.Content, effective)
	meta := Metadata{
		SourceURL:      rawURL,
		DeclaredFormat: in,
		DetectedFormat: detected,
		ContentType:    fetched.ContentType,
		FetchStatus:    fetched.Status,
		FetchBytes:     int64(len(fetched.Content)),
	}

	if effective == out && catalog.PassthroughEligible(out) {
		r.logger.Info("passthrough, source already in target format",
			"url", rawURL, "format", out, "bytes", len(fetched.Content))
		return &Resolution{Passthrough: true, Content: fetched.Content, Filename: filename}, nil
	}

	return r.spill(fetched.Content, filename, effective, meta)
}

func (r *Resolver) resolveUpload(content []byte, filename, in, out string) (*Resolution, error) {
	detected := detect.Format(content, "", filename)
	if detected != in {
		r.logger.Debug("detected format differs from declared",
			"filename", filename, "declared", in, "detected", detected)
	}

	if filename == "" {
		filename = fmt.Sprintf("upload.%s", in)
	}

	if in == out && catalog.PassthroughEligible(out) {
		return &Resolution{Passthrough: true, Content: content, Filename: filename}, nil
	}

	meta := Metadata{DeclaredFormat: in, DetectedFormat: detected}
	return r.spill(content, filename, in, meta)
}

func (r *Resolver) spill(content []byte, filename, format string, meta Metadata) (*Resolution, error) {
	handle, err := r.files.Create(content, filename, format)
	if err != nil {
		return nil, fmt.Errorf("staging input: %w", err)
	}
	return &Resolution{
		Input: &Input{
			File:     handle,
			Filename: filename,
			Format:   format,
			Meta:     meta,
		},
		Filename: filename,
	}, nil
}

// directURLCandidate reports whether some candidate for a url input can
// consume the URL without a local download.
func directURLCandidate(out string) bool {
	for _, candidate := range catalog.Candidates("url", out) {
		if catalog.CanHandleURLDirectly(candidate.Service, out) {
			return true
		}
	}
	return false
}
