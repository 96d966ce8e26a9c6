package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kfreiman/docbridge/internal/detect"
	"github.com/kfreiman/docbridge/internal/retry"
)

// DefaultMaxFetchBytes caps downloaded resources at 50 MiB.
const DefaultMaxFetchBytes = 50 * 1024 * 1024

// fetchUserAgent mimics a browser because some document hosts refuse
// default Go client identification.
const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher downloads remote resources with size bounds and retry on
// transient failures.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	retryCfg retry.Config
}

// FetchResult is a downloaded resource plus the response metadata needed
// for format detection.
type FetchResult struct {
	Content     []byte
	ContentType string
	Status      int
	FinalURL    string
}

// NewFetcher builds a Fetcher. A nil client gets a 30 second timeout
// default; maxBytes <= 0 falls back to DefaultMaxFetchBytes.
func NewFetcher(client *http.Client, maxBytes int64, retryCfg retry.Config) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFetchBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes, retryCfg: retryCfg}
}

// Fetch downloads rawURL, retrying transient upstream failures. Responses
// larger than the configured cap abort with PayloadTooLargeError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unsupported URL %q", rawURL), Err: err}
	}

	var result *FetchResult
	err = retry.Do(ctx, f.retryCfg, func(attempt int) error {
		fetched, fetchErr := f.fetchOnce(ctx, rawURL)
		if fetchErr != nil {
			return fetchErr
		}
		result = fetched
		return nil
	})
	if err != nil {
		var tooLarge *PayloadTooLargeError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		var invalid *InvalidRequestError
		if errors.As(err, &invalid) {
			return nil, invalid
		}
		return nil, &UpstreamUnavailableError{Err: fmt.Errorf("fetching %s: %w", rawURL, err)}
	}
	return result, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drainBody(resp.Body)
		if retry.RetryableStatus(resp.StatusCode) {
			return nil, &retry.TransientError{Status: resp.StatusCode, Err: fmt.Errorf("fetching %s", rawURL)}
		}
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("resource at %s returned status %d", rawURL, resp.StatusCode)}
	}

	if resp.ContentLength > f.maxBytes {
		return nil, &PayloadTooLargeError{URL: rawURL, MaxBytes: f.maxBytes}
	}

	// Read one byte past the cap so an unreported oversize body is still
	// caught instead of silently truncated.
	content, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > f.maxBytes {
		return nil, &PayloadTooLargeError{URL: rawURL, MaxBytes: f.maxBytes}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		Content:     content,
		ContentType: resp.Header.Get("Content-Type"),
		Status:      resp.StatusCode,
		FinalURL:    finalURL,
	}, nil
}

// FilenameForURL derives the multipart filename for a downloaded resource.
// The URL's own basename wins when it carries an extension; otherwise a
// short content hash is combined with the detected format.
func FilenameForURL(rawURL string, content []byte, format string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		base := path.Base(parsed.Path)
		if base != "" && base != "/" && base != "." && strings.Contains(base, ".") {
			return base
		}
	}
	sum := sha256.Sum256(content)
	ext := format
	if ext == "" {
		ext = detect.DefaultFormat
	}
	return fmt.Sprintf("url_content_%s.%s", hex.EncodeToString(sum[:])[:8], ext)
}

func drainBody(body io.Reader) {
	io.Copy(io.Discard, io.LimitReader(body, 4096))
}
