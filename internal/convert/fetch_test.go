package convert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Run("downloads content with headers", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 body"))
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 0, testRetry)
		result, err := fetcher.Fetch(context.Background(), srv.URL+"/doc.pdf")
		require.NoError(t, err)

		assert.Equal(t, []byte("%PDF-1.4 body"), result.Content)
		assert.Equal(t, "application/pdf", result.ContentType)
		assert.Equal(t, http.StatusOK, result.Status)
		assert.Contains(t, gotUA, "Mozilla", "document hosts expect a browser user agent")
	})

	t.Run("retries 503 and succeeds", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("finally"))
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 0, testRetry)
		result, err := fetcher.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, []byte("finally"), result.Content)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 0, testRetry)
		_, err := fetcher.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
		assert.Equal(t, int32(3), calls.Load())

		var unavailable *UpstreamUnavailableError
		require.ErrorAs(t, err, &unavailable)
		status, severity, _ := Classify(err)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, SeverityHigh, severity)
	})

	t.Run("unreachable host surfaces as upstream unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		fetcher := NewFetcher(&http.Client{}, 0, testRetry)
		_, err := fetcher.Fetch(context.Background(), srv.URL)

		var unavailable *UpstreamUnavailableError
		require.ErrorAs(t, err, &unavailable)
		status, _, _ := Classify(err)
		assert.Equal(t, http.StatusBadGateway, status)
	})

	t.Run("non-retryable status fails immediately", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 0, testRetry)
		_, err := fetcher.Fetch(context.Background(), srv.URL)
		var invalid *InvalidRequestError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("rejects oversized content-length", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "1000")
			w.Write(make([]byte, 1000))
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 100, testRetry)
		_, err := fetcher.Fetch(context.Background(), srv.URL)
		var tooLarge *PayloadTooLargeError
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, int64(100), tooLarge.MaxBytes)
	})

	t.Run("rejects oversized body without content-length", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			w.Write([]byte("chunk"))
			flusher.Flush()
			w.Write(make([]byte, 200))
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 100, testRetry)
		_, err := fetcher.Fetch(context.Background(), srv.URL)
		var tooLarge *PayloadTooLargeError
		assert.ErrorAs(t, err, &tooLarge)
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		fetcher := NewFetcher(nil, 0, testRetry)
		_, err := fetcher.Fetch(context.Background(), "ftp://example.com/doc.pdf")
		var invalid *InvalidRequestError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("follows redirects and reports the final URL", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/start" {
				http.Redirect(w, r, srv.URL+"/final.pdf", http.StatusFound)
				return
			}
			w.Write([]byte("%PDF-1.4"))
		}))
		defer srv.Close()

		fetcher := NewFetcher(srv.Client(), 0, testRetry)
		result, err := fetcher.Fetch(context.Background(), srv.URL+"/start")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(result.FinalURL, "/final.pdf"))
	})
}

func TestFilenameForURL(t *testing.T) {
	t.Run("uses the URL basename when it has an extension", func(t *testing.T) {
		name := FilenameForURL("https://example.com/reports/q3.pdf?v=2", []byte("x"), "pdf")
		assert.Equal(t, "q3.pdf", name)
	})

	t.Run("hashes the content when the URL has no extension", func(t *testing.T) {
		name := FilenameForURL("https://example.com/reports/", []byte("stable input"), "html")
		assert.True(t, strings.HasPrefix(name, "url_content_"))
		assert.True(t, strings.HasSuffix(name, ".html"))

		again := FilenameForURL("https://example.com/other", []byte("stable input"), "html")
		assert.Equal(t, name, again, "same content must hash to the same name")
	})
}
