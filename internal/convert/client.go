package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kfreiman/docbridge/internal/catalog"
	"github.com/kfreiman/docbridge/internal/retry"
)

// Backend is one conversion service. Convert performs a single attempt;
// transient failures come back wrapped in retry.TransientError so the
// engine's retry loop can tell them from definitive rejections.
type Backend interface {
	Service() catalog.Service
	Convert(ctx context.Context, in *Input, step catalog.Step) ([]byte, string, error)
	Ping(ctx context.Context) error
}

// serviceClient is the HTTP plumbing shared by the adapters.
type serviceClient struct {
	service catalog.Service
	baseURL string
	client  *http.Client
}

func newServiceClient(service catalog.Service, baseURL string, client *http.Client) serviceClient {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return serviceClient{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// filePart describes one file in a multipart upload.
type filePart struct {
	field    string
	filename string
	content  []byte
}

// postMultipart uploads files and form fields, returning the response body
// and content type. Retryable upstream statuses become TransientError;
// other non-2xx statuses become UpstreamRejectedError.
func (c *serviceClient) postMultipart(ctx context.Context, path string, files []filePart, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("building upload: %w", err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("building upload: %w", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("building upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *serviceClient) do(req *http.Request) ([]byte, string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", &UpstreamUnavailableError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &UpstreamUnavailableError{Service: c.service, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if retry.RetryableStatus(resp.StatusCode) {
			return nil, "", &retry.TransientError{
				Status: resp.StatusCode,
				Err:    fmt.Errorf("%s returned status %d", c.service, resp.StatusCode),
			}
		}
		return nil, "", &UpstreamRejectedError{Service: c.service, Status: resp.StatusCode, Body: string(body)}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// ping issues a GET and reports the status code without judging it; each
// service has its own idea of what a healthy probe answer looks like.
func (c *serviceClient) ping(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &UpstreamUnavailableError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()
	drainBody(resp.Body)
	return resp.StatusCode, nil
}

func healthStatus(service catalog.Service, status int, allowed ...int) error {
	for _, ok := range allowed {
		if status == ok {
			return nil
		}
	}
	return &UpstreamUnavailableError{
		Service: service,
		Err:     fmt.Errorf("health probe returned unexpected status %d", status),
	}
}
