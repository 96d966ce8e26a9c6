package convert

import (
	"fmt"
	"strings"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// Severity grades an error for the response envelope and log level.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// InvalidRequestError covers malformed client input: missing file, bad URL,
// unknown format pair, unknown service override.
type InvalidRequestError struct {
	Reason string
	Err    error
}

func (e *InvalidRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

func (e *InvalidRequestError) Unwrap() error { return e.Err }

// PayloadTooLargeError reports a remote resource that exceeded the fetch cap.
type PayloadTooLargeError struct {
	URL      string
	MaxBytes int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("resource at %s exceeds the %d byte limit", e.URL, e.MaxBytes)
}

// UpstreamUnavailableError reports that a backend could not be reached or
// kept failing with transient statuses until the retry budget ran out. An
// empty Service means the failing upstream was the fetched URL itself.
type UpstreamUnavailableError struct {
	Service catalog.Service
	Err     error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("upstream unavailable: %v", e.Err)
	}
	return fmt.Sprintf("service %s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// UpstreamRejectedError reports a definitive non-2xx backend verdict that is
// not worth retrying. The candidate loop advances past it.
type UpstreamRejectedError struct {
	Service catalog.Service
	Status  int
	Body    string
}

func (e *UpstreamRejectedError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("service %s rejected the request (status %d): %s", e.Service, e.Status, strings.TrimSpace(body))
}

// ContentMismatchError reports a 2xx backend response whose body does not
// look like the requested output format, typically an HTML error page.
type ContentMismatchError struct {
	Service      catalog.Service
	OutputFormat string
	ContentType  string
}

func (e *ContentMismatchError) Error() string {
	return fmt.Sprintf("service %s returned %q instead of %s content", e.Service, e.ContentType, e.OutputFormat)
}

// ChainStepError reports which step of a multi-step conversion failed.
type ChainStepError struct {
	Step  int
	Total int
	From  string
	To    string
	Err   error
}

func (e *ChainStepError) Error() string {
	return fmt.Sprintf("chain step %d/%d (%s-%s) failed: %v", e.Step, e.Total, e.From, e.To, e.Err)
}

func (e *ChainStepError) Unwrap() error { return e.Err }

// AllServicesFailedError reports that every candidate for a conversion pair
// failed. LastErr carries the final candidate's error for the envelope.
type AllServicesFailedError struct {
	InputFormat  string
	OutputFormat string
	Attempted    []catalog.Service
	LastErr      error
}

func (e *AllServicesFailedError) Error() string {
	names := make([]string, len(e.Attempted))
	for i, svc := range e.Attempted {
		names[i] = string(svc)
	}
	return fmt.Sprintf("all services failed for %s-%s (tried %s): %v",
		e.InputFormat, e.OutputFormat, strings.Join(names, ", "), e.LastErr)
}

func (e *AllServicesFailedError) Unwrap() error { return e.LastErr }
