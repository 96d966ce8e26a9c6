package convert

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfreiman/docbridge/internal/catalog"
)

func TestErrorMessages(t *testing.T) {
	t.Run("rejection truncates long bodies", func(t *testing.T) {
		body := make([]byte, 500)
		for i := range body {
			body[i] = 'x'
		}
		err := &UpstreamRejectedError{Service: catalog.ServicePandoc, Status: 422, Body: string(body)}
		assert.Less(t, len(err.Error()), 300)
	})

	t.Run("chain step errors unwrap to the cause", func(t *testing.T) {
		cause := &UpstreamRejectedError{Service: catalog.ServicePandoc, Status: 422}
		err := &ChainStepError{Step: 2, Total: 2, From: "docx", To: "md", Err: cause}

		var rejected *UpstreamRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, catalog.ServicePandoc, rejected.Service)
		assert.Contains(t, err.Error(), "step 2/2")
	})

	t.Run("all services failed lists the attempted services", func(t *testing.T) {
		err := &AllServicesFailedError{
			InputFormat:  "md",
			OutputFormat: "pdf",
			Attempted:    []catalog.Service{catalog.ServicePandoc, catalog.ServiceLibreOffice},
			LastErr:      errors.New("boom"),
		}
		assert.Contains(t, err.Error(), "pandoc, libreoffice")
		assert.Contains(t, err.Error(), "md-pdf")
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantSeverity Severity
		wantService  catalog.Service
	}{
		{
			name:         "invalid request",
			err:          &InvalidRequestError{Reason: "no file"},
			wantStatus:   http.StatusBadRequest,
			wantSeverity: SeverityLow,
		},
		{
			name:         "payload too large",
			err:          &PayloadTooLargeError{URL: "http://x", MaxBytes: 10},
			wantStatus:   http.StatusRequestEntityTooLarge,
			wantSeverity: SeverityMedium,
		},
		{
			name: "all services failed",
			err: &AllServicesFailedError{
				Attempted: []catalog.Service{catalog.ServicePandoc},
				LastErr:   errors.New("x"),
			},
			wantStatus:   http.StatusBadGateway,
			wantSeverity: SeverityCritical,
			wantService:  catalog.ServicePandoc,
		},
		{
			name:         "upstream unavailable",
			err:          &UpstreamUnavailableError{Service: catalog.ServiceGotenberg, Err: errors.New("refused")},
			wantStatus:   http.StatusBadGateway,
			wantSeverity: SeverityHigh,
			wantService:  catalog.ServiceGotenberg,
		},
		{
			name:         "unavailable source url carries no service",
			err:          &UpstreamUnavailableError{Err: errors.New("connection refused")},
			wantStatus:   http.StatusBadGateway,
			wantSeverity: SeverityHigh,
			wantService:  "",
		},
		{
			name:         "upstream 4xx rejection keeps its status",
			err:          &UpstreamRejectedError{Service: catalog.ServicePandoc, Status: 415},
			wantStatus:   http.StatusUnsupportedMediaType,
			wantSeverity: SeverityMedium,
			wantService:  catalog.ServicePandoc,
		},
		{
			name:         "content mismatch",
			err:          &ContentMismatchError{Service: catalog.ServiceLibreOffice, OutputFormat: "pdf", ContentType: "text/html"},
			wantStatus:   http.StatusBadGateway,
			wantSeverity: SeverityHigh,
			wantService:  catalog.ServiceLibreOffice,
		},
		{
			name: "chain step classifies by its cause",
			err: &ChainStepError{Step: 1, Total: 2, From: "pages", To: "docx",
				Err: &UpstreamUnavailableError{Service: catalog.ServiceLibreOffice, Err: errors.New("down")}},
			wantStatus:   http.StatusBadGateway,
			wantSeverity: SeverityHigh,
			wantService:  catalog.ServiceLibreOffice,
		},
		{
			name:         "wrapped invalid request",
			err:          fmt.Errorf("handling request: %w", &InvalidRequestError{Reason: "bad pair"}),
			wantStatus:   http.StatusBadRequest,
			wantSeverity: SeverityLow,
		},
		{
			name:         "unknown error",
			err:          errors.New("mystery"),
			wantStatus:   http.StatusInternalServerError,
			wantSeverity: SeverityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, severity, service := Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantSeverity, severity)
			assert.Equal(t, tt.wantService, service)
		})
	}
}
