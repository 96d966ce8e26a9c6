package convert

import (
	"errors"
	"net/http"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// Classify maps an error to the HTTP status, severity, and responsible
// service reported in the response envelope.
func Classify(err error) (status int, severity Severity, service catalog.Service) {
	var invalid *InvalidRequestError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, SeverityLow, ""
	}

	var tooLarge *PayloadTooLargeError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, SeverityMedium, ""
	}

	var allFailed *AllServicesFailedError
	if errors.As(err, &allFailed) {
		var svc catalog.Service
		if len(allFailed.Attempted) > 0 {
			svc = allFailed.Attempted[len(allFailed.Attempted)-1]
		}
		return http.StatusBadGateway, SeverityCritical, svc
	}

	var unavailable *UpstreamUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusBadGateway, SeverityHigh, unavailable.Service
	}

	var rejected *UpstreamRejectedError
	if errors.As(err, &rejected) {
		// A definitive backend verdict usually means the payload itself
		// is at fault, so surface it as a client error.
		status := http.StatusUnprocessableEntity
		if rejected.Status >= 400 && rejected.Status < 500 {
			status = rejected.Status
		}
		return status, SeverityMedium, rejected.Service
	}

	var mismatch *ContentMismatchError
	if errors.As(err, &mismatch) {
		return http.StatusBadGateway, SeverityHigh, mismatch.Service
	}

	var step *ChainStepError
	if errors.As(err, &step) {
		status, severity, service := Classify(step.Err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return status, severity, service
	}

	return http.StatusInternalServerError, SeverityHigh, ""
}
