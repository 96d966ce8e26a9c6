package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kfreiman/docbridge/internal/catalog"
	"github.com/kfreiman/docbridge/internal/convert"
)

// errorEnvelope is the JSON body of every failed response.
type errorEnvelope struct {
	Error      string `json:"error"`
	Timestamp  string `json:"timestamp"`
	StatusCode int    `json:"status_code"`
	Severity   string `json:"severity"`
	Service    string `json:"service,omitempty"`
	Details    string `json:"details,omitempty"`
}

// maxDetailLen caps the details field so backend error pages cannot blow
// up the envelope.
const maxDetailLen = 1000

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	in, out, err := splitPair(r.PathValue("pair"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := convert.Request{
		InputFormat:  in,
		OutputFormat: out,
		Service:      r.URL.Query().Get("service"),
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			s.writeError(w, &convert.InvalidRequestError{Reason: "unreadable multipart body", Err: err})
			return
		}
		if svc := r.FormValue("service"); svc != "" {
			req.Service = svc
		}
		req.URL = r.FormValue("url")

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			content, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
			if err != nil {
				s.writeError(w, &convert.InvalidRequestError{Reason: "unreadable upload", Err: err})
				return
			}
			if int64(len(content)) > s.maxUpload {
				s.writeError(w, &convert.PayloadTooLargeError{URL: header.Filename, MaxBytes: s.maxUpload})
				return
			}
			req.Content = content
			req.Filename = header.Filename
		}
	} else if err := r.ParseForm(); err == nil {
		if svc := r.FormValue("service"); svc != "" {
			req.Service = svc
		}
		req.URL = r.FormValue("url")
	}

	if req.URL == "" && len(req.Content) == 0 {
		s.writeError(w, &convert.InvalidRequestError{Reason: "provide a file upload or a url form field"})
		return
	}
	if req.URL != "" && len(req.Content) > 0 {
		s.writeError(w, &convert.InvalidRequestError{Reason: "provide either a file or a url, not both"})
		return
	}

	result, err := s.engine.Convert(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Content)
}

func (s *Server) handleSupported(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversions": catalog.SupportedConversions(),
	})
}

type candidateInfo struct {
	Service     string   `json:"service"`
	Priority    string   `json:"priority"`
	Description string   `json:"description"`
	Steps       []string `json:"steps,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	in, out, err := splitPair(r.PathValue("pair"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	candidates := catalog.Candidates(in, out)
	if len(candidates) == 0 {
		s.writeJSON(w, http.StatusNotFound, errorEnvelope{
			Error:      fmt.Sprintf("conversion %s-%s is not supported", in, out),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			StatusCode: http.StatusNotFound,
			Severity:   string(convert.SeverityLow),
		})
		return
	}

	infos := make([]candidateInfo, 0, len(candidates))
	for _, candidate := range candidates {
		info := candidateInfo{
			Service:     string(candidate.Service),
			Priority:    candidate.Priority.String(),
			Description: candidate.Description,
		}
		if candidate.Chained() {
			for _, step := range candidate.Steps {
				info.Steps = append(info.Steps,
					fmt.Sprintf("%s: %s-%s", step.Service, step.InputFormat, step.OutputFormat))
			}
		}
		infos = append(infos, info)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"input_format":  in,
		"output_format": out,
		"candidates":    infos,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePingAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	type probe struct {
		service catalog.Service
		err     error
	}

	services := catalog.Services()
	results := make(chan probe, len(services))
	var wg sync.WaitGroup
	for _, svc := range services {
		backend, ok := s.engine.Backend(svc)
		if !ok {
			results <- probe{service: svc, err: fmt.Errorf("not configured")}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- probe{service: svc, err: backend.Ping(ctx)}
		}()
	}
	wg.Wait()
	close(results)

	statuses := make(map[string]string, len(services))
	healthy := true
	for p := range results {
		if p.err != nil {
			statuses[string(p.service)] = fmt.Sprintf("unhealthy: %v", p.err)
			healthy = false
		} else {
			statuses[string(p.service)] = "healthy"
		}
	}

	code := http.StatusOK
	overall := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "degraded"
	}
	s.writeJSON(w, code, map[string]any{
		"status":   overall,
		"services": statuses,
	})
}

func splitPair(pair string) (string, string, error) {
	in, out, found := strings.Cut(pair, "-")
	if !found || in == "" || out == "" {
		return "", "", &convert.InvalidRequestError{
			Reason: fmt.Sprintf("malformed conversion pair %q, expected input-output", pair),
		}
	}
	return catalog.Normalize(in), catalog.Normalize(out), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, severity, service := convert.Classify(err)

	details := err.Error()
	if len(details) > maxDetailLen {
		details = details[:maxDetailLen]
	}

	envelope := errorEnvelope{
		Error:      summarize(err),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		StatusCode: status,
		Severity:   string(severity),
		Service:    string(service),
		Details:    details,
	}

	if status >= 500 {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Info("request rejected", "status", status, "error", err)
	}

	s.writeJSON(w, status, envelope)
}

// summarize gives the envelope a short headline; the full chain lives in
// the details field.
func summarize(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx > 0 && idx < 120 {
		return msg[:idx] + ": " + truncateAt(msg[idx+2:], 160)
	}
	return truncateAt(msg, 200)
}

func truncateAt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
