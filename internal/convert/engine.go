package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kfreiman/docbridge/internal/catalog"
	"github.com/kfreiman/docbridge/internal/detect"
	"github.com/kfreiman/docbridge/internal/retry"
	"github.com/kfreiman/docbridge/internal/tempfile"
)

// Request is one conversion job. Exactly one of URL and Content is set.
// Service, when non-empty, pins the conversion to a single backend instead
// of walking the candidate list.
type Request struct {
	URL          string
	Content      []byte
	Filename     string
	InputFormat  string
	OutputFormat string
	Service      string
}

// Result is a finished conversion.
type Result struct {
	Content      []byte
	ContentType  string
	OutputFormat string
	Filename     string
	Service      catalog.Service
	Passthrough  bool
	Chained      bool
}

// Engine routes conversion requests across the backend services: it
// resolves the input, walks the candidate list in priority order, executes
// chains step by step, and falls back to the next candidate on failure.
type Engine struct {
	backends map[catalog.Service]Backend
	resolver *Resolver
	files    *tempfile.Manager
	retryCfg retry.Config
	logger   *slog.Logger
}

// EngineConfig wires an Engine. Backends and Resolver are required.
type EngineConfig struct {
	Backends []Backend
	Resolver *Resolver
	Files    *tempfile.Manager
	Retry    retry.Config
	Logger   *slog.Logger
}

func NewEngine(config EngineConfig) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	backends := make(map[catalog.Service]Backend, len(config.Backends))
	for _, backend := range config.Backends {
		backends[backend.Service()] = backend
	}
	return &Engine{
		backends: backends,
		resolver: config.Resolver,
		files:    config.Files,
		retryCfg: config.Retry,
		logger:   logger,
	}
}

// Backend returns the adapter registered for a service.
func (e *Engine) Backend(service catalog.Service) (Backend, bool) {
	backend, ok := e.backends[service]
	return backend, ok
}

// Convert runs one conversion end to end. Temp files created along the way
// are released before it returns, on success and on failure alike.
func (e *Engine) Convert(ctx context.Context, req Request) (*Result, error) {
	in := catalog.Normalize(req.InputFormat)
	out := catalog.Normalize(req.OutputFormat)

	// Fail fast before any download when the route cannot possibly work.
	// A "url" input is exempt: its effective format is only known after
	// the fetch.
	if req.Service == "" && in != "url" &&
		!catalog.Supported(in, out) &&
		!(in == out && catalog.PassthroughEligible(out)) {
		return nil, &InvalidRequestError{
			Reason: fmt.Sprintf("conversion %s-%s is not supported", in, out),
		}
	}

	resolution, err := e.resolver.Resolve(ctx, ResolveRequest{
		URL:          req.URL,
		Content:      req.Content,
		Filename:     req.Filename,
		InputFormat:  in,
		OutputFormat: out,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cleanupErr := resolution.Cleanup(); cleanupErr != nil {
			e.logger.Warn("temp file cleanup failed", "error", cleanupErr)
		}
	}()

	if resolution.Passthrough {
		e.logger.Info("passthrough conversion", "format", out, "bytes", len(resolution.Content))
		return &Result{
			Content:      resolution.Content,
			ContentType:  detect.MIMEForFormat(out),
			OutputFormat: out,
			Filename:     outputFilename(resolution.Filename, out),
			Passthrough:  true,
		}, nil
	}

	// Route by the effective format: a fetched URL is routed by what the
	// download turned out to be, not by the "url" pseudo-format.
	input := resolution.Input
	candidates, err := e.selectCandidates(input.Format, out, req.Service)
	if err != nil {
		return nil, err
	}

	var attempted []catalog.Service
	var lastErr error

	for _, candidate := range candidates {
		backend, ok := e.backends[candidate.Service]
		if !ok {
			e.logger.Warn("no adapter registered for candidate", "service", candidate.Service)
			continue
		}
		if input.IsURL() && !catalog.CanHandleURLDirectly(candidate.Service, out) {
			e.logger.Debug("skipping candidate, cannot consume URL input",
				"service", candidate.Service)
			continue
		}

		e.logger.Info("attempting conversion",
			"service", candidate.Service,
			"priority", candidate.Priority.String(),
			"input_format", in,
			"output_format", out,
			"chained", candidate.Chained())

		content, err := e.runCandidate(ctx, backend, input, candidate, out)
		attempted = append(attempted, candidate.Service)
		if err == nil {
			return &Result{
				Content:      content,
				ContentType:  detect.MIMEForFormat(out),
				OutputFormat: out,
				Filename:     outputFilename(input.Filename, out),
				Service:      candidate.Service,
				Chained:      candidate.Chained(),
			}, nil
		}

		lastErr = err
		e.logger.Warn("candidate failed", "service", candidate.Service, "error", err)

		var invalid *InvalidRequestError
		if errors.As(err, &invalid) {
			return nil, err
		}
	}

	if lastErr == nil {
		return nil, &InvalidRequestError{
			Reason: fmt.Sprintf("no usable service for %s-%s", in, out),
		}
	}
	return nil, &AllServicesFailedError{
		InputFormat:  in,
		OutputFormat: out,
		Attempted:    attempted,
		LastErr:      lastErr,
	}
}

// selectCandidates returns the candidate list for a pair, narrowed to a
// single service when the caller pinned one.
func (e *Engine) selectCandidates(in, out, service string) ([]catalog.Candidate, error) {
	candidates := catalog.Candidates(in, out)
	if service == "" {
		if len(candidates) == 0 {
			return nil, &InvalidRequestError{
				Reason: fmt.Sprintf("conversion %s-%s is not supported", in, out),
			}
		}
		return candidates, nil
	}

	svc, ok := catalog.KnownService(service)
	if !ok {
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unknown service %q", service)}
	}

	for _, candidate := range candidates {
		if candidate.Service == svc {
			return []catalog.Candidate{candidate}, nil
		}
	}

	if !catalog.CanHandleFormat(svc, in) {
		return nil, &InvalidRequestError{
			Reason: fmt.Sprintf("service %s does not accept %s input", svc, in),
		}
	}
	// The pinned service has no matrix entry for this pair; trust the
	// caller and run it as a single direct step.
	return []catalog.Candidate{{
		Service:     svc,
		Priority:    catalog.PriorityPrimary,
		Description: fmt.Sprintf("explicit %s conversion", svc),
		Steps:       []catalog.Step{{Service: svc, InputFormat: in, OutputFormat: out}},
	}}, nil
}

// runCandidate executes a candidate's steps in order, piping each step's
// output into the next through a temp file.
func (e *Engine) runCandidate(ctx context.Context, backend Backend, input *Input, candidate catalog.Candidate, out string) ([]byte, error) {
	current := input
	var intermediates []*tempfile.Handle
	defer func() {
		for _, handle := range intermediates {
			if err := handle.Cleanup(); err != nil {
				e.logger.Warn("intermediate cleanup failed", "error", err)
			}
		}
	}()

	total := len(candidate.Steps)
	var content []byte
	for i, step := range candidate.Steps {
		stepBackend, ok := e.backends[step.Service]
		if !ok {
			return nil, &ChainStepError{
				Step: i + 1, Total: total, From: step.InputFormat, To: step.OutputFormat,
				Err: fmt.Errorf("no adapter registered for %s", step.Service),
			}
		}
		if i == 0 {
			stepBackend = backend
		}

		stepContent, contentType, err := e.runStep(ctx, stepBackend, current, step)
		if err != nil {
			if total > 1 {
				return nil, &ChainStepError{
					Step: i + 1, Total: total,
					From: step.InputFormat, To: step.OutputFormat,
					Err: err,
				}
			}
			return nil, err
		}

		if !detect.CompatibleMIME(contentType, step.OutputFormat) {
			err := &ContentMismatchError{
				Service:      step.Service,
				OutputFormat: step.OutputFormat,
				ContentType:  contentType,
			}
			if total > 1 {
				return nil, &ChainStepError{
					Step: i + 1, Total: total,
					From: step.InputFormat, To: step.OutputFormat,
					Err: err,
				}
			}
			return nil, err
		}

		content = stepContent
		if i < total-1 {
			name := fmt.Sprintf("converted_step_%d.%s", i+1, step.OutputFormat)
			handle, err := e.files.Create(stepContent, name, step.OutputFormat)
			if err != nil {
				return nil, &ChainStepError{
					Step: i + 1, Total: total,
					From: step.InputFormat, To: step.OutputFormat,
					Err: fmt.Errorf("staging intermediate output: %w", err),
				}
			}
			intermediates = append(intermediates, handle)
			current = &Input{File: handle, Filename: name, Format: step.OutputFormat}
		}
	}

	return content, nil
}

// runStep calls one backend with retry on transient failures. Exhausted
// retries surface as the service being unavailable.
func (e *Engine) runStep(ctx context.Context, backend Backend, input *Input, step catalog.Step) ([]byte, string, error) {
	var content []byte
	var contentType string
	err := retry.Do(ctx, e.retryCfg, func(attempt int) error {
		if attempt > 1 {
			e.logger.Debug("retrying backend call", "service", step.Service, "attempt", attempt)
		}
		var callErr error
		content, contentType, callErr = backend.Convert(ctx, input, step)
		return callErr
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, "", &UpstreamUnavailableError{Service: step.Service, Err: err}
		}
		var transient *retry.TransientError
		if errors.As(err, &transient) {
			return nil, "", &UpstreamUnavailableError{Service: step.Service, Err: err}
		}
		return nil, "", err
	}
	return content, contentType, nil
}

// outputFilename swaps the source extension for the output format.
func outputFilename(source, out string) string {
	base := source
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			base = base[:i]
			break
		}
		if base[i] == '/' {
			break
		}
	}
	if base == "" {
		base = "converted"
	}
	return base + "." + out
}
