// Package tempfile owns the lifecycle of temporary files created while
// serving conversion requests: fetched URL bodies and intermediate chain
// outputs. Every handle is owned by exactly one request and released exactly
// once; the manager-level sweep is a safety net, never the primary contract.
package tempfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Error represents a temp file operation failure.
type Error struct {
	Operation string
	Path      string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("temp file error during %s", e.Operation)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds configuration for a Manager.
type Config struct {
	BaseDir    string
	Scope      string // subdirectory name, one per owning component
	Logger     *slog.Logger
	FileSystem FileSystem
}

// Manager creates and tracks temporary files inside a scoped directory.
// Safe for concurrent use: each request creates handles independently.
type Manager struct {
	dir    string
	logger *slog.Logger
	fs     FileSystem

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewManager creates a manager rooted at BaseDir/Scope.
func NewManager(config Config) (*Manager, error) {
	if config.BaseDir == "" {
		config.BaseDir = filepath.Join("/tmp", "docbridge")
	}
	if config.Scope == "" {
		config.Scope = "default"
	}
	if config.FileSystem == nil {
		config.FileSystem = NewOSFileSystem()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dir := filepath.Join(config.BaseDir, config.Scope)
	if err := config.FileSystem.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Operation: "init - create directory", Path: dir, Err: err}
	}

	config.Logger.InfoContext(context.Background(), "temp file manager initialized",
		"dir", dir,
	)

	return &Manager{
		dir:     dir,
		logger:  config.Logger,
		fs:      config.FileSystem,
		handles: make(map[string]*Handle),
	}, nil
}

// Dir returns the scoped directory managed by this manager.
func (m *Manager) Dir() string {
	return m.dir
}

// Create writes content to a new temp file and returns its handle. When
// filename is empty a unique name is generated from extension. The presented
// filename is caller-chosen and may repeat across concurrent requests, so the
// on-disk name always gets a unique prefix: two handles never share a
// backing file.
func (m *Manager) Create(content []byte, filename, extension string) (*Handle, error) {
	if filename == "" {
		filename = generateName(extension)
	}
	filename = filepath.Base(filename)
	path := filepath.Join(m.dir, uniqueName(filename))

	if err := m.fs.WriteFile(path, content, 0o644); err != nil {
		m.logger.ErrorContext(context.Background(), "failed to create temp file",
			"error", err,
			"path", path,
		)
		return nil, &Error{Operation: "create", Path: path, Err: err}
	}

	h := &Handle{
		path:     path,
		filename: filename,
		manager:  m,
	}

	m.mu.Lock()
	m.handles[path] = h
	m.mu.Unlock()

	m.logger.DebugContext(context.Background(), "temp file created",
		"path", path,
		"size", len(content),
	)

	return h, nil
}

// CleanupAll removes every file still tracked by this manager. Secondary
// safety net for process shutdown; per-request Handle.Cleanup is the primary
// release path.
func (m *Manager) CleanupAll() int {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	removed := 0
	for _, h := range handles {
		if err := h.Cleanup(); err == nil {
			removed++
		}
	}

	m.logger.InfoContext(context.Background(), "temp file sweep completed",
		"removed", removed,
	)
	return removed
}

// Count returns the number of files currently tracked.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

func (m *Manager) forget(path string) {
	m.mu.Lock()
	delete(m.handles, path)
	m.mu.Unlock()
}

// Handle is an exclusively owned temporary file. The creating request must
// call Cleanup on every exit path; calling it more than once is a no-op.
type Handle struct {
	path     string
	filename string
	manager  *Manager

	once       sync.Once
	cleaned    bool
	cleanupErr error
}

// Path returns the absolute path of the backing file.
func (h *Handle) Path() string {
	return h.path
}

// Filename returns the bare filename of the backing file.
func (h *Handle) Filename() string {
	return h.filename
}

// Open returns a reader over the backing file. The caller closes it before
// Cleanup is called.
func (h *Handle) Open() (io.ReadCloser, error) {
	if h.cleaned {
		return nil, &Error{Operation: "open", Path: h.path, Err: fmt.Errorf("handle already cleaned up")}
	}
	rc, err := h.manager.fs.Open(h.path)
	if err != nil {
		return nil, &Error{Operation: "open", Path: h.path, Err: err}
	}
	return rc, nil
}

// Read returns the full contents of the backing file.
func (h *Handle) Read() ([]byte, error) {
	if h.cleaned {
		return nil, &Error{Operation: "read", Path: h.path, Err: fmt.Errorf("handle already cleaned up")}
	}
	content, err := h.manager.fs.ReadFile(h.path)
	if err != nil {
		return nil, &Error{Operation: "read", Path: h.path, Err: err}
	}
	return content, nil
}

// Cleanup removes the backing file. Idempotent: the first call deletes, every
// later call is a no-op returning the first call's result.
func (h *Handle) Cleanup() error {
	h.once.Do(func() {
		h.cleaned = true
		h.manager.forget(h.path)
		if removeErr := h.manager.fs.Remove(h.path); removeErr != nil {
			h.manager.logger.WarnContext(context.Background(), "failed to remove temp file",
				"error", removeErr,
				"path", h.path,
			)
			h.cleanupErr = &Error{Operation: "cleanup", Path: h.path, Err: removeErr}
			return
		}
		h.manager.logger.DebugContext(context.Background(), "temp file removed",
			"path", h.path,
		)
	})
	return h.cleanupErr
}

// uniqueName prefixes a presented filename with a short random id to build
// the on-disk name.
func uniqueName(filename string) string {
	return fmt.Sprintf("%s_%s", uuid.NewString()[:8], filename)
}

// generateName builds a unique temp filename with the given extension.
func generateName(extension string) string {
	ext := strings.TrimPrefix(extension, ".")
	id := uuid.NewString()[:8]
	if ext == "" {
		return fmt.Sprintf("temp_%s", id)
	}
	return fmt.Sprintf("temp_%s.%s", id, ext)
}
