package tempfile

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// FileSystem is the narrow filesystem interface the temp file manager needs.
// Backed by afero so tests can run against an in-memory filesystem.
type FileSystem interface {
	// MkdirAll creates a directory and any necessary parent directories
	MkdirAll(path string, perm os.FileMode) error
	// WriteFile writes data to a file
	WriteFile(name string, data []byte, perm os.FileMode) error
	// ReadFile reads the file and returns its contents
	ReadFile(name string) ([]byte, error)
	// Open opens the named file for reading
	Open(name string) (io.ReadCloser, error)
	// Remove removes a named file
	Remove(name string) error
}

type aferoFileSystem struct {
	fs afero.Fs
}

func (f *aferoFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return f.fs.MkdirAll(path, perm)
}

func (f *aferoFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(f.fs, name, data, perm)
}

func (f *aferoFileSystem) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(f.fs, name)
}

func (f *aferoFileSystem) Open(name string) (io.ReadCloser, error) {
	return f.fs.Open(name)
}

func (f *aferoFileSystem) Remove(name string) error {
	return f.fs.Remove(name)
}

// NewOSFileSystem returns a FileSystem that uses the actual OS filesystem.
func NewOSFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewOsFs()}
}

// NewMemMapFileSystem returns a FileSystem backed by afero's in-memory
// filesystem, for tests.
func NewMemMapFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewMemMapFs()}
}
