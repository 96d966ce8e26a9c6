package tempfile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		BaseDir:    "/tmp-test",
		Scope:      "unit",
		FileSystem: NewMemMapFileSystem(),
	})
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("creates with defaults when config is empty", func(t *testing.T) {
		m, err := NewManager(Config{FileSystem: NewMemMapFileSystem()})
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, filepath.Join("/tmp", "docbridge", "default"), m.Dir())
	})

	t.Run("scopes the directory under the base dir", func(t *testing.T) {
		m := newTestManager(t)
		assert.Equal(t, "/tmp-test/unit", m.Dir())
	})
}

func TestManager_Create(t *testing.T) {
	t.Run("writes content and tracks the handle", func(t *testing.T) {
		m := newTestManager(t)

		h, err := m.Create([]byte("hello"), "doc.pdf", "pdf")
		require.NoError(t, err)
		assert.Equal(t, "doc.pdf", h.Filename())
		assert.Equal(t, m.Dir(), filepath.Dir(h.Path()))
		assert.True(t, strings.HasSuffix(h.Path(), "_doc.pdf"))
		assert.Equal(t, 1, m.Count())

		content, err := h.Read()
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), content)
	})

	t.Run("generates a name from the extension when filename is empty", func(t *testing.T) {
		m := newTestManager(t)

		h, err := m.Create([]byte("x"), "", "docx")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(h.Filename(), "temp_"))
		assert.True(t, strings.HasSuffix(h.Filename(), ".docx"))
	})

	t.Run("generated names are unique", func(t *testing.T) {
		m := newTestManager(t)

		a, err := m.Create([]byte("a"), "", "txt")
		require.NoError(t, err)
		b, err := m.Create([]byte("b"), "", "txt")
		require.NoError(t, err)
		assert.NotEqual(t, a.Path(), b.Path())
	})

	t.Run("same filename gets distinct backing files", func(t *testing.T) {
		m := newTestManager(t)

		a, err := m.Create([]byte("first"), "converted_step_1.docx", "docx")
		require.NoError(t, err)
		b, err := m.Create([]byte("second"), "converted_step_1.docx", "docx")
		require.NoError(t, err)

		assert.NotEqual(t, a.Path(), b.Path())
		assert.Equal(t, "converted_step_1.docx", a.Filename())
		assert.Equal(t, "converted_step_1.docx", b.Filename())

		got, err := a.Read()
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got)

		require.NoError(t, a.Cleanup())

		got, err = b.Read()
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("strips directory components from the filename", func(t *testing.T) {
		m := newTestManager(t)

		h, err := m.Create([]byte("x"), "../../etc/passwd", "txt")
		require.NoError(t, err)
		assert.Equal(t, m.Dir(), filepath.Dir(h.Path()))
		assert.True(t, strings.HasSuffix(h.Path(), "_passwd"))
	})
}

func TestHandle_Open(t *testing.T) {
	m := newTestManager(t)
	h, err := m.Create([]byte("stream me"), "a.txt", "txt")
	require.NoError(t, err)

	rc, err := h.Open()
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 9)
	n, _ := rc.Read(buf)
	assert.Equal(t, "stream me", string(buf[:n]))
}

func TestHandle_Cleanup(t *testing.T) {
	t.Run("removes the file and untracks it", func(t *testing.T) {
		m := newTestManager(t)
		h, err := m.Create([]byte("x"), "a.txt", "txt")
		require.NoError(t, err)

		require.NoError(t, h.Cleanup())
		assert.Equal(t, 0, m.Count())

		_, err = h.Read()
		require.Error(t, err)
		var tfErr *Error
		require.ErrorAs(t, err, &tfErr)
		assert.Equal(t, "read", tfErr.Operation)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		m := newTestManager(t)
		h, err := m.Create([]byte("x"), "a.txt", "txt")
		require.NoError(t, err)

		assert.NoError(t, h.Cleanup())
		assert.NoError(t, h.Cleanup())
	})

	t.Run("open after cleanup fails", func(t *testing.T) {
		m := newTestManager(t)
		h, err := m.Create([]byte("x"), "a.txt", "txt")
		require.NoError(t, err)
		require.NoError(t, h.Cleanup())

		_, err = h.Open()
		assert.Error(t, err)
	})
}

func TestManager_CleanupAll(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 3; i++ {
		_, err := m.Create([]byte("x"), "", "txt")
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.Count())

	removed := m.CleanupAll()
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, m.Count())
}
