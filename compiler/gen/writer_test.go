package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	var (
		ctx  = context.Background()
		dir  = t.TempDir()
		path = filepath.Join(dir, "types", "mongoose.gen.ts")
		data = []byte("// " + Marker + "\nexport type User = {}\n")
		w    = NewWriter()
	)

	changed, err := w.Write(ctx, path, data)
	require.NoError(t, err)
	assert.True(t, changed)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, b)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	changed, err = w.Write(ctx, path, data)
	require.NoError(t, err)
	assert.False(t, changed, "same content is not rewritten")

	data = append(data, "export type Pet = {}\n"...)
	changed, err = w.Write(ctx, path, data)
	require.NoError(t, err)
	assert.True(t, changed)

	m := w.Metrics()
	assert.Equal(t, 2, m.FilesWritten)
	assert.Equal(t, 1, m.FilesUnchanged)
	assert.Equal(t, int64(len(data)*2-len("export type Pet = {}\n")), m.TotalBytes)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are removed")
}

func TestWriterRefusesUnmarkedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.ts")
	require.NoError(t, os.WriteFile(path, []byte("export type Handwritten = {}\n"), 0o644))

	_, err := NewWriter().Write(context.Background(), path, []byte("// "+Marker+"\n"))
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.Contains(t, err.Error(), "refusing to overwrite")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export type Handwritten = {}\n", string(b))
}

func TestWriterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "types.ts")
	_, err := NewWriter().Write(ctx, path, []byte(Marker))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
