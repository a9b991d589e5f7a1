package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer writes generated output to disk. Files are replaced atomically,
// and left untouched when their content is unchanged.
type Writer struct {
	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics tracks write activity.
type WriterMetrics struct {
	FilesWritten   int
	FilesUnchanged int
	TotalBytes     int64
	WriteTime      int64 // nanoseconds
}

// NewWriter creates a new writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Metrics returns a snapshot of the write metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Write replaces the file at path with data. It reports whether the file
// changed. An existing file that does not carry the generated marker is
// never overwritten.
func (w *Writer) Write(ctx context.Context, path string, data []byte) (bool, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	old, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return false, NewGenerationError("write", "", "read "+path, err)
	case bytes.Equal(old, data):
		w.mu.Lock()
		w.metrics.FilesUnchanged++
		w.mu.Unlock()
		return false, nil
	case !bytes.Contains(old, []byte(Marker)):
		return false, NewGenerationError("write", "", fmt.Sprintf("refusing to overwrite %s: file is not marked %s", path, Marker), nil)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, NewGenerationError("write", "", "create directory "+dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, NewGenerationError("write", "", "create temporary file", err)
	}
	// Removing the temporary file fails once it was renamed.
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, NewGenerationError("write", "", "write "+tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return false, NewGenerationError("write", "", "close "+tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, NewGenerationError("write", "", "chmod "+tmp.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, NewGenerationError("write", "", "rename to "+path, err)
	}
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(data))
	w.metrics.WriteTime += time.Since(start).Nanoseconds()
	w.mu.Unlock()
	return true, nil
}
