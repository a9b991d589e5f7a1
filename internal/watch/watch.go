// Package watch reruns generation when schema sources change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/syssam/shapegen/compiler/load"
)

// DefaultDebounce is the quiet period awaited after the last change.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches the directories of schema sources.
type Watcher struct {
	// Dirs are the watched directories.
	Dirs []string
	// Debounce is the quiet period awaited after the last change before
	// running. Zero means DefaultDebounce.
	Debounce time.Duration
	Log      zerolog.Logger
}

// New returns a watcher of the directories holding the given schema paths,
// which are files, directories or glob patterns.
func New(paths []string, log zerolog.Logger) *Watcher {
	var dirs []string
	for _, p := range paths {
		dir := p
		if strings.ContainsAny(p, "*?[") {
			dir = filepath.Dir(p)
		} else if info, err := os.Stat(p); err == nil && !info.IsDir() {
			dir = filepath.Dir(p)
		}
		dir = filepath.Clean(dir)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return &Watcher{Dirs: dirs, Log: log}
}

// Run calls fn each time a schema source changes, until ctx is done. Bursts
// of changes within the debounce period cause a single call. Errors of fn
// are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	for _, d := range w.Dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch: add %s: %w", d, err)
		}
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	w.Log.Info().Strs("dirs", w.Dirs).Msg("watching schema sources")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.Log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("schema source changed")
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn().Err(err).Msg("watch error")
		case <-timer.C:
			if err := fn(ctx); err != nil {
				w.Log.Error().Err(err).Msg("regeneration failed")
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return slices.Contains(load.Extensions, strings.ToLower(filepath.Ext(ev.Name)))
}
