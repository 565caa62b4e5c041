// Package watch re-reads a QDP file whenever it changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sambeau/qdp/pkg/qdp"
)

// DefaultDebounce is how long the file must stay quiet before a reload.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors one QDP file and reports each fresh parse.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	opts     []qdp.Option
	onChange func(*qdp.Result, error)

	// Debounce window; bursts of writes inside it trigger one reload
	Debounce time.Duration

	mu      sync.Mutex
	reloads uint64
}

// New creates a watcher for path. onChange receives the result of every
// read, or the error that stopped it.
func New(path string, onChange func(*qdp.Result, error), opts ...qdp.Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsWatcher,
		path:     abs,
		opts:     opts,
		onChange: onChange,
		Debounce: DefaultDebounce,
	}, nil
}

// Reloads returns how many times the file has been read.
func (w *Watcher) Reloads() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Run reads the file once, then again after each change, until ctx is done.
// The parent directory is watched so a file replaced by rename is still seen.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.reload()

	// Idle until the first event arms it
	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(w.Debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.onChange(nil, err)
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	res, err := qdp.ReadTables(qdp.FromFile(w.path), w.opts...)
	w.onChange(res, err)
}
