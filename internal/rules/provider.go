package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Provider hands out the current rules pack. The orchestrator calls Current
// once per classification request, so a reload between requests takes effect
// on the next request and never mid-evaluation.
type Provider interface {
	Current() *Pack
}

// StaticProvider wraps a pack loaded once, for one-shot CLI invocations.
type StaticProvider struct {
	pack *Pack
}

// NewStaticProvider creates a provider that always returns the given pack.
func NewStaticProvider(pack *Pack) *StaticProvider {
	return &StaticProvider{pack: pack}
}

// Current returns the wrapped pack.
func (p *StaticProvider) Current() *Pack {
	return p.pack
}

// Watcher loads a rules pack from a file and hot-reloads it on change.
//
// A reload that fails to parse keeps the previous pack in place; serving
// stale rules beats serving none. Every audit record carries the pack
// version that produced it, so reloads stay traceable.
type Watcher struct {
	watcher *fsnotify.Watcher
	pack    *Pack
	path    string
	mu      sync.RWMutex
}

// NewWatcher loads the pack at path and begins watching it for changes.
// The watch runs until ctx is canceled.
func NewWatcher(ctx context.Context, path string) (*Watcher, error) {
	pack, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: editors and config deploys often
	// replace the file via rename, which drops a direct file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch rules directory: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		pack:    pack,
		path:    path,
	}

	go w.run(ctx)

	slog.Info("rules pack loaded",
		"path", path,
		"version", pack.Version,
		"rules", pack.Len(),
		"skipped", pack.Skipped)

	return w, nil
}

// Current returns the most recently loaded pack.
func (w *Watcher) Current() *Pack {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pack
}

func (w *Watcher) run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("rules pack watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	pack, err := Load(w.path)
	if err != nil {
		slog.Error("rules pack reload failed, keeping previous pack",
			"path", w.path,
			"error", err)
		return
	}

	w.mu.Lock()
	previous := w.pack.Version
	w.pack = pack
	w.mu.Unlock()

	slog.Info("rules pack reloaded",
		"path", w.path,
		"previous_version", previous,
		"version", pack.Version,
		"rules", pack.Len(),
		"skipped", pack.Skipped)
}
