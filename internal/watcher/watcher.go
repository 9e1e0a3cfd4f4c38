// Package watcher triggers knowledge-base rebuilds when the corpus
// directory changes.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Watcher watches the corpus directory and invokes onRebuild after changes
// settle. A whole-corpus rebuild is the only granularity the knowledge base
// supports (chunk ordinals are positional across the corpus), so individual
// file events collapse into one debounced trigger.
type Watcher struct {
	dir       string
	onRebuild func()
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	watcher *fsnotify.Watcher
	done    chan struct{}
	started bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the settle window before a rebuild fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher over dir. onRebuild runs on the watcher
// goroutine after events settle.
func NewWatcher(dir string, onRebuild func(), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:       dir,
		onRebuild: onRebuild,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw
	w.started = true
	w.mu.Unlock()

	w.logger.Debug("watching corpus directory", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("corpus changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watch error", zap.Error(err))
			}
		}
	}
}

// schedule resets the debounce timer; the rebuild fires once events settle.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("corpus settled, triggering rebuild", zap.String("dir", w.dir))
		w.onRebuild()
	})
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.started = false
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	_ = w.watcher.Close()
}
