// Package watch recompiles a script whenever its file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/framereel/internal/builder"
	"github.com/Faultbox/framereel/internal/keyframe"
	"github.com/Faultbox/framereel/internal/script"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Result is the outcome of one compilation. Commands holds every line that
// parsed, even when Err reports syntax errors elsewhere in the file.
type Result struct {
	Commands []script.Command
	Store    *keyframe.Store
	Err      error
}

// Watcher recompiles one script file.
type Watcher struct {
	path     string
	opts     builder.Options
	log      *zap.Logger
	watcher  *fsnotify.Watcher
	Debounce time.Duration
}

// New watches the directory holding path, so that editors which save by
// renaming a temporary file are noticed too.
func New(path string, opts builder.Options, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		opts:     opts,
		log:      log,
		watcher:  fw,
		Debounce: DefaultDebounce,
	}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Compile parses and builds the script once.
func (w *Watcher) Compile() Result {
	cmds, err := script.ParseFile(w.path)
	if err != nil {
		return Result{Commands: cmds, Err: err}
	}
	store, err := builder.Build(cmds, w.opts)
	return Result{Commands: cmds, Store: store, Err: err}
}

// Run compiles the script immediately and again after every change, passing
// each result to fn. It returns when ctx is done or the watcher fails.
func (w *Watcher) Run(ctx context.Context, fn func(Result)) error {
	w.emit(fn)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("script changed", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.emit(fn)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}

func (w *Watcher) emit(fn func(Result)) {
	res := w.Compile()
	if res.Err != nil {
		w.log.Warn("script rejected", zap.String("path", w.path), zap.Error(res.Err))
	} else {
		w.log.Info("script compiled",
			zap.String("path", w.path),
			zap.Int("commands", len(res.Commands)),
			zap.Int("keyframes", res.Store.Len()))
	}
	fn(res)
}
