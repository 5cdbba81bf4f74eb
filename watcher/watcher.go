// Package watcher turns recursive fsnotify events into quiet-period batches
// that drive file index updates and background graph rebuilds.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuietPeriod is used when Options.QuietPeriod is zero.
const DefaultQuietPeriod = 3 * time.Second

// IgnoreChecker is used by the watcher to check if a path should be ignored.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Options configures a Watcher.
type Options struct {
	RootDir     string
	Ignore      IgnoreChecker
	QuietPeriod time.Duration
	Logger      *slog.Logger
}

// Watcher watches every non-ignored directory under the root.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	ignore    IgnoreChecker
	rootDir   string
	logger    *slog.Logger
	watched   int
}

// NewWatcher registers the root and all non-ignored subdirectories.
func NewWatcher(opts Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	quiet := opts.QuietPeriod
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(quiet),
		ignore:    opts.Ignore,
		rootDir:   opts.RootDir,
		logger:    logger,
	}

	err = filepath.WalkDir(w.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.ignore.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		w.watchDir(path)
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w.logger.Debug("file watcher ready", "directories", w.watched, "quietPeriod", quiet)
	return w, nil
}

// Events returns the channel that receives debounced batches.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start forwards fsnotify events to the debouncer until the watcher is
// closed. Call it in a goroutine.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) watchDir(path string) {
	if err := w.fsWatcher.Add(path); err != nil {
		w.logger.Warn("failed to watch directory", "path", path, "error", err)
		return
	}
	w.watched++
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if w.ignore.ShouldIgnoreDir(path) {
				return
			}
			w.watchDir(path)
			// Files created together with the directory were missed by
			// fsnotify; report the directory so the index rescans it.
			w.debouncer.Add(path, OpCreate)
			return
		}
	}

	if w.ignore.ShouldIgnore(path) {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(path, op)
}

// Close stops the watcher and drops events still inside the quiet period.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
