package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/flowstt/core/internal/ferr"
	"github.com/flowstt/core/internal/logging"
)

// ChangeHandler is invoked with the old and new config after a
// successful reload.
type ChangeHandler func(old, new Config)

// Watcher reloads a config file on write, pushing the result into a
// Snapshot and notifying registered handlers. This replaces the
// teacher's 1s polling loop (foundation/core/config/watch.go) with
// github.com/fsnotify/fsnotify, a dependency already exercised
// elsewhere in the pack (internal/leibniz/agentloader/loader.go).
type Watcher struct {
	path     string
	snapshot *Snapshot
	log      *logging.Logger
	handlers []ChangeHandler
	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
}

// NewWatcher starts watching path for changes. The initial config must
// already have been loaded into snapshot by the caller.
func NewWatcher(path string, snapshot *Snapshot, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferr.Wrap(err, "create fsnotify watcher failed").WithCode(ferr.CodeConfigError)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, ferr.Wrap(err, "watch config file failed").
			WithCode(ferr.CodeConfigError).WithDetail("path", path)
	}

	w := &Watcher{path: path, snapshot: snapshot, log: log, fsw: fsw, stopCh: make(chan struct{})}
	go w.loop()
	return w, nil
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(h ChangeHandler) {
	w.handlers = append(w.handlers, h)
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("config watch error", "error", err.Error())
		}
	}
}

func (w *Watcher) reload() {
	old := w.snapshot.Load()
	next, err := Load(w.path)
	if err != nil {
		w.log.Error("config reload failed, keeping previous config", "error", err.Error())
		return
	}
	w.snapshot.Store(next)
	w.log.Info("config reloaded", "path", w.path)
	for _, h := range w.handlers {
		go h(old, next)
	}
}

// Close stops watching and releases the underlying inotify/kqueue
// handle.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.fsw.Close()
}
