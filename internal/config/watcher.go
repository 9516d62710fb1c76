package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the dynamic overlay whenever the file changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchOverlay starts watching path and re-applies it to cfg on every write.
// Editors that replace the file (rename + create) are handled by re-adding
// the path on Remove/Rename events.
func WatchOverlay(cfg *Config, path string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := cfg.ApplyOverlay(path); err != nil {
						logger.Warn("config overlay reload failed", zap.Error(err))
					} else {
						logger.Info("config overlay reloaded", zap.String("path", path))
					}
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					// Best effort; the replacement file may not exist yet.
					_ = fw.Add(path)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
