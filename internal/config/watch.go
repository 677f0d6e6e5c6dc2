package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the preferences whenever the file changes, until ctx is
// done. The parent directory is watched so atomic replaces are seen. Reload
// failures go to onErr and keep the previous preferences.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, onErr func(error)) error {
	if s.path == "" {
		return ErrNoPath
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go s.watchLoop(ctx, w, debounce, onErr)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, onErr func(error)) {
	defer w.Close()

	target := filepath.Clean(s.path)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if onErr != nil {
				onErr(err)
			}

		case <-timer.C:
			s.log.Debugf("preferences %s changed, reloading", s.path)
			if err := s.Load(); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
