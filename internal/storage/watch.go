package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the settings file whenever another process edits it and
// calls onChange after each effective reload. Writes made by this store are
// recognised by content hash and do not trigger onChange. Events are
// coalesced over debounce. Watch blocks until ctx is cancelled.
func (s *FileStore) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory: an atomic rename replaces the file inode, which
	// would silently drop a watch placed on the file itself.
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.log.Debug("watching %s for external edits", s.path)

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	dirty := false
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				dirty = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("settings watcher: %v", err)

		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			changed, err := s.reloadChanged()
			if err != nil {
				s.log.Warn("settings reload: %v", err)
				continue
			}
			if changed {
				s.log.Info("settings file changed on disk, reloaded")
				if onChange != nil {
					onChange()
				}
			}
		}
	}
}
