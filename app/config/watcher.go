package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Remove drops a directive from the cache.
func (dc *DirectiveCache) Remove(code string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	delete(dc.cache, normalizeCode(code))
}

// Watch reloads directive files as they change on disk until ctx is done.
// Files that fail to parse keep their previous configuration.
func (dc *DirectiveCache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(dc.directivesDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dc.directivesDir, err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				dc.handleEvent(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Directive watcher error", "error", err)
			}
		}
	}()

	slog.Info("Watching directive configurations", "dir", dc.directivesDir)
	return nil
}

// handleEvent applies one file event and reports whether the cache changed.
func (dc *DirectiveCache) handleEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if filepath.Ext(name) != ".yml" || strings.HasPrefix(name, ".") {
		return false
	}
	code := strings.TrimSuffix(name, ".yml")

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		dc.Remove(code)
		slog.Info("Directive removed", "directive", normalizeCode(code))
		return true

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		directive, err := dc.LoadConfig(code)
		if err != nil {
			slog.Warn("Failed to reload directive", "file", event.Name, "error", err)
			return false
		}
		slog.Info("Directive reloaded", "directive", directive.Code, "enabled", directive.Settings.Enabled)
		return true
	}

	return false
}
