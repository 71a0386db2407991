package templates

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after the registry has been refreshed because of
// a file-system change under the templates directory.
type EventCallback func()

// Watch starts an fsnotify watcher on the templates directory and rescans
// the registry on changes until ctx is cancelled. Bursts of events (editor
// saves, bulk copies) are debounced into a single rescan. New directories
// created at runtime are added to the watch list.
func (r *Registry) Watch(ctx context.Context, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, r.root); err != nil {
		// The directory may not exist yet; watch its parent so a later
		// mkdir still triggers a scan.
		if addErr := w.Add(filepath.Dir(r.root)); addErr != nil {
			return addErr
		}
	}

	logger.Info("templates: watcher started", slog.String("root", r.root))

	var rescanTimer *time.Timer
	var rescanCh <-chan time.Time

	scheduleRescan := func() {
		if rescanTimer == nil {
			rescanTimer = time.NewTimer(200 * time.Millisecond)
			rescanCh = rescanTimer.C
		} else {
			rescanTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rescanTimer != nil {
				rescanTimer.Stop()
			}
			logger.Info("templates: watcher stopped")
			return nil

		case <-rescanCh:
			if err := r.Rescan(); err != nil {
				logger.Warn("templates: rescan failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("templates: registry refreshed")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("templates: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRescan()
					continue
				}
			}

			if filepath.Ext(ev.Name) != ".md" {
				continue
			}
			scheduleRescan()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("templates: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
