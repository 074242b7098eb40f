package commands

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/cellgen/internal/cli/config"
	"github.com/leapstack-labs/cellgen/internal/loader"
)

const watchDebounce = 100 * time.Millisecond

// watchModels calls onChange with the model documents written or created
// under roots until ctx is done. Roots may be files or directories. Bursts
// of events are debounced into one call.
func watchModels(ctx context.Context, roots []string, debounce time.Duration, logger *slog.Logger, onChange func(paths []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Single files are watched through their directory.
	files := map[string]bool{}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files[filepath.Clean(root)] = true
			if err := watcher.Add(filepath.Dir(root)); err != nil {
				return err
			}
			continue
		}
		if err := watchDirRecursive(watcher, root); err != nil {
			return err
		}
	}

	var (
		mu            sync.Mutex
		pending       = map[string]bool{}
		debounceTimer *time.Timer
	)
	flush := func() {
		mu.Lock()
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		clear(pending)
		mu.Unlock()
		slices.Sort(changed)
		onChange(changed)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)

			// New directories under a watched root are watched as well.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, name); err != nil {
						logger.Warn("failed to watch directory", slog.String("dir", name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !loader.IsModelFile(name) || config.IsConfigFile(name) {
				continue
			}
			if !files[name] && !underDir(name, roots) {
				continue
			}

			mu.Lock()
			pending[name] = true
			mu.Unlock()

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				logger.Debug("model documents changed", slog.String("file", name))
				flush()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

// underDir reports whether path lies in one of the directory roots.
func underDir(path string, roots []string) bool {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(filepath.Clean(root), path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
