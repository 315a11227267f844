// Package watch reloads the deck when files in the presentation directory change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/pinpoint/internal/options"
)

// DefaultDebounce is how long deck events are collected before one callback fires.
// Editors often save with several writes or a write-then-rename.
const DefaultDebounce = 150 * time.Millisecond

// Event kinds passed to EventCallback.
const (
	KindDeck         = "deck"
	KindAssetChanged = "asset.changed"
	KindAssetRemoved = "asset.removed"
)

// EventCallback is called from the watcher goroutine. path is relative to root.
type EventCallback func(kind string, path string)

// Watch watches root and its subdirectories until ctx is cancelled.
// Changes to deckPath (relative to root) are debounced into a single
// KindDeck callback. Image asset changes are reported immediately.
func Watch(ctx context.Context, root, deckPath string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	deckPath = filepath.Clean(deckPath)

	logger.Info("watcher: started", slog.String("root", root), slog.String("deck", deckPath))

	var deckTimer *time.Timer
	var deckCh <-chan time.Time

	scheduleDeck := func() {
		if deckTimer == nil {
			deckTimer = time.NewTimer(debounce)
			deckCh = deckTimer.C
		} else {
			deckTimer.Reset(debounce)
		}
	}

	emit := func(kind, path string) {
		if cb != nil {
			cb(kind, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if deckTimer != nil {
				deckTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-deckCh:
			logger.Debug("watcher: deck changed", slog.String("path", deckPath))
			emit(KindDeck, filepath.ToSlash(deckPath))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || strings.HasPrefix(filepath.Base(rel), ".") {
				continue
			}

			switch {
			case rel == deckPath:
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					scheduleDeck()
				}
			case options.IsImageFile(rel):
				kind := KindAssetChanged
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					kind = KindAssetRemoved
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				logger.Debug("watcher: asset event", slog.String("path", rel), slog.String("kind", kind))
				emit(kind, filepath.ToSlash(rel))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
