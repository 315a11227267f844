// Package presenter holds the currently loaded deck and its resolution.
package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/starford/pinpoint/internal/apperr"
	"github.com/starford/pinpoint/internal/checksum"
	"github.com/starford/pinpoint/internal/layout"
	"github.com/starford/pinpoint/internal/models"
	"github.com/starford/pinpoint/internal/parser"
	"github.com/starford/pinpoint/internal/storage"
)

// Snapshot is an immutable view of one loaded deck. Callers must not modify it.
type Snapshot struct {
	Deck      models.SlideDeck
	Resolved  models.ResolvedDeck
	Remainder string
	Checksum  string
	Size      int64
	LoadedAt  time.Time
	Canvas    layout.Config
}

// Service loads the deck file from storage and keeps the latest snapshot.
type Service struct {
	store    storage.Provider
	deckPath string
	workers  int
	logger   *slog.Logger

	// reload serializes Load and Resize from read to install.
	reload sync.Mutex

	mu     sync.RWMutex
	canvas layout.Config
	snap   *Snapshot
}

// NewService creates a presenter for deckPath, relative to the store root.
func NewService(store storage.Provider, deckPath string, canvas layout.Config, workers int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		deckPath: deckPath,
		workers:  workers,
		logger:   logger,
		canvas:   canvas,
	}
}

// DeckPath returns the deck file path relative to the store root.
func (s *Service) DeckPath() string { return s.deckPath }

// Load reads and resolves the deck file. It reports whether a new snapshot
// was installed; an unchanged file keeps the current one.
func (s *Service) Load(ctx context.Context) (bool, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	data, err := s.store.Read(s.deckPath)
	if err != nil {
		return false, fmt.Errorf("presenter: load: %w", err)
	}
	sum := checksum.Sum(data)

	s.mu.RLock()
	current, canvas := s.snap, s.canvas
	s.mu.RUnlock()
	if current != nil && current.Checksum == sum && current.Canvas == canvas {
		return false, nil
	}

	snap, err := s.build(ctx, string(data), sum, canvas)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("presenter: deck loaded",
		slog.String("path", s.deckPath),
		slog.String("checksum", checksum.Short(sum)),
		slog.Int("slides", len(snap.Deck.Slides)),
		slog.String("size", humanize.Bytes(uint64(snap.Size))))
	if snap.Remainder != "" {
		s.logger.Warn("presenter: trailing text ignored",
			slog.String("path", s.deckPath),
			slog.Int("bytes", len(snap.Remainder)))
	}
	s.checkAssets(snap)
	return true, nil
}

// Resize re-resolves the loaded deck against a new canvas.
func (s *Service) Resize(ctx context.Context, width, height float32) (*Snapshot, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("presenter: canvas %vx%v: %w", width, height, apperr.ErrInvalidArgument)
	}
	canvas := layout.Config{Width: width, Height: height}

	s.reload.Lock()
	defer s.reload.Unlock()

	s.mu.RLock()
	current := s.snap
	s.mu.RUnlock()
	if current == nil {
		s.mu.Lock()
		s.canvas = canvas
		s.mu.Unlock()
		return nil, apperr.ErrNotLoaded
	}

	resolved, err := layout.ResolveDeckParallel(ctx, current.Deck, s.store.Root(), canvas, s.workers)
	if err != nil {
		return nil, fmt.Errorf("presenter: resize: %w", err)
	}
	next := *current
	next.Resolved = resolved
	next.Canvas = canvas

	s.mu.Lock()
	s.canvas = canvas
	s.snap = &next
	s.mu.Unlock()

	s.logger.Info("presenter: canvas resized",
		slog.Float64("width", float64(width)),
		slog.Float64("height", float64(height)))
	return &next, nil
}

// Snapshot returns the current snapshot, or ErrNotLoaded.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, apperr.ErrNotLoaded
	}
	return s.snap, nil
}

// Canvas returns the canvas the deck is resolved against.
func (s *Service) Canvas() layout.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas
}

// Workers returns the configured resolve parallelism.
func (s *Service) Workers() int { return s.workers }

// Ready reports whether a deck has been loaded.
func (s *Service) Ready() bool {
	_, err := s.Snapshot()
	return err == nil
}

// Slide returns the resolved slide at the 0-based index i.
func (s *Service) Slide(i int) (models.ResolvedSlide, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return models.ResolvedSlide{}, err
	}
	if i < 0 || i >= len(snap.Resolved.Slides) {
		return models.ResolvedSlide{}, fmt.Errorf("presenter: slide %d of %d: %w", i, len(snap.Resolved.Slides), apperr.ErrNotFound)
	}
	return snap.Resolved.Slides[i], nil
}

// Command returns the command= value of slide i. A slide without one is ErrNotFound.
func (s *Service) Command(i int) (string, error) {
	slide, err := s.Slide(i)
	if err != nil {
		return "", err
	}
	if slide.Command == "" {
		return "", fmt.Errorf("presenter: slide %d has no command: %w", i, apperr.ErrNotFound)
	}
	return slide.Command, nil
}

// Assets lists the image files available in the presentation directory.
func (s *Service) Assets() ([]models.FileMeta, error) {
	return s.store.List("")
}

func (s *Service) build(ctx context.Context, src, sum string, canvas layout.Config) (*Snapshot, error) {
	deck, rest := parser.ParseDetailed(src)
	resolved, err := layout.ResolveDeckParallel(ctx, deck, s.store.Root(), canvas, s.workers)
	if err != nil {
		return nil, fmt.Errorf("presenter: resolve: %w", err)
	}
	return &Snapshot{
		Deck:      deck,
		Resolved:  resolved,
		Remainder: rest,
		Checksum:  sum,
		Size:      int64(len(src)),
		LoadedAt:  time.Now(),
		Canvas:    canvas,
	}, nil
}

// checkAssets warns about image backgrounds that do not exist on disk.
func (s *Service) checkAssets(snap *Snapshot) {
	seen := make(map[string]bool)
	for _, slide := range snap.Resolved.Slides {
		img, ok := slide.Background.(models.ImageBackground)
		if !ok || seen[img.Path] {
			continue
		}
		seen[img.Path] = true
		if _, err := s.store.Stat(img.Path); err != nil {
			s.logger.Warn("presenter: background image unavailable",
				slog.String("image", img.Path),
				slog.String("error", err.Error()))
		}
	}
}
