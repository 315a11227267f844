package presenter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/pinpoint/internal/apperr"
	"github.com/starford/pinpoint/internal/checksum"
	"github.com/starford/pinpoint/internal/layout"
	"github.com/starford/pinpoint/internal/models"
	"github.com/starford/pinpoint/internal/storage"
	"github.com/starford/pinpoint/internal/testutil"
)

const sampleDeck = "[center]\n-- [black]\nHello\n-- [command=echo hi]\nSecond\n"

func newService(t *testing.T, src string) (*Service, string) {
	t.Helper()
	dir, store := testutil.TestDir(t)
	testutil.WriteFile(t, dir, "talk.pin", src)
	return NewService(store, "talk.pin", layout.DefaultConfig(), 2, testutil.Logger()), dir
}

func TestSnapshot_NotLoaded(t *testing.T) {
	svc, _ := newService(t, sampleDeck)
	if _, err := svc.Snapshot(); !errors.Is(err, apperr.ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
	if svc.Ready() {
		t.Error("Ready before Load")
	}
	if _, err := svc.Slide(0); !errors.Is(err, apperr.ErrNotLoaded) {
		t.Errorf("Slide err = %v", err)
	}
}

func TestLoad(t *testing.T) {
	svc, dir := newService(t, sampleDeck)
	changed, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !changed {
		t.Error("first Load should report a change")
	}

	snap, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Checksum != checksum.SumString(sampleDeck) {
		t.Errorf("checksum = %q", snap.Checksum)
	}
	if snap.Size != int64(len(sampleDeck)) {
		t.Errorf("size = %d", snap.Size)
	}
	if len(snap.Resolved.Slides) != 2 {
		t.Fatalf("slides = %d, want 2", len(snap.Resolved.Slides))
	}
	if snap.Resolved.PresentationDir != dir {
		t.Errorf("dir = %q, want %q", snap.Resolved.PresentationDir, dir)
	}
	first := snap.Resolved.Slides[0]
	if first.Background != (models.SolidColor{Color: models.Black}) || first.TextPosition != models.PositionCenter {
		t.Errorf("first slide = %+v", first)
	}
	if !svc.Ready() {
		t.Error("not ready after Load")
	}
}

func TestLoad_UnchangedSkipsReload(t *testing.T) {
	svc, _ := newService(t, sampleDeck)
	ctx := context.Background()
	if _, err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}
	before, _ := svc.Snapshot()

	changed, err := svc.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("unchanged file reported as changed")
	}
	after, _ := svc.Snapshot()
	if before != after {
		t.Error("snapshot replaced for unchanged file")
	}
}

func TestLoad_PicksUpEdits(t *testing.T) {
	svc, dir := newService(t, sampleDeck)
	ctx := context.Background()
	if _, err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, dir, "talk.pin", "--\nonly one")
	changed, err := svc.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("edit not detected")
	}
	snap, _ := svc.Snapshot()
	if len(snap.Deck.Slides) != 1 || snap.Deck.Slides[0].Content != "only one" {
		t.Errorf("deck = %+v", snap.Deck)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, store := testutil.TestDir(t)
	svc := NewService(store, "missing.pin", layout.DefaultConfig(), 0, testutil.Logger())
	if _, err := svc.Load(context.Background()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoad_KeepsRemainder(t *testing.T) {
	svc, _ := newService(t, "[a]\nstray\n--\nx")
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap, _ := svc.Snapshot()
	if snap.Remainder != "stray\n--\nx" {
		t.Errorf("remainder = %q", snap.Remainder)
	}
}

func TestSlideAndCommand(t *testing.T) {
	svc, _ := newService(t, sampleDeck)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	s, err := svc.Slide(1)
	if err != nil {
		t.Fatalf("Slide(1): %v", err)
	}
	if s.TextSpans[0].Text != "Second\n" {
		t.Errorf("text = %q", s.TextSpans[0].Text)
	}
	for _, i := range []int{-1, 2} {
		if _, err := svc.Slide(i); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Slide(%d) err = %v", i, err)
		}
	}

	cmd, err := svc.Command(1)
	if err != nil || cmd != "echo hi" {
		t.Errorf("Command(1) = %q, %v", cmd, err)
	}
	if _, err := svc.Command(0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Command(0) err = %v", err)
	}
}

func TestResize(t *testing.T) {
	svc, _ := newService(t, "--\n"+"xxxxxxxxxxxxxxxxxxxx")
	ctx := context.Background()

	if _, err := svc.Resize(ctx, 400, 300); !errors.Is(err, apperr.ErrNotLoaded) {
		t.Errorf("resize before load err = %v", err)
	}
	if _, err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}
	snap, _ := svc.Snapshot()
	if snap.Canvas != (layout.Config{Width: 400, Height: 300}) {
		t.Errorf("canvas chosen before load not kept: %+v", snap.Canvas)
	}
	small := snap.Resolved.Slides[0].BaseFontSize

	resized, err := svc.Resize(ctx, 1024, 768)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if resized.Resolved.Slides[0].BaseFontSize <= small {
		t.Errorf("font did not grow: %v -> %v", small, resized.Resolved.Slides[0].BaseFontSize)
	}
	if resized.Checksum != snap.Checksum {
		t.Error("resize changed checksum")
	}

	for _, c := range [][2]float32{{0, 768}, {1024, -1}} {
		if _, err := svc.Resize(ctx, c[0], c[1]); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("Resize(%v) err = %v", c, err)
		}
	}
}

// gatedStore blocks the first Root call after arm until release is closed.
type gatedStore struct {
	storage.Provider
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Root() string {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.Provider.Root()
}

func TestResize_ConcurrentLoadKeepsNewDeck(t *testing.T) {
	dir, base := testutil.TestDir(t)
	testutil.WriteFile(t, dir, "talk.pin", "--\nOld\n")
	store := &gatedStore{Provider: base, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(store, "talk.pin", layout.DefaultConfig(), 0, testutil.Logger())
	ctx := context.Background()
	if _, err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}

	store.armed.Store(true)
	resizeErr := make(chan error, 1)
	go func() {
		_, err := svc.Resize(ctx, 400, 300)
		resizeErr <- err
	}()
	<-store.entered

	testutil.WriteFile(t, dir, "talk.pin", "--\nNew\n--\nTwo\n")
	type loadResult struct {
		changed bool
		err     error
	}
	loadDone := make(chan loadResult, 1)
	go func() {
		changed, err := svc.Load(ctx)
		loadDone <- loadResult{changed, err}
	}()

	select {
	case <-loadDone:
		t.Fatal("Load finished while Resize was resolving")
	case <-time.After(50 * time.Millisecond):
	}
	close(store.release)

	if err := <-resizeErr; err != nil {
		t.Fatalf("Resize: %v", err)
	}
	res := <-loadDone
	if res.err != nil || !res.changed {
		t.Fatalf("Load = %v, %v; want changed", res.changed, res.err)
	}

	snap, err := svc.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Resolved.Slides) != 2 || snap.Deck.Slides[0].Content != "New" {
		t.Errorf("slides = %d, first = %q; want the reloaded deck", len(snap.Resolved.Slides), snap.Deck.Slides[0].Content)
	}
	if snap.Canvas != (layout.Config{Width: 400, Height: 300}) {
		t.Errorf("canvas = %+v, want the resized canvas", snap.Canvas)
	}
}

func TestAssets(t *testing.T) {
	svc, dir := newService(t, "[bg.png]\n--\nx")
	testutil.WriteFile(t, dir, "bg.png", "png")
	assets, err := svc.Assets()
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 1 || assets[0].Path != "bg.png" {
		t.Errorf("assets = %+v", assets)
	}
}
