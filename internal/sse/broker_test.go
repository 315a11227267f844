package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishResize(800, 600)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: deck.resized") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"width":800`) || !strings.Contains(s, `"height":600`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishErrorAndAsset(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishError(errors.New("read talk.pin: not found"))
	b.PublishAsset("img/bg.png", true)

	want := []string{
		"event: deck.error\ndata: {\"error\":\"read talk.pin: not found\"}\n\n",
		"event: asset.removed\ndata: {\"path\":\"img/bg.png\"}\n\n",
	}
	for _, w := range want {
		select {
		case msg := <-ch:
			if string(msg) != w {
				t.Errorf("msg = %q, want %q", msg, w)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func drain(ch chan []byte, wait time.Duration) []string {
	var out []string
	deadline := time.After(wait)
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		case <-deadline:
			return out
		}
	}
}

func TestPublishReload_Coalesced(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The first reload goes out at once, the next three are folded into one.
	b.PublishReload("aaa", 1)
	b.PublishReload("bbb", 2)
	b.PublishReload("ccc", 3)
	b.PublishReload("ddd", 4)

	early := drain(ch, 100*time.Millisecond)
	if len(early) != 1 || !strings.Contains(early[0], `"checksum":"aaa"`) {
		t.Fatalf("early = %q, want only aaa", early)
	}

	late := drain(ch, 500*time.Millisecond)
	if len(late) != 1 {
		t.Fatalf("late = %q, want one coalesced reload", late)
	}
	if !strings.Contains(late[0], "event: deck.reloaded") || !strings.Contains(late[0], `"checksum":"ddd","slides":4`) {
		t.Errorf("late = %q, want latest reload", late[0])
	}
}

func TestPublishReload_SpacedOut(t *testing.T) {
	b := NewBroker(50 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishReload("one", 1)
	time.Sleep(100 * time.Millisecond)
	b.PublishReload("two", 1)

	got := drain(ch, 200*time.Millisecond)
	if len(got) != 2 {
		t.Fatalf("got %d reloads, want 2: %q", len(got), got)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishReload("abc", 3)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: deck.reloaded") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.PublishResize(float32(i), 1)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.PublishReload("x", 1)
	b.PublishReload("y", 1) // leaves a pending flush behind
	b.Close()

	for {
		select {
		case _, ok := <-ch:
			if ok {
				continue
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for channel close")
		}
		break
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishReload("z", 1)
	b.PublishResize(1, 1)
}
