// Package sse implements a Server-Sent Events broker that tells viewers
// when the deck has to be fetched again.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	EventDeckReloaded = "deck.reloaded"
	EventDeckResized  = "deck.resized"
	EventDeckError    = "deck.error"
	EventAssetChanged = "asset.changed"
	EventAssetRemoved = "asset.removed"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ReloadData is the payload of deck.reloaded.
type ReloadData struct {
	Checksum string `json:"checksum"`
	Slides   int    `json:"slides"`
}

// ResizeData is the payload of deck.resized.
type ResizeData struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the reload throttle
// state. Public methods talk to the loop through channels.
type Broker struct {
	reloadMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	reloadCh      chan ReloadData
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. At most one deck.reloaded event is
// sent per reloadThrottle; reloads arriving faster are coalesced and the
// latest one is delivered when the interval ends.
func NewBroker(reloadThrottle time.Duration) *Broker {
	if reloadThrottle <= 0 {
		reloadThrottle = 250 * time.Millisecond
	}

	b := &Broker{
		reloadMin:     reloadThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		reloadCh:      make(chan ReloadData, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastReload time.Time
		pending    *ReloadData
		flushTimer *time.Timer
		flushCh    <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	sendReload := func(data ReloadData) {
		lastReload = time.Now()
		broadcast(Event{Type: EventDeckReloaded, Data: data})
	}

	for {
		select {
		case <-b.stopCh:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case data := <-b.reloadCh:
			wait := b.reloadMin - time.Since(lastReload)
			if wait <= 0 && pending == nil {
				sendReload(data)
				continue
			}
			pending = &data
			if flushCh == nil {
				if flushTimer == nil {
					flushTimer = time.NewTimer(wait)
				} else {
					flushTimer.Reset(wait)
				}
				flushCh = flushTimer.C
			}

		case <-flushCh:
			flushCh = nil
			if pending != nil {
				sendReload(*pending)
				pending = nil
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishReload announces a newly loaded deck, subject to the reload throttle.
func (b *Broker) PublishReload(checksum string, slides int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.reloadCh <- ReloadData{Checksum: checksum, Slides: slides}:
	case <-b.stopped:
	}
}

// PublishResize announces that the deck was resolved against a new canvas.
func (b *Broker) PublishResize(width, height float32) {
	b.Publish(Event{Type: EventDeckResized, Data: ResizeData{Width: width, Height: height}})
}

// PublishError reports a failed reload. Viewers keep showing the last good deck.
func (b *Broker) PublishError(err error) {
	b.Publish(Event{Type: EventDeckError, Data: map[string]string{"error": err.Error()}})
}

// PublishAsset reports an image asset change. removed selects asset.removed.
func (b *Broker) PublishAsset(path string, removed bool) {
	typ := EventAssetChanged
	if removed {
		typ = EventAssetRemoved
	}
	b.Publish(Event{Type: typ, Data: map[string]string{"path": path}})
}

// ServeHTTP is the SSE endpoint handler (GET /events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
