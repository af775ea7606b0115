package session

import (
	"log/slog"
	"sync"
)

// hub fans values out to subscribers without ever blocking the publisher.
// When retain is set the last published value is replayed to new subscribers
// and served by Last.
type hub[T any] struct {
	name   string
	retain bool
	log    *slog.Logger

	mu      sync.Mutex
	subs    map[int]chan T
	nextID  int
	last    T
	hasLast bool
	closed  bool
}

func newHub[T any](name string, retain bool, log *slog.Logger) *hub[T] {
	return &hub[T]{
		name:   name,
		retain: retain,
		log:    log,
		subs:   make(map[int]chan T),
	}
}

func (h *hub[T]) subscribe(buf int) (<-chan T, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan T, buf)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.retain && h.hasLast {
		ch <- h.last
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if h.retain {
		h.last = v
		h.hasLast = true
	}

	for id, ch := range h.subs {
		select {
		case ch <- v:
		default:
			h.log.Warn("subscriber buffer full, dropping", "stream", h.name, "subscriber", id)
		}
	}
}

func (h *hub[T]) current() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.hasLast
}

func (h *hub[T]) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub[T]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
