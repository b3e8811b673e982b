package serve

import (
	"sync"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
)

// Hub fans run events out to status watchers. Slow watchers lose
// intermediate statuses, never the latest one.
type Hub struct {
	mu   sync.Mutex
	subs map[chan artifact.RunStatus]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan artifact.RunStatus]struct{})}
}

func (h *Hub) Emit(ev runner.RunEvent) {
	if ev.Status.RunID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		pushLatest(ch, ev.Status)
	}
}

// Subscribe returns a channel of statuses and a func that releases it.
func (h *Hub) Subscribe() (<-chan artifact.RunStatus, func()) {
	ch := make(chan artifact.RunStatus, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func pushLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
