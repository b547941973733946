package app

import (
	"sync"

	"biomarkers/internal/domain"
)

// AlertBus fans out newly created alerts to per-user subscribers, feeding
// the websocket stream. Slow subscribers drop alerts rather than block the
// publisher.
type AlertBus struct {
	mu   sync.Mutex
	subs map[int64]map[chan domain.Alert]struct{}
}

// NewAlertBus creates an empty bus.
func NewAlertBus() *AlertBus {
	return &AlertBus{subs: make(map[int64]map[chan domain.Alert]struct{})}
}

// Subscribe registers a listener for one user's alerts. The returned cancel
// function must be called to release the channel.
func (b *AlertBus) Subscribe(userID int64) (<-chan domain.Alert, func()) {
	ch := make(chan domain.Alert, 16)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan domain.Alert]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an alert to every subscriber of its user.
func (b *AlertBus) Publish(a domain.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[a.UserID] {
		select {
		case ch <- a:
		default:
		}
	}
}
