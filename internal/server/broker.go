package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/playperu/planetquest/internal/effect"
)

// Publisher fans session effects out to the SSE and WebSocket subscribers
// of that session.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, effects []effect.Effect)
	// Subscribe returns a channel of JSON-encoded effects and a function that
	// ends the subscription. The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error)
}

// Broker is an in-process Publisher keyed by session ID.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

func (b *Broker) Subscribe(_ context.Context, sessionID string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() { once.Do(func() { b.unsubscribe(sessionID, ch) }) }, nil
}

func (b *Broker) unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sessionID, ch)
}

// remove drops ch and closes it. Callers hold b.mu.
func (b *Broker) remove(sessionID string, ch chan []byte) {
	if _, ok := b.subs[sessionID][ch]; !ok {
		return
	}
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	close(ch)
}

// Publish sends each effect to all subscribers of the session. A full
// subscriber skips transient effects; any other effect it cannot take ends
// its subscription, so it reconnects and resyncs from a snapshot.
func (b *Broker) Publish(_ context.Context, sessionID string, effects []effect.Effect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs[sessionID]) == 0 {
		return
	}
	for _, e := range effects {
		data, _ := json.Marshal(e)
		for ch := range b.subs[sessionID] {
			select {
			case ch <- data:
			default:
				if !e.Type.Transient() {
					b.remove(sessionID, ch)
				}
			}
		}
	}
}
