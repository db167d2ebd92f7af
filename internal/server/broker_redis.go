package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/planetquest/internal/effect"
)

// RedisBroker is a Publisher backed by Redis pub/sub, so that any instance
// can stream the effects of a session ticking on another one.
type RedisBroker struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisBroker(rdb *redis.Client, logger *slog.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, logger: logger}
}

func sessionChannel(sessionID string) string {
	return "planetquest:session:" + sessionID
}

func (b *RedisBroker) Publish(ctx context.Context, sessionID string, effects []effect.Effect) {
	for _, e := range effects {
		data, _ := json.Marshal(e)
		if err := b.rdb.Publish(ctx, sessionChannel(sessionID), data).Err(); err != nil {
			b.logger.Warn("publishing effect failed", "session", sessionID, "type", e.Type, "error", err)
			return
		}
	}
}

func (b *RedisBroker) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	ps := b.rdb.Subscribe(ctx, sessionChannel(sessionID))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("subscribing to session %s: %w", sessionID, err)
	}

	ch := make(chan []byte, 64)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			select {
			case ch <- []byte(msg.Payload):
			default:
				if !transientPayload(msg.Payload) {
					b.logger.Warn("subscriber too slow, ending subscription", "session", sessionID)
					ps.Close()
					return
				}
			}
		}
	}()
	return ch, func() { ps.Close() }, nil
}

func transientPayload(payload string) bool {
	var head struct {
		Type effect.Type `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return false
	}
	return head.Type.Transient()
}
