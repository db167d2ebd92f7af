package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	cat, err := catalog.Parse([]byte(quizCatalog))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	sess, _, err := session.New(context.Background(), "test", cat, geo.Coordinate{Latitude: limaLat, Longitude: limaLon}, session.Options{
		TriggerRange: 5,
		Locale:       "en",
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner(newTestSession(t), NewBroker(), slog.Default(), 5*time.Millisecond, 0)
	stopped := make(chan string, 1)
	r.OnStop = func(id string) { stopped <- id }
	go r.Run()

	ctx := context.Background()
	if _, err := r.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	r.Stop()
	r.Stop()

	select {
	case id := <-stopped:
		if id != "test" {
			t.Errorf("OnStop id = %q, want test", id)
		}
	case <-time.After(time.Second):
		t.Fatal("OnStop not called")
	}

	if _, err := r.Snapshot(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Snapshot after stop: err = %v, want ErrSessionClosed", err)
	}
}

func TestRunnerPublishesTicks(t *testing.T) {
	broker := NewBroker()
	r := NewRunner(newTestSession(t), broker, slog.Default(), 5*time.Millisecond, 0)

	ch, cancel, err := broker.Subscribe(context.Background(), r.ID())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	go r.Run()
	defer r.Stop()

	if err := r.UpdatePosition(context.Background(), geo.Coordinate{Latitude: limaLat, Longitude: limaLon}); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}

	seen := map[effect.Type]bool{}
	timeout := time.After(2 * time.Second)
	for !seen[effect.TypeProximity] || !seen[effect.TypeShowQuestion] {
		select {
		case data := <-ch:
			var e effect.Effect
			if err := json.Unmarshal(data, &e); err != nil {
				t.Fatalf("unmarshal effect: %v", err)
			}
			seen[e.Type] = true
		case <-timeout:
			t.Fatalf("effects seen %v, want proximity and show-question", seen)
		}
	}
}

func TestManagerIdleTimeout(t *testing.T) {
	broker := NewBroker()
	m := NewManager(broker, slog.Default(), SessionOptions{
		TickEvery:   5 * time.Millisecond,
		IdleTimeout: 40 * time.Millisecond,
	})
	defer m.Close()

	cat, err := catalog.Parse([]byte(quizCatalog))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	r, _, err := m.Start(context.Background(), cat, geo.Coordinate{Latitude: limaLat, Longitude: limaLon})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	ch, cancel, err := broker.Subscribe(context.Background(), r.ID())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if _, ok := m.Get(r.ID()); !ok {
		t.Fatal("session not registered")
	}

	select {
	case data := <-ch:
		var e effect.Effect
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("unmarshal effect: %v", err)
		}
		if e.Type != effect.TypeStatus || e.Message != "session idle" {
			t.Errorf("effect = %+v, want idle status", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no idle status published")
	}

	waitFor(t, "session to be removed", func() bool { return m.Len() == 0 })
}
