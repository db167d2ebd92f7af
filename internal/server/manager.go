package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/session"
)

// SessionOptions configure every session a Manager starts.
type SessionOptions struct {
	TickEvery        time.Duration
	IdleTimeout      time.Duration
	TriggerRange     float64
	DisplayDelay     time.Duration
	Locale           string
	PlacementWorkers int
}

// Manager holds the running sessions by ID. Sessions are removed when their
// runner stops.
type Manager struct {
	mu      sync.RWMutex
	runners map[string]*Runner
	pub     Publisher
	logger  *slog.Logger
	opts    SessionOptions
}

func NewManager(pub Publisher, logger *slog.Logger, opts SessionOptions) *Manager {
	if opts.TickEvery <= 0 {
		opts.TickEvery = 100 * time.Millisecond
	}
	return &Manager{
		runners: make(map[string]*Runner),
		pub:     pub,
		logger:  logger,
		opts:    opts,
	}
}

// Start places cat around origin and starts a runner for the new session.
// The returned effects set up the scene and are not published.
func (m *Manager) Start(ctx context.Context, cat *catalog.Catalog, origin geo.Coordinate) (*Runner, []effect.Effect, error) {
	id := uuid.NewString()
	sess, effects, err := session.New(ctx, id, cat, origin, session.Options{
		TriggerRange: m.opts.TriggerRange,
		DisplayDelay: m.opts.DisplayDelay,
		Locale:       m.opts.Locale,
		Workers:      m.opts.PlacementWorkers,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}

	r := NewRunner(sess, m.pub, m.logger, m.opts.TickEvery, m.opts.IdleTimeout)
	r.OnStop = m.remove

	m.mu.Lock()
	m.runners[id] = r
	m.mu.Unlock()

	go r.Run()
	m.logger.Info("session started", "session", id, "objects", len(cat.Objects))
	return r, effects, nil
}

func (m *Manager) Get(id string) (*Runner, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runners[id]
	return r, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runners)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.runners, id)
	m.mu.Unlock()
}

// Close stops every runner.
func (m *Manager) Close() {
	m.mu.RLock()
	runners := make([]*Runner, 0, len(m.runners))
	for _, r := range m.runners {
		runners = append(runners, r)
	}
	m.mu.RUnlock()

	for _, r := range runners {
		r.Stop()
	}
}
