// Package session ties the geodetic, orbit, proximity and quiz packages
// into one observer session driven by Tick.
//
// A Session is owned by a single goroutine: every method must be called from
// the loop that calls Tick.
package session

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/orbit"
	"github.com/playperu/planetquest/internal/proximity"
	"github.com/playperu/planetquest/internal/quiz"
)

type Options struct {
	TriggerRange float64
	DisplayDelay time.Duration
	Locale       string
	Workers      int
	// Rand picks questions. A nil Rand is seeded from crypto/rand.
	Rand *rand.Rand
}

type entry struct {
	object   catalog.Object
	motion   *orbit.Motion
	position geo.Coordinate
}

type Session struct {
	id         string
	origin     geo.Coordinate
	order      []string
	entries    map[string]*entry
	engine     *quiz.Engine
	classifier *proximity.Classifier
	ended      bool
}

// New places the catalog around origin and returns the session with the
// effects that set up the scene.
func New(ctx context.Context, id string, cat *catalog.Catalog, origin geo.Coordinate, opts Options) (*Session, []effect.Effect, error) {
	placements, err := Place(ctx, cat.Objects, origin, opts.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("placing objects: %w", err)
	}

	rng := opts.Rand
	if rng == nil {
		if rng, err = newRand(); err != nil {
			return nil, nil, err
		}
	}
	triggerRange := opts.TriggerRange
	if cat.TriggerRange > 0 {
		triggerRange = cat.TriggerRange
	}

	ledger := quiz.NewLedger()
	s := &Session{
		id:      id,
		origin:  origin,
		order:   make([]string, 0, len(cat.Objects)),
		entries: make(map[string]*entry, len(cat.Objects)),
		engine: quiz.NewEngine(ledger, rng, quiz.Options{
			TriggerRange: triggerRange,
			DisplayDelay: opts.DisplayDelay,
		}),
		classifier: proximity.NewClassifier(opts.Locale),
	}

	var out []effect.Effect
	for i, obj := range cat.Objects {
		p := placements[i]
		e := &entry{object: obj, position: p.Position}
		if obj.Moving() {
			e.motion = &orbit.Motion{}
		}
		s.entries[obj.ID] = e
		s.order = append(s.order, obj.ID)
		s.engine.Add(obj)

		place := effect.Place(obj.ID, p.Position)
		place.Name, place.Size, place.Texture = obj.Name, obj.Size, obj.Texture
		out = append(out, place)
		if p.Ring != nil {
			out = append(out, effect.OrbitRing(obj.ID, p.Ring))
		}
	}
	out = append(out, effect.ScoreChanged(ledger.Total(), ledger.Bonus(), 0))
	return s, out, nil
}

func newRand() (*rand.Rand, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]))), nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Origin() geo.Coordinate { return s.origin }

func (s *Session) Ended() bool { return s.ended }

// Tick advances the session by elapsed time. observer is nil while the
// position feed has not produced a fix; motion and proximity are skipped for
// that tick but pending question timers still run.
func (s *Session) Tick(elapsed time.Duration, observer *geo.Coordinate) []effect.Effect {
	if s.ended {
		return nil
	}
	out := s.engine.Advance(elapsed)
	if observer == nil {
		return out
	}

	targets := make([]proximity.Target, 0, len(s.order))
	readings := make([]quiz.Reading, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		if e.motion != nil {
			e.motion.Advance(e.object.AngularSpeed, elapsed)
			e.position = e.motion.Position(s.origin, e.object.AnchorDistance)
			out = append(out, effect.Place(id, e.position))
		}
		targets = append(targets, proximity.Target{ID: id, Name: e.object.Name, Position: e.position})
		readings = append(readings, quiz.Reading{ID: id, Distance: geo.Distance(*observer, e.position)})
	}

	if m, ok := proximity.Nearest(observer, targets); ok {
		out = append(out, effect.Proximity(m.ID, s.classifier.Classify(m.Distance, m.Name)))
	}
	return append(out, s.engine.Check(readings)...)
}

func (s *Session) Answer(objectID string, index int) ([]effect.Effect, error) {
	return s.engine.Answer(objectID, index)
}

func (s *Session) Dismiss(objectID string) ([]effect.Effect, error) {
	return s.engine.Dismiss(objectID)
}

// Describe returns the info panel for an object.
func (s *Session) Describe(objectID string) (effect.Effect, error) {
	e, ok := s.entries[objectID]
	if !ok {
		return effect.Effect{}, quiz.ErrUnknownObject
	}
	o := e.object
	return effect.ShowInfo(o.ID, o.Name, o.Description, o.Image), nil
}

// End stops motion and proximity updates. Scores and trigger states are
// kept so the session can still be inspected. A question already answered
// correctly is completed without waiting for its display delay.
func (s *Session) End(reason string) []effect.Effect {
	if s.ended {
		return nil
	}
	s.ended = true
	return append(s.engine.Settle(), effect.Status(reason))
}

type ObjectStatus struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	State    quiz.State     `json:"state"`
	Position geo.Coordinate `json:"position"`
	Moving   bool           `json:"moving"`
}

type Snapshot struct {
	ID         string         `json:"id"`
	Origin     geo.Coordinate `json:"origin"`
	Total      int            `json:"total"`
	Bonus      int            `json:"bonus"`
	Range      float64        `json:"triggerRange"`
	Ended      bool           `json:"ended"`
	Presenting *effect.Effect `json:"presenting,omitempty"`
	Objects    []ObjectStatus `json:"objects"`
}

func (s *Session) Snapshot() Snapshot {
	ledger := s.engine.Ledger()
	snap := Snapshot{
		ID:      s.id,
		Origin:  s.origin,
		Total:   ledger.Total(),
		Bonus:   ledger.Bonus(),
		Range:   s.engine.TriggerRange(),
		Ended:   s.ended,
		Objects: make([]ObjectStatus, 0, len(s.order)),
	}
	for _, id := range s.order {
		e := s.entries[id]
		state, _ := s.engine.State(id)
		snap.Objects = append(snap.Objects, ObjectStatus{
			ID:       id,
			Name:     e.object.Name,
			State:    state,
			Position: e.position,
			Moving:   e.motion != nil,
		})
	}
	if id, ok := s.engine.Presenting(); ok {
		if q, ok := s.engine.Question(id); ok {
			show := effect.ShowQuestion(id, s.entries[id].object.Name, q.Text, q.Answers)
			snap.Presenting = &show
		}
	}
	return snap
}
