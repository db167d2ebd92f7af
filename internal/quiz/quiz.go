// Package quiz runs the per-object question triggers and keeps the score.
//
// Each object moves through Idle, Presenting and Completed. An Idle object
// with questions arms when the observer is within the trigger range and no
// other object is presenting. A correct answer completes the object after a
// short display delay; a dismissed question returns it to Idle, and it only
// re-arms after the observer has left the range.
package quiz

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/effect"
)

const (
	DefaultTriggerRange = 5.0
	DefaultDisplayDelay = time.Second
)

var (
	ErrUnknownObject = errors.New("unknown object")
	ErrNotPresenting = errors.New("no question is being presented for object")
	ErrInvalidAnswer = errors.New("answer index out of range")
)

type State int

const (
	Idle State = iota
	Presenting
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Presenting:
		return "presenting"
	case Completed:
		return "completed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Reading is the observer's distance to one object during a tick.
type Reading struct {
	ID       string
	Distance float64
}

type Options struct {
	TriggerRange float64
	DisplayDelay time.Duration
}

type trigger struct {
	id        string
	name      string
	questions []catalog.Question
	state     State

	current  *catalog.Question
	picked   map[int]bool
	solved   bool
	closeIn  time.Duration
	mustExit bool
}

// Engine owns the triggers of one session and its Ledger. It is not safe
// for concurrent use.
type Engine struct {
	ledger       *Ledger
	rng          *rand.Rand
	triggerRange float64
	displayDelay time.Duration

	triggers   map[string]*trigger
	presenting *trigger
}

func NewEngine(ledger *Ledger, rng *rand.Rand, opts Options) *Engine {
	if opts.TriggerRange <= 0 {
		opts.TriggerRange = DefaultTriggerRange
	}
	if opts.DisplayDelay < 0 {
		opts.DisplayDelay = 0
	}
	return &Engine{
		ledger:       ledger,
		rng:          rng,
		triggerRange: opts.TriggerRange,
		displayDelay: opts.DisplayDelay,
		triggers:     make(map[string]*trigger),
	}
}

// Add registers an object. Objects without questions are tracked but never
// arm.
func (e *Engine) Add(obj catalog.Object) {
	e.triggers[obj.ID] = &trigger{
		id:        obj.ID,
		name:      obj.Name,
		questions: obj.Questions,
	}
}

func (e *Engine) Ledger() *Ledger { return e.ledger }

func (e *Engine) TriggerRange() float64 { return e.triggerRange }

// State returns the trigger state of the object.
func (e *Engine) State(id string) (State, bool) {
	t, ok := e.triggers[id]
	if !ok {
		return Idle, false
	}
	return t.state, true
}

// Presenting returns the object whose question is on screen.
func (e *Engine) Presenting() (string, bool) {
	if e.presenting == nil {
		return "", false
	}
	return e.presenting.id, true
}

// Question returns the question currently shown for object id.
func (e *Engine) Question(id string) (catalog.Question, bool) {
	t, ok := e.triggers[id]
	if !ok || t.current == nil {
		return catalog.Question{}, false
	}
	return *t.current, true
}

// Advance counts down the display delay of a solved question and completes
// the object once it runs out.
func (e *Engine) Advance(elapsed time.Duration) []effect.Effect {
	t := e.presenting
	if t == nil || !t.solved {
		return nil
	}
	t.closeIn -= elapsed
	if t.closeIn > 0 {
		return nil
	}
	return []effect.Effect{e.complete(t)}
}

// Settle completes a solved question at once, skipping the rest of its
// display delay.
func (e *Engine) Settle() []effect.Effect {
	t := e.presenting
	if t == nil || !t.solved {
		return nil
	}
	return []effect.Effect{e.complete(t)}
}

// Check arms at most one Idle object per call. Readings must be in catalog
// order so that ties resolve to the first object.
func (e *Engine) Check(readings []Reading) []effect.Effect {
	var out []effect.Effect
	for _, r := range readings {
		t, ok := e.triggers[r.ID]
		if !ok || t.state != Idle || len(t.questions) == 0 {
			continue
		}
		inRange := r.Distance <= e.triggerRange
		if t.mustExit {
			t.mustExit = inRange
			continue
		}
		if inRange && e.presenting == nil {
			out = append(out, e.present(t))
		}
	}
	return out
}

func (e *Engine) present(t *trigger) effect.Effect {
	q := &t.questions[e.rng.IntN(len(t.questions))]
	t.state = Presenting
	t.current = q
	t.picked = make(map[int]bool, len(q.Answers))
	t.solved = false
	e.presenting = t
	return effect.ShowQuestion(t.id, t.name, q.Text, q.Answers)
}

// Answer resolves a selection for the presented question of object id.
// Selecting an index twice, or anything after the correct answer, is a no-op.
func (e *Engine) Answer(id string, index int) ([]effect.Effect, error) {
	t, ok := e.triggers[id]
	if !ok {
		return nil, ErrUnknownObject
	}
	if t.state != Presenting {
		return nil, ErrNotPresenting
	}
	if index < 0 || index >= len(t.current.Answers) {
		return nil, ErrInvalidAnswer
	}
	if t.solved || t.picked[index] {
		return nil, nil
	}
	t.picked[index] = true

	if index != t.current.Correct {
		e.ledger.ApplyIncorrect()
		return []effect.Effect{
			effect.MarkAnswer(id, index, false),
			effect.ScoreChanged(e.ledger.Total(), e.ledger.Bonus(), 0),
		}, nil
	}

	points := e.ledger.ApplyCorrect()
	out := []effect.Effect{
		effect.MarkAnswer(id, index, true),
		effect.ScoreChanged(e.ledger.Total(), e.ledger.Bonus(), points),
	}
	t.solved = true
	t.closeIn = e.displayDelay
	if t.closeIn <= 0 {
		out = append(out, e.complete(t))
	}
	return out, nil
}

// Dismiss closes the presented question of object id. An unsolved question
// returns the object to Idle; a solved one completes it immediately.
func (e *Engine) Dismiss(id string) ([]effect.Effect, error) {
	t, ok := e.triggers[id]
	if !ok {
		return nil, ErrUnknownObject
	}
	if t.state != Presenting {
		return nil, ErrNotPresenting
	}
	if t.solved {
		return []effect.Effect{e.complete(t)}, nil
	}

	t.state = Idle
	t.current = nil
	t.picked = nil
	t.mustExit = true
	e.presenting = nil
	return []effect.Effect{effect.HideQuestion(id)}, nil
}

func (e *Engine) complete(t *trigger) effect.Effect {
	t.state = Completed
	t.current = nil
	t.picked = nil
	e.presenting = nil
	return effect.HideQuestion(t.id)
}
