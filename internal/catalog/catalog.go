// Package catalog decodes and validates the planet catalogs that seed a
// session. A document holds a "planets" array whose entries carry the anchor distance as
// "distanciafoco1" and the correct answer as "rightAnswer".
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Demo is a small solar system catalog used to seed empty stores.
//
//go:embed demo.json
var Demo []byte

// DemoName is the store name the demo catalog is saved under.
const DemoName = "solar-system"

// MaxAnchorDistance is the largest accepted anchor distance in meters.
// Objects are meant to be walked to.
const MaxAnchorDistance = 50_000.0

var (
	ErrInvalidDocument = errors.New("invalid catalog document")
	ErrNoObjects       = errors.New("catalog has no valid objects")
)

// Question is a multiple choice question attached to an object.
type Question struct {
	Text    string
	Answers []string
	Correct int
}

// Object is a celestial object anchored relative to the session origin.
type Object struct {
	ID             string
	Name           string
	AnchorDistance float64 // meters from the origin
	AngularSpeed   float64 // degrees per millisecond, 0 for stationary objects
	Size           float64
	Texture        string
	Image          string
	Description    string
	Questions      []Question
}

// Moving reports whether the object orbits the origin.
func (o Object) Moving() bool { return o.AngularSpeed != 0 }

// Catalog is the validated content of a catalog document.
type Catalog struct {
	// TriggerRange overrides the configured trigger range when positive.
	TriggerRange float64
	Objects      []Object
	// Rejected lists the objects dropped during validation.
	Rejected []*ValidationError
}

// ValidationError identifies the object and field that failed validation.
type ValidationError struct {
	ObjectID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog object %q: %s: %s", e.ObjectID, e.Field, e.Reason)
}

// RejectedErr joins the rejected objects into one error, or nil.
func (c *Catalog) RejectedErr() error {
	errs := make([]error, len(c.Rejected))
	for i, r := range c.Rejected {
		errs[i] = r
	}
	return errors.Join(errs...)
}

type document struct {
	TriggerRange float64     `json:"triggerRange,omitempty"`
	Planets      []planetDoc `json:"planets"`
}

type planetDoc struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Distance    float64       `json:"distanciafoco1"`
	Size        float64       `json:"size"`
	Texture     string        `json:"texture,omitempty"`
	Image       string        `json:"image,omitempty"`
	Description string        `json:"description,omitempty"`
	Speed       float64       `json:"speed"`
	Questions   []questionDoc `json:"questions,omitempty"`
}

type questionDoc struct {
	Question    string   `json:"question"`
	Answers     []string `json:"answers"`
	RightAnswer int      `json:"rightAnswer"`
}

// Parse decodes and validates a catalog document. Invalid objects are
// skipped and recorded in Catalog.Rejected; Parse only fails when the
// document cannot be decoded or no object survives validation.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.TriggerRange < 0 {
		return nil, fmt.Errorf("%w: triggerRange must not be negative", ErrInvalidDocument)
	}

	cat := &Catalog{TriggerRange: doc.TriggerRange}
	seen := make(map[string]bool, len(doc.Planets))

	for i, p := range doc.Planets {
		id := p.ID
		if id == "" {
			id = uniqueID(slug(p.Name, i), seen)
		} else if seen[id] {
			cat.Rejected = append(cat.Rejected, &ValidationError{ObjectID: id, Field: "id", Reason: "duplicate id"})
			continue
		}

		if verr := validate(id, p); verr != nil {
			cat.Rejected = append(cat.Rejected, verr)
			continue
		}
		seen[id] = true

		obj := Object{
			ID:             id,
			Name:           p.Name,
			AnchorDistance: p.Distance,
			AngularSpeed:   p.Speed,
			Size:           p.Size,
			Texture:        p.Texture,
			Image:          p.Image,
			Description:    p.Description,
		}
		for _, q := range p.Questions {
			obj.Questions = append(obj.Questions, Question{
				Text:    q.Question,
				Answers: append([]string(nil), q.Answers...),
				Correct: q.RightAnswer,
			})
		}
		cat.Objects = append(cat.Objects, obj)
	}

	if len(cat.Objects) == 0 {
		return nil, errors.Join(ErrNoObjects, cat.RejectedErr())
	}
	return cat, nil
}

func validate(id string, p planetDoc) *ValidationError {
	switch {
	case p.Distance < 0:
		return &ValidationError{ObjectID: id, Field: "distanciafoco1", Reason: "must not be negative"}
	case p.Distance > MaxAnchorDistance:
		return &ValidationError{ObjectID: id, Field: "distanciafoco1", Reason: fmt.Sprintf("must not exceed %g meters", MaxAnchorDistance)}
	case p.Size <= 0:
		return &ValidationError{ObjectID: id, Field: "size", Reason: "must be positive"}
	case p.Speed < 0:
		return &ValidationError{ObjectID: id, Field: "speed", Reason: "must not be negative"}
	}

	for i, q := range p.Questions {
		if len(q.Answers) == 0 {
			return &ValidationError{ObjectID: id, Field: fmt.Sprintf("questions[%d].answers", i), Reason: "must not be empty"}
		}
		if q.RightAnswer < 0 || q.RightAnswer >= len(q.Answers) {
			return &ValidationError{
				ObjectID: id,
				Field:    fmt.Sprintf("questions[%d].rightAnswer", i),
				Reason:   fmt.Sprintf("index %d out of range for %d answers", q.RightAnswer, len(q.Answers)),
			}
		}
	}
	return nil
}

func slug(name string, index int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return fmt.Sprintf("object-%d", index+1)
	}
	return s
}

func uniqueID(base string, seen map[string]bool) string {
	id := base
	for n := 2; seen[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}
