// Package effect defines the commands the engine emits for the rendering and
// UI collaborators. Effects are flat values so they serialize directly to
// the JSON pushed over SSE and WebSocket.
package effect

import "github.com/playperu/planetquest/internal/geo"

type Type string

const (
	TypePlace        Type = "place"
	TypeOrbitRing    Type = "orbit-ring"
	TypeShowQuestion Type = "show-question"
	TypeMarkAnswer   Type = "mark-answer"
	TypeHideQuestion Type = "hide-question"
	TypeScoreChanged Type = "score-changed"
	TypeProximity    Type = "proximity"
	TypeShowInfo     Type = "show-info"
	TypeStatus       Type = "status"
)

// Transient reports whether the next tick supersedes an effect of this type.
// Sinks may drop transient effects under load; losing any other type leaves
// the client out of sync.
func (t Type) Transient() bool {
	return t == TypePlace || t == TypeProximity
}

// Effect is a single command for an external sink. Only the fields relevant
// to Type are set.
type Effect struct {
	Type        Type             `json:"type"`
	ObjectID    string           `json:"objectId,omitempty"`
	Name        string           `json:"name,omitempty"`
	Position    *geo.Coordinate  `json:"position,omitempty"`
	Ring        []geo.Coordinate `json:"ring,omitempty"`
	Question    string           `json:"question,omitempty"`
	Answers     []string         `json:"answers,omitempty"`
	AnswerIndex *int             `json:"answerIndex,omitempty"`
	Correct     *bool            `json:"correct,omitempty"`
	Points      int              `json:"points,omitempty"`
	Total       *int             `json:"total,omitempty"`
	Bonus       *int             `json:"bonus,omitempty"`
	Message     string           `json:"message,omitempty"`
	Description string           `json:"description,omitempty"`
	Image       string           `json:"image,omitempty"`
	Size        float64          `json:"size,omitempty"`
	Texture     string           `json:"texture,omitempty"`
}

func Place(id string, pos geo.Coordinate) Effect {
	return Effect{Type: TypePlace, ObjectID: id, Position: &pos}
}

func OrbitRing(id string, points []geo.Coordinate) Effect {
	return Effect{Type: TypeOrbitRing, ObjectID: id, Ring: points}
}

func ShowQuestion(id, name, question string, answers []string) Effect {
	return Effect{Type: TypeShowQuestion, ObjectID: id, Name: name, Question: question, Answers: answers}
}

func MarkAnswer(id string, index int, correct bool) Effect {
	return Effect{Type: TypeMarkAnswer, ObjectID: id, AnswerIndex: &index, Correct: &correct}
}

func HideQuestion(id string) Effect {
	return Effect{Type: TypeHideQuestion, ObjectID: id}
}

// ScoreChanged carries the ledger after an answer. points is what the answer
// awarded, zero for a wrong answer.
func ScoreChanged(total, bonus, points int) Effect {
	return Effect{Type: TypeScoreChanged, Total: &total, Bonus: &bonus, Points: points}
}

func Proximity(id, message string) Effect {
	return Effect{Type: TypeProximity, ObjectID: id, Message: message}
}

func ShowInfo(id, name, description, image string) Effect {
	return Effect{Type: TypeShowInfo, ObjectID: id, Name: name, Description: description, Image: image}
}

// Status reports a terminal condition such as a missing catalog or an ended
// position feed.
func Status(message string) Effect {
	return Effect{Type: TypeStatus, Message: message}
}
