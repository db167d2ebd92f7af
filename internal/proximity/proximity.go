// Package proximity finds the object closest to the observer and turns the
// distance into display text.
package proximity

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/playperu/planetquest/internal/geo"
)

// NearThreshold is the distance below which the message names the exact
// number of meters.
const NearThreshold = 1000.0

// Target is an object the observer can approach.
type Target struct {
	ID       string
	Name     string
	Position geo.Coordinate
}

// Match is the result of Nearest.
type Match struct {
	ID       string
	Name     string
	Distance float64
}

// Nearest returns the target closest to observer. Ties keep the earliest
// target. It reports false when observer is nil or there are no targets.
func Nearest(observer *geo.Coordinate, targets []Target) (Match, bool) {
	if observer == nil || len(targets) == 0 {
		return Match{}, false
	}

	best := Match{Distance: math.Inf(1)}
	found := false
	for _, t := range targets {
		d := geo.Distance(*observer, t.Position)
		if d < best.Distance {
			best = Match{ID: t.ID, Name: t.Name, Distance: d}
			found = true
		}
	}
	return best, found
}

const (
	keyMeters      = "%d meters to %s"
	keyApproaching = "approaching %s"
	keyFallback    = "a planet"
)

var supported = []language.Tag{language.English, language.BrazilianPortuguese}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	b.SetString(language.English, keyMeters, keyMeters)
	b.SetString(language.English, keyApproaching, keyApproaching)
	b.SetString(language.English, keyFallback, keyFallback)
	b.SetString(language.BrazilianPortuguese, keyMeters, "%d metros até %s")
	b.SetString(language.BrazilianPortuguese, keyApproaching, "Aproximando-se de %s")
	b.SetString(language.BrazilianPortuguese, keyFallback, "um planeta")
	return b
}

// Classifier renders proximity messages in one locale.
type Classifier struct {
	printer *message.Printer
}

// NewClassifier returns a Classifier for the given BCP 47 locale. Unknown or
// malformed locales fall back to English.
func NewClassifier(locale string) *Classifier {
	tag := language.English
	if req, err := language.Parse(locale); err == nil {
		_, idx, _ := language.NewMatcher(supported).Match(req)
		tag = supported[idx]
	}
	return &Classifier{printer: message.NewPrinter(tag, message.Catalog(newCatalog()))}
}

// Classify returns the display text for an object name at distance meters.
func (c *Classifier) Classify(distance float64, name string) string {
	if name == "" {
		name = c.printer.Sprintf(keyFallback)
	}
	if distance < NearThreshold {
		return c.printer.Sprintf(keyMeters, int(math.Round(distance)), name)
	}
	return c.printer.Sprintf(keyApproaching, name)
}
