package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/geo"
)

// Placement is the initial position of one object. Moving objects also carry
// the points of their orbit ring.
type Placement struct {
	ObjectID string
	Position geo.Coordinate
	Ring     []geo.Coordinate
}

// Place computes the initial placement of every object around origin. The
// work is a pure function of its inputs, so it is fanned out over at most
// workers goroutines and handed back as a new slice in catalog order.
func Place(ctx context.Context, objects []catalog.Object, origin geo.Coordinate, workers int) ([]Placement, error) {
	out := make([]Placement, len(objects))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, obj := range objects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := Placement{
				ObjectID: obj.ID,
				Position: geo.Offset(origin, obj.AnchorDistance, 0),
			}
			if obj.Moving() {
				p.Ring = geo.Ring(origin, obj.AnchorDistance, 0)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
