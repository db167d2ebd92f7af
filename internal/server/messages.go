package server

import (
	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/session"
)

// Messages accepted by a Runner inbox. Each carries a buffered reply channel.

type result struct {
	effects []effect.Effect
	err     error
}

// positionMsg: latest observer fix from the position feed
type positionMsg struct {
	position geo.Coordinate
	reply    chan<- error
}

type answerMsg struct {
	objectID string
	index    int
	reply    chan<- result
}

type dismissMsg struct {
	objectID string
	reply    chan<- result
}

type describeMsg struct {
	objectID string
	reply    chan<- result
}

type snapshotMsg struct {
	reply chan<- session.Snapshot
}

// endMsg: the position feed is gone for good
type endMsg struct {
	reason string
	reply  chan<- []effect.Effect
}
