package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/session"
)

var (
	ErrSessionEnded  = errors.New("session has ended")
	ErrSessionClosed = errors.New("session is closed")
)

// Runner owns one Session and is the only goroutine that touches it. The
// loop ticks the session at a fixed interval with the real elapsed time and
// serializes commands from HTTP and WebSocket handlers through Inbox.
type Runner struct {
	inbox     chan any
	sess      *session.Session
	pub       Publisher
	logger    *slog.Logger
	tickEvery time.Duration
	idle      time.Duration
	now       func() time.Time

	observer  *geo.Coordinate
	last      time.Time
	lastInput time.Time

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	OnStop func(id string) // called after the loop exits
}

func NewRunner(sess *session.Session, pub Publisher, logger *slog.Logger, tickEvery, idle time.Duration) *Runner {
	return &Runner{
		inbox:     make(chan any, 64),
		sess:      sess,
		pub:       pub,
		logger:    logger.With("session", sess.ID()),
		tickEvery: tickEvery,
		idle:      idle,
		now:       time.Now,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *Runner) ID() string { return r.sess.ID() }

// Stop ends the loop. It is safe to call more than once.
func (r *Runner) Stop() {
	r.quitOnce.Do(func() { close(r.quit) })
	<-r.done
}

func (r *Runner) Run() {
	defer func() {
		close(r.done)
		if r.OnStop != nil {
			r.OnStop(r.ID())
		}
	}()

	ticker := time.NewTicker(r.tickEvery)
	defer ticker.Stop()

	r.last = r.now()
	r.lastInput = r.last

	for {
		select {
		case <-r.quit:
			return
		case msg := <-r.inbox:
			r.handle(msg)
		case <-ticker.C:
			if r.idle > 0 && r.now().Sub(r.lastInput) > r.idle {
				r.publish(r.sess.End("session idle"))
				r.logger.Info("session stopped after idle timeout")
				return
			}
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	now := r.now()
	elapsed := now.Sub(r.last)
	r.last = now
	r.publish(r.sess.Tick(elapsed, r.observer))
}

func (r *Runner) publish(effects []effect.Effect) {
	if len(effects) == 0 {
		return
	}
	r.pub.Publish(context.Background(), r.ID(), effects)
}

func (r *Runner) handle(msg any) {
	r.lastInput = r.now()

	switch m := msg.(type) {
	case positionMsg:
		if r.sess.Ended() {
			m.reply <- ErrSessionEnded
			return
		}
		pos := m.position
		r.observer = &pos
		m.reply <- nil
	case answerMsg:
		effects, err := r.sess.Answer(m.objectID, m.index)
		r.publish(effects)
		m.reply <- result{effects: effects, err: err}
	case dismissMsg:
		effects, err := r.sess.Dismiss(m.objectID)
		r.publish(effects)
		m.reply <- result{effects: effects, err: err}
	case describeMsg:
		info, err := r.sess.Describe(m.objectID)
		if err != nil {
			m.reply <- result{err: err}
			return
		}
		effects := []effect.Effect{info}
		r.publish(effects)
		m.reply <- result{effects: effects}
	case snapshotMsg:
		m.reply <- r.sess.Snapshot()
	case endMsg:
		effects := r.sess.End(m.reason)
		if len(effects) > 0 {
			r.logger.Info("session ended", "reason", m.reason)
		}
		r.observer = nil
		r.publish(effects)
		m.reply <- effects
	default:
		r.logger.Warn("unknown runner message", "type", fmt.Sprintf("%T", msg))
	}
}

// send delivers msg to the loop and waits on reply.
func send[T any](ctx context.Context, r *Runner, msg any, reply <-chan T) (T, error) {
	var zero T
	select {
	case r.inbox <- msg:
	case <-r.done:
		return zero, ErrSessionClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		return zero, ErrSessionClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (r *Runner) UpdatePosition(ctx context.Context, pos geo.Coordinate) error {
	reply := make(chan error, 1)
	err, sendErr := send(ctx, r, positionMsg{position: pos, reply: reply}, reply)
	if sendErr != nil {
		return sendErr
	}
	return err
}

func (r *Runner) Answer(ctx context.Context, objectID string, index int) ([]effect.Effect, error) {
	reply := make(chan result, 1)
	res, err := send(ctx, r, answerMsg{objectID: objectID, index: index, reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	return res.effects, res.err
}

func (r *Runner) Dismiss(ctx context.Context, objectID string) ([]effect.Effect, error) {
	reply := make(chan result, 1)
	res, err := send(ctx, r, dismissMsg{objectID: objectID, reply: reply}, reply)
	if err != nil {
		return nil, err
	}
	return res.effects, res.err
}

func (r *Runner) Describe(ctx context.Context, objectID string) (effect.Effect, error) {
	reply := make(chan result, 1)
	res, err := send(ctx, r, describeMsg{objectID: objectID, reply: reply}, reply)
	if err != nil {
		return effect.Effect{}, err
	}
	if res.err != nil {
		return effect.Effect{}, res.err
	}
	return res.effects[0], nil
}

func (r *Runner) Snapshot(ctx context.Context) (session.Snapshot, error) {
	reply := make(chan session.Snapshot, 1)
	return send(ctx, r, snapshotMsg{reply: reply}, reply)
}

func (r *Runner) End(ctx context.Context, reason string) ([]effect.Effect, error) {
	reply := make(chan []effect.Effect, 1)
	return send(ctx, r, endMsg{reason: reason, reply: reply}, reply)
}
