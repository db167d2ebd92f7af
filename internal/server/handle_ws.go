package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/quiz"
)

// ClientMessage is a command sent by the client over the session WebSocket.
type ClientMessage struct {
	Type        string  `json:"type"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	ObjectID    string  `json:"objectId,omitempty"`
	AnswerIndex *int    `json:"answerIndex,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

type wsError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wsSnapshot struct {
	Type     string `json:"type"`
	Snapshot any    `json:"snapshot"`
}

// handleSessionWS is a bidirectional session feed: commands in, effects out.
// Closing the socket leaves the session running; an "end" command ends it.
func handleSessionWS(logger *slog.Logger, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner := sessionRunner(r)
		logger := logger.With("session", runner.ID())

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		ch, unsubscribe, err := pub.Subscribe(ctx, runner.ID())
		if err != nil {
			logger.Error("subscribing to session failed", "error", err)
			conn.Close(websocket.StatusInternalError, "subscribe failed")
			return
		}
		defer unsubscribe()

		snap, err := runner.Snapshot(ctx)
		if err != nil {
			conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}
		if err := wsjson.Write(ctx, conn, wsSnapshot{Type: "snapshot", Snapshot: snap}); err != nil {
			return
		}

		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case data, ok := <-ch:
					if !ok {
						if ctx.Err() == nil {
							conn.Close(websocket.StatusTryAgainLater, "effect feed overflowed, reconnect")
						}
						return
					}
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}

			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				if err := wsjson.Write(ctx, conn, wsError{Type: "error", Message: "invalid message"}); err != nil {
					return
				}
				continue
			}

			if err := dispatch(ctx, runner, msg); err != nil {
				if errors.Is(err, ErrSessionClosed) || errors.Is(err, context.Canceled) {
					conn.Close(websocket.StatusNormalClosure, "session closed")
					return
				}
				if err := wsjson.Write(ctx, conn, wsError{Type: "error", Message: err.Error()}); err != nil {
					return
				}
			}
		}
	}
}

// dispatch forwards msg to the runner. Resulting effects reach the client
// through the subscription.
func dispatch(ctx context.Context, runner *Runner, msg ClientMessage) error {
	switch msg.Type {
	case "position":
		if !validCoordinate(msg.Latitude, msg.Longitude) {
			return errors.New("latitude or longitude out of range")
		}
		return runner.UpdatePosition(ctx, geo.Coordinate{Latitude: msg.Latitude, Longitude: msg.Longitude})
	case "answer":
		if msg.AnswerIndex == nil {
			return quiz.ErrInvalidAnswer
		}
		_, err := runner.Answer(ctx, msg.ObjectID, *msg.AnswerIndex)
		return err
	case "dismiss":
		_, err := runner.Dismiss(ctx, msg.ObjectID)
		return err
	case "describe":
		_, err := runner.Describe(ctx, msg.ObjectID)
		return err
	case "end":
		reason := msg.Reason
		if reason == "" {
			reason = "position feed ended"
		}
		_, err := runner.End(ctx, reason)
		return err
	default:
		return errors.New("unknown message type " + msg.Type)
	}
}
