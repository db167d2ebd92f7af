package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
)

type CreateSessionRequest struct {
	Catalog   string  `json:"catalog"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CreateSessionResponse struct {
	ID      string          `json:"id"`
	Effects []effect.Effect `json:"effects"`
}

type PositionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AnswerRequest struct {
	ObjectID    string `json:"objectId"`
	AnswerIndex *int   `json:"answerIndex"`
}

type DismissRequest struct {
	ObjectID string `json:"objectId"`
}

type EffectsResponse struct {
	Effects []effect.Effect `json:"effects"`
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func handleCreateSession(logger *slog.Logger, store CatalogStore, sessions *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validCoordinate(req.Latitude, req.Longitude) {
			writeError(w, http.StatusBadRequest, "latitude or longitude out of range")
			return
		}
		name := strings.TrimSpace(req.Catalog)
		if name == "" {
			name = catalog.DemoName
		}

		data, err := store.GetCatalog(r.Context(), name)
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:   "catalog not found",
				Effects: []effect.Effect{effect.Status("catalog " + name + " not found")},
			})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		cat, err := catalog.Parse(data)
		if err != nil {
			logger.Error("stored catalog is invalid", "catalog", name, "error", err)
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "catalog is invalid",
				Effects: []effect.Effect{effect.Status("catalog " + name + " is invalid")},
			})
			return
		}
		if err := cat.RejectedErr(); err != nil {
			logger.Warn("catalog objects skipped", "catalog", name, "error", err)
		}

		origin := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
		runner, effects, err := sessions.Start(r.Context(), cat, origin)
		if err != nil {
			logger.Error("starting session failed", "catalog", name, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: runner.ID(), Effects: effects})
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessionRunner(r).Snapshot(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := r.URL.Query().Get("reason")
		if reason == "" {
			reason = "position feed ended"
		}
		effects, err := sessionRunner(r).End(r.Context(), reason)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, EffectsResponse{Effects: effects})
	}
}

func handlePosition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PositionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validCoordinate(req.Latitude, req.Longitude) {
			writeError(w, http.StatusBadRequest, "latitude or longitude out of range")
			return
		}

		pos := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
		if err := sessionRunner(r).UpdatePosition(r.Context(), pos); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func handleAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ObjectID == "" || req.AnswerIndex == nil {
			writeError(w, http.StatusBadRequest, "objectId and answerIndex are required")
			return
		}

		effects, err := sessionRunner(r).Answer(r.Context(), req.ObjectID, *req.AnswerIndex)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if effects == nil {
			effects = []effect.Effect{}
		}
		writeJSON(w, http.StatusOK, EffectsResponse{Effects: effects})
	}
}

func handleDismiss() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DismissRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ObjectID == "" {
			writeError(w, http.StatusBadRequest, "objectId is required")
			return
		}

		effects, err := sessionRunner(r).Dismiss(r.Context(), req.ObjectID)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, EffectsResponse{Effects: effects})
	}
}

func handleObjectInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := sessionRunner(r).Describe(r.Context(), chi.URLParam(r, "objectID"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}
