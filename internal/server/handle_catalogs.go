package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/planetquest/internal/catalog"
)

// RejectedObject is a catalog object dropped by validation.
type RejectedObject struct {
	ObjectID string `json:"objectId"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

// PutCatalogResponse is the response for PUT /api/admin/catalogs/{name}.
type PutCatalogResponse struct {
	CatalogSummary
	Rejected []RejectedObject `json:"rejected"`
}

func validCatalogName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func handleListCatalogs(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetCatalog(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := store.GetCatalog(r.Context(), chi.URLParam(r, "name"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "catalog not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handlePutCatalog(logger *slog.Logger, store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !validCatalogName(name) {
			writeError(w, http.StatusBadRequest, "catalog name must match [a-z0-9_-]{1,64}")
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cat, err := catalog.Parse(data)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		resp := PutCatalogResponse{Rejected: []RejectedObject{}}
		for _, rej := range cat.Rejected {
			logger.Warn("catalog object rejected", "catalog", name, "object", rej.ObjectID, "field", rej.Field, "reason", rej.Reason)
			resp.Rejected = append(resp.Rejected, RejectedObject{ObjectID: rej.ObjectID, Field: rej.Field, Reason: rej.Reason})
		}

		if err := store.PutCatalog(r.Context(), name, data, len(cat.Objects)); err != nil {
			logger.Error("saving catalog failed", "catalog", name, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp.CatalogSummary = CatalogSummary{Name: name, ObjectCount: len(cat.Objects), UpdatedAt: nowUTC()}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleDeleteCatalog(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteCatalog(r.Context(), chi.URLParam(r, "name"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "catalog not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
