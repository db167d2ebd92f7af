package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyRunner ctxKey = iota

func sessionMiddleware(sessions *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			runner, ok := sessions.Get(chi.URLParam(r, "sessionID"))
			if !ok {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyRunner, runner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminAuthMiddleware(creds AdminCredentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !creds.Enabled() {
				writeError(w, http.StatusForbidden, "admin access disabled")
				return
			}
			if err := creds.verify(r); err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="planetquest"`)
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionRunner(r *http.Request) *Runner {
	return r.Context().Value(ctxKeyRunner).(*Runner)
}
