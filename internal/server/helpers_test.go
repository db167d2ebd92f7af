package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	adminUser     = "admin"
	adminPassword = "s3cret"
)

// quizCatalog has one stationary object at the origin so any observer fix
// at the origin is in range.
const quizCatalog = `{
  "triggerRange": 5,
  "planets": [
    {
      "id": "moon",
      "name": "Moon",
      "distanciafoco1": 0,
      "size": 1,
      "speed": 0,
      "description": "Earth's only natural satellite.",
      "image": "images/moon.jpg",
      "questions": [
        {"question": "Which body orbits the Earth?", "answers": ["Mars", "Moon"], "rightAnswer": 1}
      ]
    }
  ]
}`

type testEnv struct {
	router   http.Handler
	store    *DocStore
	sessions *Manager
	broker   *Broker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := setupStore(t)
	if err := store.PutCatalog(context.Background(), "moon", []byte(quizCatalog), 1); err != nil {
		t.Fatalf("store catalog: %v", err)
	}

	broker := NewBroker()
	sessions := NewManager(broker, slog.Default(), SessionOptions{
		TickEvery:    5 * time.Millisecond,
		IdleTimeout:  time.Minute,
		TriggerRange: 5,
		DisplayDelay: 20 * time.Millisecond,
		Locale:       "en",
	})
	t.Cleanup(sessions.Close)

	return &testEnv{
		router: newRouter(slog.Default(), Deps{
			Catalogs:  store,
			Sessions:  sessions,
			Publisher: broker,
			Admin:     AdminCredentials{User: adminUser, PasswordHash: string(hash)},
		}, nil),
		store:    store,
		sessions: sessions,
		broker:   broker,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if strings.HasPrefix(path, "/api/admin/") {
		req.SetBasicAuth(adminUser, adminPassword)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
