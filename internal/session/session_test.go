package session

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/playperu/planetquest/internal/catalog"
	"github.com/playperu/planetquest/internal/effect"
	"github.com/playperu/planetquest/internal/geo"
	"github.com/playperu/planetquest/internal/quiz"
)

var origin = geo.Coordinate{Latitude: -12.0464, Longitude: -77.0428}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{Objects: []catalog.Object{
		{ID: "sun", Name: "Sun", Size: 2},
		{
			ID: "moon", Name: "Moon", AnchorDistance: 20, Size: 1,
			Questions: []catalog.Question{{
				Text:    "What causes the phases of the Moon?",
				Answers: []string{"Earth's shadow", "Its orbit around Earth"},
				Correct: 1,
			}},
		},
		{ID: "comet", Name: "Comet", AnchorDistance: 300, AngularSpeed: 0.09, Size: 1},
	}}
}

func newTestSession(t *testing.T, cat *catalog.Catalog) (*Session, []effect.Effect) {
	t.Helper()
	s, out, err := New(context.Background(), "test", cat, origin, Options{
		TriggerRange: 5,
		DisplayDelay: time.Second,
		Locale:       "en",
		Workers:      2,
		Rand:         rand.New(rand.NewPCG(7, 7)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, out
}

func find(effects []effect.Effect, typ effect.Type, id string) (effect.Effect, bool) {
	for _, e := range effects {
		if e.Type == typ && (id == "" || e.ObjectID == id) {
			return e, true
		}
	}
	return effect.Effect{}, false
}

func TestNewPlacesObjects(t *testing.T) {
	_, out := newTestSession(t, testCatalog())

	sun, ok := find(out, effect.TypePlace, "sun")
	if !ok {
		t.Fatal("missing place effect for sun")
	}
	if *sun.Position != origin {
		t.Errorf("anchor distance 0 placed at %+v, want origin %+v", *sun.Position, origin)
	}
	if sun.Name != "Sun" || sun.Size != 2 {
		t.Errorf("place effect missing render data: %+v", sun)
	}

	moon, _ := find(out, effect.TypePlace, "moon")
	if d := geo.Distance(origin, *moon.Position); math.Abs(d-20) > 0.1 {
		t.Errorf("moon placed %v m from origin, want 20", d)
	}

	if _, ok := find(out, effect.TypeOrbitRing, "comet"); !ok {
		t.Error("moving object should get an orbit ring")
	}
	if _, ok := find(out, effect.TypeOrbitRing, "moon"); ok {
		t.Error("stationary object should not get an orbit ring")
	}
	score, ok := find(out, effect.TypeScoreChanged, "")
	if !ok || *score.Total != 0 || *score.Bonus != quiz.InitialBonus {
		t.Errorf("initial score effect = %+v", score)
	}
}

func TestPlaceIsOrdered(t *testing.T) {
	objs := make([]catalog.Object, 50)
	for i := range objs {
		objs[i] = catalog.Object{ID: string(rune('A' + i)), AnchorDistance: float64(i)}
	}
	got, err := Place(context.Background(), objs, origin, 4)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	for i, p := range got {
		if p.ObjectID != objs[i].ID {
			t.Fatalf("placement %d = %q, want %q", i, p.ObjectID, objs[i].ID)
		}
	}
}

func TestPlaceHugeOrbit(t *testing.T) {
	objs := []catalog.Object{{ID: "far", AnchorDistance: 1e18, AngularSpeed: 0.01, Size: 1}}
	got, err := Place(context.Background(), objs, origin, 1)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if n := len(got[0].Ring); n != geo.MaxRingSegments {
		t.Errorf("ring points = %d, want %d", n, geo.MaxRingSegments)
	}
}

func TestPlaceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Place(ctx, testCatalog().Objects, origin, 1); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestTickWithoutObserver(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	if out := s.Tick(time.Second, nil); len(out) != 0 {
		t.Fatalf("effects without observer: %+v", out)
	}
	for _, o := range s.Snapshot().Objects {
		if o.ID == "comet" && o.Position != geo.Offset(origin, 300, 0) {
			t.Errorf("comet moved without observer: %+v", o.Position)
		}
	}
}

func TestTickMovesOrbitingObjects(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	out := s.Tick(time.Second, &origin) // 0.09 deg/ms for 1s = 90 degrees

	comet, ok := find(out, effect.TypePlace, "comet")
	if !ok {
		t.Fatal("missing place effect for comet")
	}
	want := geo.Offset(origin, 300, 90)
	if math.Abs(comet.Position.Latitude-want.Latitude) > 1e-9 || math.Abs(comet.Position.Longitude-want.Longitude) > 1e-9 {
		t.Errorf("comet at %+v, want %+v", *comet.Position, want)
	}
	if _, ok := find(out, effect.TypePlace, "moon"); ok {
		t.Error("stationary objects must not be re-placed")
	}
}

func TestTickProximityMessage(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	observer := geo.Offset(origin, 2, 180)

	out := s.Tick(10*time.Millisecond, &observer)
	p, ok := find(out, effect.TypeProximity, "")
	if !ok {
		t.Fatal("missing proximity effect")
	}
	if p.ObjectID != "sun" || p.Message != "2 meters to Sun" {
		t.Errorf("proximity = %+v", p)
	}
}

func TestQuizScenario(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	moon := geo.Offset(origin, 20, 0)

	far := geo.Offset(moon, 10, 0)
	if _, ok := find(s.Tick(100*time.Millisecond, &far), effect.TypeShowQuestion, ""); ok {
		t.Fatal("question shown at 10 m")
	}

	near := geo.Offset(moon, 3, 0)
	show, ok := find(s.Tick(100*time.Millisecond, &near), effect.TypeShowQuestion, "moon")
	if !ok {
		t.Fatal("question not shown at 3 m")
	}
	if len(show.Answers) != 2 {
		t.Fatalf("answers = %v", show.Answers)
	}
	if _, ok := find(s.Tick(100*time.Millisecond, &near), effect.TypeShowQuestion, ""); ok {
		t.Fatal("question shown twice")
	}

	if _, err := s.Answer("moon", 0); err != nil {
		t.Fatalf("wrong answer: %v", err)
	}
	if snap := s.Snapshot(); snap.Bonus != 3 || snap.Presenting == nil {
		t.Fatalf("after miss: bonus %d, presenting %v", snap.Bonus, snap.Presenting)
	}

	out, err := s.Answer("moon", 1)
	if err != nil {
		t.Fatalf("correct answer: %v", err)
	}
	score, _ := find(out, effect.TypeScoreChanged, "")
	if *score.Total != 3 || score.Points != 3 || *score.Bonus != quiz.InitialBonus {
		t.Errorf("score = %+v", score)
	}

	if _, ok := find(s.Tick(time.Second, &near), effect.TypeHideQuestion, "moon"); !ok {
		t.Fatal("question not hidden after display delay")
	}

	// Leave and come back: a completed object stays completed.
	s.Tick(100*time.Millisecond, &far)
	if _, ok := find(s.Tick(100*time.Millisecond, &near), effect.TypeShowQuestion, ""); ok {
		t.Fatal("completed object presented again")
	}
	for _, o := range s.Snapshot().Objects {
		if o.ID == "moon" && o.State != quiz.Completed {
			t.Errorf("moon state = %v, want completed", o.State)
		}
	}
}

func TestDescribe(t *testing.T) {
	cat := testCatalog()
	cat.Objects[0].Description = "Our star."
	cat.Objects[0].Image = "images/sun.jpg"
	s, _ := newTestSession(t, cat)

	info, err := s.Describe("sun")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if info.Type != effect.TypeShowInfo || info.Description != "Our star." || info.Image != "images/sun.jpg" {
		t.Errorf("info = %+v", info)
	}
	if _, err := s.Describe("pluto"); err == nil {
		t.Error("expected error for unknown object")
	}
}

func TestEndStopsTicking(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	out := s.End("position feed ended")
	if len(out) != 1 || out[0].Type != effect.TypeStatus {
		t.Fatalf("End effects = %+v", out)
	}
	if out := s.Tick(time.Second, &origin); out != nil {
		t.Errorf("ticked after end: %+v", out)
	}
	if out := s.End("again"); out != nil {
		t.Errorf("second End emitted %+v", out)
	}
	if !s.Snapshot().Ended {
		t.Error("snapshot should report ended")
	}
}

func TestCatalogTriggerRangeOverrides(t *testing.T) {
	cat := testCatalog()
	cat.TriggerRange = 12
	s, _ := newTestSession(t, cat)
	if got := s.Snapshot().Range; got != 12 {
		t.Errorf("range = %v, want 12", got)
	}
}

func TestEndCompletesSolvedQuestion(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	near := geo.Offset(origin, 20, 0)
	s.Tick(100*time.Millisecond, &near)

	if _, err := s.Answer("moon", 1); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	out := s.End("position feed ended")
	if _, ok := find(out, effect.TypeHideQuestion, "moon"); !ok {
		t.Errorf("End effects = %+v, want hide-question for moon", out)
	}
	if _, ok := find(out, effect.TypeStatus, ""); !ok {
		t.Errorf("End effects = %+v, want status", out)
	}

	snap := s.Snapshot()
	if snap.Presenting != nil {
		t.Errorf("presenting = %+v after end", snap.Presenting)
	}
	for _, o := range snap.Objects {
		if o.ID == "moon" && o.State != quiz.Completed {
			t.Errorf("moon state = %v, want completed", o.State)
		}
	}
}

func TestEndKeepsUnsolvedQuestion(t *testing.T) {
	s, _ := newTestSession(t, testCatalog())
	near := geo.Offset(origin, 20, 0)
	s.Tick(100*time.Millisecond, &near)

	out := s.End("position feed ended")
	if len(out) != 1 || out[0].Type != effect.TypeStatus {
		t.Fatalf("End effects = %+v, want only status", out)
	}
	if s.Snapshot().Presenting == nil {
		t.Error("unsolved question should stay presented")
	}
}
