package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/models"
)

const testCatalogYAML = `
exercises:
  - id: bench-press
    name: Bench Press
    category: push
    engagements:
      - { muscle: chest, percent: 100 }
      - { muscle: triceps, percent: 60 }
`

// fakeStore is an in-memory engine.Store for handler tests.
type fakeStore struct {
	workouts  map[uuid.UUID]bool
	baselines map[catalog.Muscle]models.MuscleBaseline
	states    []models.MuscleState
}

var _ engine.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	fs := &fakeStore{
		workouts:  make(map[uuid.UUID]bool),
		baselines: make(map[catalog.Muscle]models.MuscleBaseline),
	}
	for _, m := range catalog.AllMuscles {
		fs.baselines[m] = models.MuscleBaseline{UserID: 1, Muscle: m, SystemLearnedMax: 10000}
	}
	return fs
}

func (fs *fakeStore) WorkoutExists(_ context.Context, _ int, id uuid.UUID) (bool, error) {
	return fs.workouts[id], nil
}

func (fs *fakeStore) Baselines(_ context.Context, _ int) (map[catalog.Muscle]models.MuscleBaseline, error) {
	return fs.baselines, nil
}

func (fs *fakeStore) MuscleStates(_ context.Context, _ int) ([]models.MuscleState, error) {
	return fs.states, nil
}

func (fs *fakeStore) PersonalBests(_ context.Context, _ int, _ []string) (map[string]models.PersonalBest, error) {
	return map[string]models.PersonalBest{}, nil
}

func (fs *fakeStore) AllPersonalBests(_ context.Context, _ int) ([]models.PersonalBest, error) {
	return nil, nil
}

func (fs *fakeStore) MuscleVolumeRange(_ context.Context, _ int, _, _ time.Time) (map[catalog.Muscle]float64, error) {
	return map[catalog.Muscle]float64{}, nil
}

func (fs *fakeStore) ApplyWorkout(_ context.Context, update *models.WorkoutUpdate) error {
	fs.workouts[update.Workout.ID] = true
	fs.states = append(fs.states, update.States...)
	return nil
}

func testServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, err := catalog.Load(strings.NewReader(testCatalogYAML), catalog.PolicyStrict, log)
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}
	fs := newFakeStore()
	eng := engine.New(fs, cat, engine.DefaultConfig, log)
	return &Server{eng: eng, log: log}, fs
}

func asUser(req *http.Request, userID int) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), userIDKey, userID))
}

func withMuscleParam(req *http.Request, name string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("muscle", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestHandleProcessWorkout verifies a valid workout submission returns the
// processing result and persists through the store.
func TestHandleProcessWorkout(t *testing.T) {
	s, fs := testServer(t)

	body := `{
		"name": "Push Day",
		"performed_at": "2026-02-10T17:00:00Z",
		"exercises": [
			{"exercise_id": "bench-press", "sets": [
				{"weight": 100, "reps": 10},
				{"weight": 100, "reps": 8}
			]}
		]
	}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader(body)), 1)
	rec := httptest.NewRecorder()

	s.handleProcessWorkout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result engine.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.TotalVolume != 1800 {
		t.Errorf("total_volume = %v, want 1800", result.TotalVolume)
	}
	if len(result.Muscles) != 2 {
		t.Errorf("got %d muscle reports, want 2 (chest, triceps)", len(result.Muscles))
	}
	if !fs.workouts[result.WorkoutID] {
		t.Error("workout not persisted")
	}
}

// TestHandleProcessWorkoutUnknownExercise verifies an uncataloged exercise
// id maps to 422 with the calculation_failed state.
func TestHandleProcessWorkoutUnknownExercise(t *testing.T) {
	s, fs := testServer(t)

	body := `{"exercises": [{"exercise_id": "ex999", "sets": [{"weight": 50, "reps": 10}]}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader(body)), 1)
	rec := httptest.NewRecorder()

	s.handleProcessWorkout(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp["state"] != "calculation_failed" {
		t.Errorf("state = %q, want calculation_failed", resp["state"])
	}
	if len(fs.workouts) != 0 {
		t.Error("failed workout persisted")
	}
}

// TestHandleProcessWorkoutBadJSON verifies malformed bodies get 400.
func TestHandleProcessWorkoutBadJSON(t *testing.T) {
	s, _ := testServer(t)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader("{")), 1)
	rec := httptest.NewRecorder()

	s.handleProcessWorkout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHandleMuscleStates verifies the snapshot endpoint returns every
// muscle, untrained ones included.
func TestHandleMuscleStates(t *testing.T) {
	s, fs := testServer(t)
	trained := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)
	fs.states = []models.MuscleState{{
		UserID: 1, Muscle: catalog.Chest, FatiguePercent: 90,
		LastTrained: trained, RecoveredAt: trained.Add(80 * time.Hour),
	}}

	req := asUser(httptest.NewRequest(http.MethodGet,
		"/api/v1/muscles?at=2026-02-11T17:00:00Z", nil), 1)
	rec := httptest.NewRecorder()

	s.handleMuscleStates(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var snaps []engine.MuscleSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snaps); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(snaps) != len(catalog.AllMuscles) {
		t.Fatalf("got %d snapshots, want %d", len(snaps), len(catalog.AllMuscles))
	}
	for _, snap := range snaps {
		if snap.Muscle != catalog.Chest {
			continue
		}
		if snap.FatiguePercent != 75 {
			t.Errorf("chest fatigue = %v, want 75 after one day", snap.FatiguePercent)
		}
		if snap.Status != engine.StatusCaution {
			t.Errorf("chest status = %s, want caution", snap.Status)
		}
	}
}

// TestHandleMuscleStatesBadTimestamp verifies an unparseable "at" gets 400.
func TestHandleMuscleStatesBadTimestamp(t *testing.T) {
	s, _ := testServer(t)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/muscles?at=yesterday", nil), 1)
	rec := httptest.NewRecorder()

	s.handleMuscleStates(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHandleRecoveryQuery verifies the per-muscle recovery endpoint.
func TestHandleRecoveryQuery(t *testing.T) {
	s, _ := testServer(t)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/muscles/chest/recovery", nil), 1)
	req = withMuscleParam(req, "chest")
	rec := httptest.NewRecorder()

	s.handleRecoveryQuery(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var snap engine.MuscleSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if snap.Muscle != catalog.Chest || snap.Trained {
		t.Errorf("snapshot = %+v, want untrained chest", snap)
	}
}

// TestHandleRecoveryQueryUnknownMuscle verifies an unrecognized muscle name
// in the path gets 400.
func TestHandleRecoveryQueryUnknownMuscle(t *testing.T) {
	s, _ := testServer(t)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/muscles/wings/recovery", nil), 1)
	req = withMuscleParam(req, "wings")
	rec := httptest.NewRecorder()

	s.handleRecoveryQuery(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHandleRecoveryTimeline verifies the seven-day projection endpoint.
func TestHandleRecoveryTimeline(t *testing.T) {
	s, fs := testServer(t)
	trained := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)
	fs.states = []models.MuscleState{{
		UserID: 1, Muscle: catalog.Chest, FatiguePercent: 90, LastTrained: trained,
	}}

	req := asUser(httptest.NewRequest(http.MethodGet,
		"/api/v1/muscles/chest/timeline?at=2026-02-10T17:00:00Z", nil), 1)
	req = withMuscleParam(req, "chest")
	rec := httptest.NewRecorder()

	s.handleRecoveryTimeline(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var points []engine.TimelinePoint
	if err := json.NewDecoder(rec.Body).Decode(&points); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(points) != 8 {
		t.Fatalf("got %d points, want 8", len(points))
	}
	if points[0].FatiguePercent != 90 || points[0].Status != engine.StatusDontTrain {
		t.Errorf("day 0 = %+v, want 90%% dont_train", points[0])
	}
}

// TestHandleExercises verifies the catalog listing endpoint.
func TestHandleExercises(t *testing.T) {
	s, _ := testServer(t)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil), 1)
	rec := httptest.NewRecorder()

	s.handleExercises(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var exercises []catalog.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&exercises); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(exercises) != 1 || exercises[0].ID != "bench-press" {
		t.Errorf("exercises = %+v, want bench-press only", exercises)
	}
}
