package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// fakeStore is an in-memory Store. ApplyWorkout mutates all maps at once,
// mirroring the transactional contract.
type fakeStore struct {
	workouts  map[uuid.UUID]*models.Workout
	baselines map[catalog.Muscle]models.MuscleBaseline
	states    map[catalog.Muscle]models.MuscleState
	bests     map[string]models.PersonalBest
	events    []models.PREvent

	applyErr error
	applied  int
}

var _ Store = (*fakeStore)(nil)

func newFakeStore(defaultBaseline float64) *fakeStore {
	fs := &fakeStore{
		workouts:  make(map[uuid.UUID]*models.Workout),
		baselines: make(map[catalog.Muscle]models.MuscleBaseline),
		states:    make(map[catalog.Muscle]models.MuscleState),
		bests:     make(map[string]models.PersonalBest),
	}
	for _, m := range catalog.AllMuscles {
		fs.baselines[m] = models.MuscleBaseline{UserID: 1, Muscle: m, SystemLearnedMax: defaultBaseline}
	}
	return fs
}

func (fs *fakeStore) WorkoutExists(_ context.Context, _ int, id uuid.UUID) (bool, error) {
	_, ok := fs.workouts[id]
	return ok, nil
}

func (fs *fakeStore) Baselines(_ context.Context, _ int) (map[catalog.Muscle]models.MuscleBaseline, error) {
	out := make(map[catalog.Muscle]models.MuscleBaseline, len(fs.baselines))
	for m, b := range fs.baselines {
		out[m] = b
	}
	return out, nil
}

func (fs *fakeStore) MuscleStates(_ context.Context, _ int) ([]models.MuscleState, error) {
	out := make([]models.MuscleState, 0, len(fs.states))
	for _, s := range fs.states {
		out = append(out, s)
	}
	return out, nil
}

func (fs *fakeStore) PersonalBests(_ context.Context, _ int, exerciseIDs []string) (map[string]models.PersonalBest, error) {
	out := make(map[string]models.PersonalBest)
	for _, id := range exerciseIDs {
		if b, ok := fs.bests[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (fs *fakeStore) AllPersonalBests(_ context.Context, _ int) ([]models.PersonalBest, error) {
	out := make([]models.PersonalBest, 0, len(fs.bests))
	for _, b := range fs.bests {
		out = append(out, b)
	}
	return out, nil
}

func (fs *fakeStore) MuscleVolumeRange(_ context.Context, _ int, _, _ time.Time) (map[catalog.Muscle]float64, error) {
	return map[catalog.Muscle]float64{}, nil
}

func (fs *fakeStore) ApplyWorkout(_ context.Context, update *models.WorkoutUpdate) error {
	if fs.applyErr != nil {
		return fs.applyErr
	}
	fs.workouts[update.Workout.ID] = update.Workout
	for _, s := range update.States {
		fs.states[s.Muscle] = s
	}
	for _, b := range update.Baselines {
		fs.baselines[b.Muscle] = b
	}
	for _, pb := range update.Bests {
		fs.bests[pb.ExerciseID] = pb
	}
	fs.events = append(fs.events, update.Events...)
	fs.applied++
	return nil
}

func testEngine(t *testing.T, fs *fakeStore) *Engine {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(fs, testCatalog(t), DefaultConfig, log)
}

func benchWorkout(userID int, at time.Time, weight float64, reps, sets int) *models.Workout {
	ex := models.LoggedExercise{ExerciseID: "bench-press"}
	for i := 0; i < sets; i++ {
		ex.Sets = append(ex.Sets, models.LoggedSet{Weight: weight, Reps: reps})
	}
	return &models.Workout{
		UserID:      userID,
		Name:        "Push Day",
		PerformedAt: at,
		Exercises:   []models.LoggedExercise{ex},
	}
}

// TestProcessWorkoutFatigueAndRatchet runs a session whose chest volume
// exceeds the baseline: fatigue reads over 100% against the pre-workout
// baseline, and the baseline ratchets up afterwards.
func TestProcessWorkoutFatigueAndRatchet(t *testing.T) {
	fs := newFakeStore(10000)
	eng := testEngine(t, fs)
	at := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)

	// Chest: bench 100% engagement. 6x10 @ 188.5 = 11310.
	w := benchWorkout(1, at, 188.5, 10, 6)
	res, err := eng.ProcessWorkout(context.Background(), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chest *MuscleReport
	for i := range res.Muscles {
		if res.Muscles[i].Muscle == catalog.Chest {
			chest = &res.Muscles[i]
		}
	}
	if chest == nil {
		t.Fatal("no chest report")
	}
	if math.Abs(chest.FatiguePercent-113.1) > 1e-9 {
		t.Errorf("FatiguePercent = %v, want 113.1", chest.FatiguePercent)
	}
	if chest.DisplayFatigue != 100 {
		t.Errorf("DisplayFatigue = %v, want 100", chest.DisplayFatigue)
	}
	if !chest.ExceedsBaseline || math.Abs(chest.ExceedDelta-13.1) > 1e-9 {
		t.Errorf("exceed = %v/%v, want true/13.1", chest.ExceedsBaseline, chest.ExceedDelta)
	}
	if chest.Status != StatusDontTrain {
		t.Errorf("Status = %s, want %s", chest.Status, StatusDontTrain)
	}

	// Ratchet ran after fatigue: stored baseline is now the session volume.
	if got := fs.baselines[catalog.Chest].SystemLearnedMax; got != 11310 {
		t.Errorf("chest baseline = %v, want 11310", got)
	}
	var chestDelta *BaselineDelta
	for i := range res.BaselineDeltas {
		if res.BaselineDeltas[i].Muscle == catalog.Chest {
			chestDelta = &res.BaselineDeltas[i]
		}
	}
	if chestDelta == nil || chestDelta.Old != 10000 || chestDelta.New != 11310 {
		t.Errorf("chest delta = %+v, want 10000 -> 11310", chestDelta)
	}

	// Triceps at 60% engagement stays below its own baseline: no ratchet.
	if got := fs.baselines[catalog.Triceps].SystemLearnedMax; got != 10000 {
		t.Errorf("triceps baseline = %v, want unchanged 10000", got)
	}
}

// TestProcessWorkoutUnknownExerciseAtomic verifies a workout with any
// uncataloged exercise fails without persisting anything.
func TestProcessWorkoutUnknownExerciseAtomic(t *testing.T) {
	fs := newFakeStore(10000)
	eng := testEngine(t, fs)

	w := &models.Workout{
		UserID:      1,
		PerformedAt: time.Now(),
		Exercises: []models.LoggedExercise{
			{ExerciseID: "bench-press", Sets: []models.LoggedSet{{Weight: 100, Reps: 10}}},
			{ExerciseID: "ex999", Sets: []models.LoggedSet{{Weight: 50, Reps: 10}}},
		},
	}

	_, err := eng.ProcessWorkout(context.Background(), w)
	var unknown *UnknownExerciseError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownExerciseError", err)
	}
	if fs.applied != 0 {
		t.Errorf("store applied %d updates, want 0", fs.applied)
	}
	if len(fs.states) != 0 || len(fs.bests) != 0 {
		t.Error("partial state persisted after failed workout")
	}
	if fs.baselines[catalog.Chest].SystemLearnedMax != 10000 {
		t.Error("baseline mutated by failed workout")
	}
}

// TestProcessWorkoutDuplicate verifies reprocessing an already-stored
// workout id is a no-op success.
func TestProcessWorkoutDuplicate(t *testing.T) {
	fs := newFakeStore(10000)
	eng := testEngine(t, fs)
	at := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)

	w := benchWorkout(1, at, 100, 10, 3)
	first, err := eng.ProcessWorkout(context.Background(), w)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Duplicate {
		t.Fatal("first run flagged duplicate")
	}

	again := benchWorkout(1, at, 100, 10, 3)
	again.ID = first.WorkoutID
	second, err := eng.ProcessWorkout(context.Background(), again)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Duplicate {
		t.Error("second run not flagged duplicate")
	}
	if fs.applied != 1 {
		t.Errorf("store applied %d updates, want 1", fs.applied)
	}
	if len(fs.events) != 2 {
		t.Errorf("got %d PR events, want the first run's 2", len(fs.events))
	}
}

// TestProcessWorkoutBaselineMonotonic runs declining sessions and checks the
// learned baseline never moves down.
func TestProcessWorkoutBaselineMonotonic(t *testing.T) {
	fs := newFakeStore(5000)
	eng := testEngine(t, fs)
	day := time.Date(2026, 2, 1, 17, 0, 0, 0, time.UTC)

	volumes := []struct {
		weight float64
		want   float64
	}{
		{200, 6000},  // 3x10 @ 200 = 6000, ratchets
		{150, 6000},  // 4500, below: unchanged
		{250, 7500},  // ratchets
		{100, 7500},  // 3000, unchanged
	}
	for i, step := range volumes {
		w := benchWorkout(1, day.AddDate(0, 0, i*3), step.weight, 10, 3)
		if _, err := eng.ProcessWorkout(context.Background(), w); err != nil {
			t.Fatalf("workout %d: %v", i, err)
		}
		if got := fs.baselines[catalog.Chest].SystemLearnedMax; got != step.want {
			t.Errorf("after workout %d: chest baseline = %v, want %v", i, got, step.want)
		}
	}
}

// TestProcessWorkoutUserOverride verifies fatigue uses the override while
// the ratchet still compares against the learned value underneath.
func TestProcessWorkoutUserOverride(t *testing.T) {
	fs := newFakeStore(10000)
	override := 4000.0
	b := fs.baselines[catalog.Chest]
	b.UserOverride = &override
	fs.baselines[catalog.Chest] = b

	eng := testEngine(t, fs)
	at := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)

	// 3x10 @ 150 = 4500 chest volume: 112.5% of the override.
	res, err := eng.ProcessWorkout(context.Background(), benchWorkout(1, at, 150, 10, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chest *MuscleReport
	for i := range res.Muscles {
		if res.Muscles[i].Muscle == catalog.Chest {
			chest = &res.Muscles[i]
		}
	}
	if chest == nil {
		t.Fatal("no chest report")
	}
	if math.Abs(chest.FatiguePercent-112.5) > 1e-9 {
		t.Errorf("FatiguePercent = %v, want 112.5 against override", chest.FatiguePercent)
	}
	// 4500 < learned 10000: the ratchet leaves SystemLearnedMax alone.
	got := fs.baselines[catalog.Chest]
	if got.SystemLearnedMax != 10000 {
		t.Errorf("SystemLearnedMax = %v, want 10000", got.SystemLearnedMax)
	}
	if got.UserOverride == nil || *got.UserOverride != 4000 {
		t.Errorf("UserOverride = %v, want preserved 4000", got.UserOverride)
	}
}

// TestProcessWorkoutEmpty rejects a workout with no exercises.
func TestProcessWorkoutEmpty(t *testing.T) {
	eng := testEngine(t, newFakeStore(10000))
	_, err := eng.ProcessWorkout(context.Background(), &models.Workout{UserID: 1})
	if err == nil {
		t.Fatal("expected error for empty workout")
	}
}

// TestProcessWorkoutApplyFailure verifies a storage failure surfaces and a
// retry with the same id succeeds cleanly afterwards.
func TestProcessWorkoutApplyFailure(t *testing.T) {
	fs := newFakeStore(10000)
	fs.applyErr = errors.New("connection reset")
	eng := testEngine(t, fs)
	at := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)

	w := benchWorkout(1, at, 100, 10, 3)
	if _, err := eng.ProcessWorkout(context.Background(), w); err == nil {
		t.Fatal("expected apply error")
	}

	fs.applyErr = nil
	retry := benchWorkout(1, at, 100, 10, 3)
	retry.ID = w.ID
	res, err := eng.ProcessWorkout(context.Background(), retry)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Duplicate {
		t.Error("retry after failed apply flagged duplicate")
	}
	if fs.applied != 1 {
		t.Errorf("store applied %d updates, want 1", fs.applied)
	}
}

// TestCurrentStatesDecay verifies snapshots decay stored fatigue by elapsed
// time and report untrained muscles as ready zero states.
func TestCurrentStatesDecay(t *testing.T) {
	fs := newFakeStore(10000)
	eng := testEngine(t, fs)
	trained := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)

	// 6x10 @ 188.5 = 11310 chest volume: 113.1%.
	if _, err := eng.ProcessWorkout(context.Background(), benchWorkout(1, trained, 188.5, 10, 6)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := trained.Add(24 * time.Hour)
	snaps, err := eng.CurrentStates(context.Background(), 1, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != len(catalog.AllMuscles) {
		t.Fatalf("got %d snapshots, want %d", len(snaps), len(catalog.AllMuscles))
	}

	var chest, quads *MuscleSnapshot
	for i := range snaps {
		switch snaps[i].Muscle {
		case catalog.Chest:
			chest = &snaps[i]
		case catalog.Quads:
			quads = &snaps[i]
		}
	}
	if chest == nil || quads == nil {
		t.Fatal("missing chest or quads snapshot")
	}
	if math.Abs(chest.FatiguePercent-98.1) > 1e-9 {
		t.Errorf("chest after one day = %v, want 98.1", chest.FatiguePercent)
	}
	if chest.Status != StatusDontTrain {
		t.Errorf("chest status = %s, want %s", chest.Status, StatusDontTrain)
	}
	if chest.ReadyAt == nil {
		t.Error("chest over threshold without ReadyAt")
	}
	if quads.Trained || quads.FatiguePercent != 0 || quads.Status != StatusReady {
		t.Errorf("untrained quads = %+v, want zero ready state", quads)
	}
}

// TestRecoveryTimeline projects day-by-day decay through the status bands.
func TestRecoveryTimeline(t *testing.T) {
	fs := newFakeStore(10000)
	eng := testEngine(t, fs)
	trained := time.Date(2026, 2, 10, 17, 0, 0, 0, time.UTC)

	// 6x10 @ 150 = 9000: 90% chest fatigue.
	if _, err := eng.ProcessWorkout(context.Background(), benchWorkout(1, trained, 150, 10, 6)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points, err := eng.RecoveryTimeline(context.Background(), 1, catalog.Chest, trained, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 8 {
		t.Fatalf("got %d points, want 8", len(points))
	}

	want := []struct {
		fatigue float64
		status  Status
	}{
		{90, StatusDontTrain},
		{75, StatusCaution},
		{60, StatusCaution},
		{45, StatusCaution},
		{30, StatusReady},
		{15, StatusReady},
		{0, StatusReady},
		{0, StatusReady},
	}
	for i, w := range want {
		if math.Abs(points[i].FatiguePercent-w.fatigue) > 1e-9 {
			t.Errorf("day %d: fatigue = %v, want %v", i, points[i].FatiguePercent, w.fatigue)
		}
		if points[i].Status != w.status {
			t.Errorf("day %d: status = %s, want %s", i, points[i].Status, w.status)
		}
	}
}

// TestRecoveryAtUnknownMuscle rejects unrecognized muscle names.
func TestRecoveryAtUnknownMuscle(t *testing.T) {
	eng := testEngine(t, newFakeStore(10000))
	if _, err := eng.RecoveryAt(context.Background(), 1, catalog.Muscle("wings"), time.Now()); err == nil {
		t.Fatal("expected error for unknown muscle")
	}
}
