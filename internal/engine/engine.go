// Package engine implements the muscle fatigue and recovery engine: it
// turns logged workouts into per-muscle training load, tracks how that
// load decays, learns capacity baselines from observed maxima, and
// detects personal records.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// Config carries the engine's tunable parameters.
type Config struct {
	Thresholds Thresholds
	Recovery   RecoveryModel

	// DefaultBaseline seeds a muscle's learned max before any workout has
	// been observed for it.
	DefaultBaseline float64
}

// DefaultConfig is the standard tuning: 40/80 banding, 15 points/day
// recovery, 10,000 starting baseline.
var DefaultConfig = Config{
	Thresholds:      DefaultThresholds,
	Recovery:        DefaultRecovery,
	DefaultBaseline: 10000,
}

// Engine processes workouts and answers fatigue/recovery queries. It is
// the single write path for muscle state, baselines, and personal bests.
type Engine struct {
	store Store
	cat   *catalog.Catalog
	cfg   Config
	log   *slog.Logger
}

// New creates an Engine.
func New(store Store, cat *catalog.Catalog, cfg Config, log *slog.Logger) *Engine {
	return &Engine{store: store, cat: cat, cfg: cfg, log: log}
}

// MuscleReport is one muscle's outcome from processing a workout.
type MuscleReport struct {
	FatigueResult
	RecoveredAt time.Time `json:"recovered_at"`
}

// Result is the plain-data outcome of processing one workout.
type Result struct {
	WorkoutID      uuid.UUID        `json:"workout_id"`
	Duplicate      bool             `json:"duplicate,omitempty"`
	TotalVolume    float64          `json:"total_volume"`
	Exercises      []ExerciseVolume `json:"exercises"`
	Muscles        []MuscleReport   `json:"muscles"`
	BaselineDeltas []BaselineDelta  `json:"baseline_deltas,omitempty"`
	Records        []models.PREvent `json:"records,omitempty"`
}

// ProcessWorkout runs a completed workout through the full pipeline:
// per-muscle volumes, fatigue evaluation, baseline ratchet, and PR
// detection, persisted as one atomic update. Reprocessing an
// already-stored workout id is a no-op success, so the operation is safe
// to re-run after a partial failure.
func (e *Engine) ProcessWorkout(ctx context.Context, w *models.Workout) (*Result, error) {
	if len(w.Exercises) == 0 {
		return nil, fmt.Errorf("workout has no exercises")
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.PerformedAt.IsZero() {
		w.PerformedAt = time.Now()
	}

	exists, err := e.store.WorkoutExists(ctx, w.UserID, w.ID)
	if err != nil {
		return nil, fmt.Errorf("checking workout %s: %w", w.ID, err)
	}
	if exists {
		e.log.Info("workout already processed, skipping", "workout", w.ID, "user", w.UserID)
		return &Result{WorkoutID: w.ID, Duplicate: true}, nil
	}

	vol, err := ComputeVolume(e.cat, w)
	if err != nil {
		return nil, err
	}

	baselines, err := e.store.Baselines(ctx, w.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading baselines: %w", err)
	}

	result := &Result{
		WorkoutID:   w.ID,
		TotalVolume: vol.Total,
		Exercises:   vol.PerExercise,
	}
	update := &models.WorkoutUpdate{Workout: w}

	// Fatigue is evaluated against the pre-workout baseline, then the
	// ratchet runs: a 113% session reads as 113%, not 100%.
	for _, muscle := range catalog.AllMuscles {
		contribution, trained := vol.PerMuscle[muscle]
		if !trained {
			continue
		}

		baseline, ok := baselines[muscle]
		if !ok {
			return nil, &BaselineMissingError{Muscle: muscle}
		}

		fr, err := ComputeFatigue(muscle, contribution, baseline.Effective(), e.cfg.Thresholds)
		if err != nil {
			return nil, err
		}

		recoveredAt := e.cfg.Recovery.ReadyAt(fr.FatiguePercent, w.PerformedAt)
		result.Muscles = append(result.Muscles, MuscleReport{FatigueResult: fr, RecoveredAt: recoveredAt})
		update.States = append(update.States, models.MuscleState{
			UserID:         w.UserID,
			Muscle:         muscle,
			FatiguePercent: fr.FatiguePercent,
			VolumeToday:    contribution,
			LastTrained:    w.PerformedAt,
			RecoveredAt:    recoveredAt,
		})

		if delta, changed := ratchetBaseline(&baseline, contribution); changed {
			baseline.UpdatedAt = w.PerformedAt
			result.BaselineDeltas = append(result.BaselineDeltas, delta)
			update.Baselines = append(update.Baselines, baseline)
		}
	}

	exerciseIDs := make([]string, 0, len(vol.PerExercise))
	for _, ev := range vol.PerExercise {
		exerciseIDs = append(exerciseIDs, ev.ExerciseID)
	}
	bests, err := e.store.PersonalBests(ctx, w.UserID, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("loading personal bests: %w", err)
	}
	for _, ev := range vol.PerExercise {
		var prev *models.PersonalBest
		if b, ok := bests[ev.ExerciseID]; ok {
			prev = &b
		}
		best, events, changed := detectRecords(prev, ev, w.UserID, w.ID, w.PerformedAt)
		if !changed {
			continue
		}
		update.Bests = append(update.Bests, best)
		update.Events = append(update.Events, events...)
		result.Records = append(result.Records, events...)
	}

	if err := e.store.ApplyWorkout(ctx, update); err != nil {
		return nil, fmt.Errorf("applying workout %s: %w", w.ID, err)
	}

	e.log.Info("workout processed",
		"workout", w.ID,
		"user", w.UserID,
		"total_volume", vol.Total,
		"muscles", len(result.Muscles),
		"baseline_deltas", len(result.BaselineDeltas),
		"records", len(result.Records),
	)
	return result, nil
}
