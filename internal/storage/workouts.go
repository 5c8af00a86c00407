package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// WorkoutExists reports whether a workout id has already been processed.
func (db *DB) WorkoutExists(ctx context.Context, userID int, id uuid.UUID) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workouts WHERE user_id = $1 AND id = $2`,
		userID, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking workout existence: %w", err)
	}
	return count > 0, nil
}

// ApplyWorkout persists everything one processed workout produced —
// workout + sets, muscle states, ratcheted baselines, personal bests, and
// PR events — in a single transaction. A failure anywhere rolls back the
// whole update.
func (db *DB) ApplyWorkout(ctx context.Context, update *models.WorkoutUpdate) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		if err := insertWorkoutTx(ctx, tx, update.Workout); err != nil {
			return err
		}
		for _, s := range update.States {
			if err := upsertMuscleStateTx(ctx, tx, s); err != nil {
				return err
			}
		}
		for _, b := range update.Baselines {
			if err := upsertBaselineTx(ctx, tx, b); err != nil {
				return err
			}
		}
		for _, best := range update.Bests {
			if err := upsertPersonalBestTx(ctx, tx, best); err != nil {
				return err
			}
		}
		for _, e := range update.Events {
			if err := insertPREventTx(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertWorkoutTx(ctx context.Context, tx pgx.Tx, w *models.Workout) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, performed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		w.ID, w.UserID, w.Name, w.PerformedAt)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}

	for _, le := range w.Exercises {
		for i, s := range le.Sets {
			_, err := tx.Exec(ctx,
				`INSERT INTO workout_sets (workout_id, exercise_id, set_number, weight, reps, to_failure)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				w.ID, le.ExerciseID, i+1, s.Weight, s.Reps, s.ToFailure)
			if err != nil {
				return fmt.Errorf("inserting set %d of %s: %w", i+1, le.ExerciseID, err)
			}
		}
	}
	return nil
}

// QueryWorkouts retrieves workout headers in a date range, newest first.
func (db *DB) QueryWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, performed_at FROM workouts
		 WHERE user_id = $1 AND performed_at >= $2 AND performed_at < $3
		 ORDER BY performed_at DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var out []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.PerformedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// MuscleVolumeRange sums per-muscle training volume over stored sets in
// [start, end), joining through the seeded engagement table.
func (db *DB) MuscleVolumeRange(ctx context.Context, userID int, start, end time.Time) (map[catalog.Muscle]float64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ee.muscle, SUM(ws.weight * ws.reps * ee.percent / 100)
		 FROM workout_sets ws
		 JOIN workouts w ON w.id = ws.workout_id
		 JOIN exercise_engagements ee ON ee.exercise_id = ws.exercise_id
		 WHERE w.user_id = $1 AND w.performed_at >= $2 AND w.performed_at < $3
		 GROUP BY ee.muscle`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying muscle volume: %w", err)
	}
	defer rows.Close()

	out := make(map[catalog.Muscle]float64)
	for rows.Next() {
		var m catalog.Muscle
		var v float64
		if err := rows.Scan(&m, &v); err != nil {
			return nil, fmt.Errorf("scanning muscle volume: %w", err)
		}
		out[m] = v
	}
	return out, rows.Err()
}
