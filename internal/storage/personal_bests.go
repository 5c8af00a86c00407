package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/repstrain/internal/models"
)

// PersonalBests returns stored records for the given exercises, keyed by
// exercise id. Exercises with no record are simply absent.
func (db *DB) PersonalBests(ctx context.Context, userID int, exerciseIDs []string) (map[string]models.PersonalBest, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, exercise_id, best_single_set, best_session_volume, updated_at
		 FROM personal_bests
		 WHERE user_id = $1 AND exercise_id = ANY($2)`,
		userID, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("querying personal bests: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.PersonalBest)
	for rows.Next() {
		var b models.PersonalBest
		if err := rows.Scan(&b.UserID, &b.ExerciseID, &b.BestSingleSet, &b.BestSessionVolume, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning personal best: %w", err)
		}
		out[b.ExerciseID] = b
	}
	return out, rows.Err()
}

// AllPersonalBests returns every record the user holds, by exercise id.
func (db *DB) AllPersonalBests(ctx context.Context, userID int) ([]models.PersonalBest, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, exercise_id, best_single_set, best_session_volume, updated_at
		 FROM personal_bests WHERE user_id = $1
		 ORDER BY exercise_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying personal bests: %w", err)
	}
	defer rows.Close()

	var out []models.PersonalBest
	for rows.Next() {
		var b models.PersonalBest
		if err := rows.Scan(&b.UserID, &b.ExerciseID, &b.BestSingleSet, &b.BestSessionVolume, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning personal best: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListPREvents returns the most recent record events, newest first.
func (db *DB) ListPREvents(ctx context.Context, userID, limit int) ([]models.PREvent, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, workout_id, exercise_id, field, old_value, new_value,
		        improvement, percent_increase, first_time, occurred_at
		 FROM pr_events WHERE user_id = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying PR events: %w", err)
	}
	defer rows.Close()

	var out []models.PREvent
	for rows.Next() {
		var e models.PREvent
		if err := rows.Scan(&e.UserID, &e.WorkoutID, &e.ExerciseID, &e.Field, &e.OldValue,
			&e.NewValue, &e.Improvement, &e.PercentIncrease, &e.FirstTime, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning PR event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// upsertPersonalBestTx writes a record row inside a transaction. GREATEST
// keeps each field monotonic even if a stale value reaches the database.
func upsertPersonalBestTx(ctx context.Context, tx pgx.Tx, b models.PersonalBest) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO personal_bests (user_id, exercise_id, best_single_set, best_session_volume, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, exercise_id) DO UPDATE
			SET best_single_set = GREATEST(personal_bests.best_single_set, EXCLUDED.best_single_set),
			    best_session_volume = GREATEST(personal_bests.best_session_volume, EXCLUDED.best_session_volume),
			    updated_at = EXCLUDED.updated_at`,
		b.UserID, b.ExerciseID, b.BestSingleSet, b.BestSessionVolume, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting personal best for %s: %w", b.ExerciseID, err)
	}
	return nil
}

func insertPREventTx(ctx context.Context, tx pgx.Tx, e models.PREvent) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO pr_events (user_id, workout_id, exercise_id, field, old_value, new_value,
		                        improvement, percent_increase, first_time, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.UserID, e.WorkoutID, e.ExerciseID, e.Field, e.OldValue, e.NewValue,
		e.Improvement, e.PercentIncrease, e.FirstTime, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("inserting PR event for %s: %w", e.ExerciseID, err)
	}
	return nil
}
