package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// SeedBaselines creates a baseline row for every known muscle the user
// does not have one for yet, at the given default learned max. Idempotent.
func (db *DB) SeedBaselines(ctx context.Context, userID int, defaultMax float64) error {
	for _, m := range catalog.AllMuscles {
		_, err := db.Pool.Exec(ctx,
			`INSERT INTO muscle_baselines (user_id, muscle, system_learned_max)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, muscle) DO NOTHING`,
			userID, m, defaultMax)
		if err != nil {
			return fmt.Errorf("seeding baseline for %s: %w", m, err)
		}
	}
	return nil
}

// Baselines returns all of the user's muscle baselines keyed by muscle.
func (db *DB) Baselines(ctx context.Context, userID int) (map[catalog.Muscle]models.MuscleBaseline, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, muscle, system_learned_max, user_override, updated_at
		 FROM muscle_baselines WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", err)
	}
	defer rows.Close()

	out := make(map[catalog.Muscle]models.MuscleBaseline)
	for rows.Next() {
		var b models.MuscleBaseline
		if err := rows.Scan(&b.UserID, &b.Muscle, &b.SystemLearnedMax, &b.UserOverride, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		out[b.Muscle] = b
	}
	return out, rows.Err()
}

// SetBaselineOverride sets or clears (override == nil) the user override
// for one muscle. The system-learned value is untouched.
func (db *DB) SetBaselineOverride(ctx context.Context, userID int, muscle catalog.Muscle, override *float64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE muscle_baselines SET user_override = $3, updated_at = NOW()
		 WHERE user_id = $1 AND muscle = $2`,
		userID, muscle, override)
	if err != nil {
		return fmt.Errorf("setting baseline override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no baseline row for user %d muscle %s", userID, muscle)
	}
	return nil
}

// upsertBaselineTx writes a ratcheted baseline inside a transaction. The
// learned max never moves downward, even under a concurrent ratchet.
func upsertBaselineTx(ctx context.Context, tx pgx.Tx, b models.MuscleBaseline) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO muscle_baselines (user_id, muscle, system_learned_max, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, muscle) DO UPDATE
			SET system_learned_max = GREATEST(muscle_baselines.system_learned_max, EXCLUDED.system_learned_max),
			    updated_at = EXCLUDED.updated_at`,
		b.UserID, b.Muscle, b.SystemLearnedMax, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting baseline for %s: %w", b.Muscle, err)
	}
	return nil
}
