package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/repstrain/internal/catalog"
)

// SeedExercises upserts the validated exercise catalog into the exercises
// and exercise_engagements tables so SQL-side aggregation can join against
// it. Engagements for an exercise are replaced wholesale; runs at startup
// and is idempotent.
func (db *DB) SeedExercises(ctx context.Context, cat *catalog.Catalog) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		for _, ex := range cat.Exercises() {
			_, err := tx.Exec(ctx,
				`INSERT INTO exercises (id, name, category)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (id) DO UPDATE
					SET name = EXCLUDED.name, category = EXCLUDED.category`,
				ex.ID, ex.Name, ex.Category)
			if err != nil {
				return fmt.Errorf("upserting exercise %s: %w", ex.ID, err)
			}

			_, err = tx.Exec(ctx, `DELETE FROM exercise_engagements WHERE exercise_id = $1`, ex.ID)
			if err != nil {
				return fmt.Errorf("clearing engagements for %s: %w", ex.ID, err)
			}
			for _, eng := range ex.Engagements {
				_, err := tx.Exec(ctx,
					`INSERT INTO exercise_engagements (exercise_id, muscle, percent)
					 VALUES ($1, $2, $3)`,
					ex.ID, eng.Muscle, eng.Percent)
				if err != nil {
					return fmt.Errorf("inserting engagement %s/%s: %w", ex.ID, eng.Muscle, err)
				}
			}
		}
		return nil
	})
}
