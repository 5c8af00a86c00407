package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/repstrain/internal/models"
)

// MuscleStates returns the user's cached muscle states.
func (db *DB) MuscleStates(ctx context.Context, userID int) ([]models.MuscleState, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, muscle, fatigue_percent, volume_today, last_trained, recovered_at
		 FROM muscle_states WHERE user_id = $1
		 ORDER BY muscle`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying muscle states: %w", err)
	}
	defer rows.Close()

	var out []models.MuscleState
	for rows.Next() {
		var s models.MuscleState
		if err := rows.Scan(&s.UserID, &s.Muscle, &s.FatiguePercent, &s.VolumeToday, &s.LastTrained, &s.RecoveredAt); err != nil {
			return nil, fmt.Errorf("scanning muscle state: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func upsertMuscleStateTx(ctx context.Context, tx pgx.Tx, s models.MuscleState) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO muscle_states (user_id, muscle, fatigue_percent, volume_today, last_trained, recovered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, muscle) DO UPDATE
			SET fatigue_percent = EXCLUDED.fatigue_percent,
			    volume_today = EXCLUDED.volume_today,
			    last_trained = EXCLUDED.last_trained,
			    recovered_at = EXCLUDED.recovered_at`,
		s.UserID, s.Muscle, s.FatiguePercent, s.VolumeToday, s.LastTrained, s.RecoveredAt)
	if err != nil {
		return fmt.Errorf("upserting muscle state for %s: %w", s.Muscle, err)
	}
	return nil
}
