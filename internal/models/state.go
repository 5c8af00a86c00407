package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/catalog"
)

// MuscleBaseline is a muscle's capacity reference: the volume treated as
// 100% fatigue. SystemLearnedMax only ever ratchets upward; UserOverride,
// when set, takes precedence and is changed only by explicit user action.
type MuscleBaseline struct {
	UserID           int            `json:"user_id"`
	Muscle           catalog.Muscle `json:"muscle"`
	SystemLearnedMax float64        `json:"system_learned_max"`
	UserOverride     *float64       `json:"user_override,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Effective returns the baseline used for fatigue computation.
func (b MuscleBaseline) Effective() float64 {
	if b.UserOverride != nil {
		return *b.UserOverride
	}
	return b.SystemLearnedMax
}

// MuscleState caches the fatigue engine's last evaluation for one muscle.
// Valid until the next workout; between workouts the recovery model decays
// FatiguePercent implicitly from LastTrained.
type MuscleState struct {
	UserID         int            `json:"user_id"`
	Muscle         catalog.Muscle `json:"muscle"`
	FatiguePercent float64        `json:"fatigue_percent"`
	VolumeToday    float64        `json:"volume_today"`
	LastTrained    time.Time      `json:"last_trained"`
	RecoveredAt    time.Time      `json:"recovered_at"`
}

// PersonalBest tracks per-exercise records. Both fields are independently
// monotonic: a field is replaced only by a strictly greater value.
type PersonalBest struct {
	UserID            int       `json:"user_id"`
	ExerciseID        string    `json:"exercise_id"`
	BestSingleSet     float64   `json:"best_single_set"`
	BestSessionVolume float64   `json:"best_session_volume"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PRField names which PersonalBest field a record event improved.
type PRField string

const (
	PRBestSingleSet     PRField = "best_single_set"
	PRBestSessionVolume PRField = "best_session_volume"
)

// PREvent is one personal-record improvement detected while processing a
// workout. OldValue and PercentIncrease are nil on first-time records; a
// first-time entry has no prior value to improve on, and oldValue=0 would
// report a misleading infinite percentage.
type PREvent struct {
	UserID          int       `json:"user_id"`
	WorkoutID       uuid.UUID `json:"workout_id"`
	ExerciseID      string    `json:"exercise_id"`
	Field           PRField   `json:"field"`
	OldValue        *float64  `json:"old_value,omitempty"`
	NewValue        float64   `json:"new_value"`
	Improvement     *float64  `json:"improvement,omitempty"`
	PercentIncrease *float64  `json:"percent_increase,omitempty"`
	FirstTime       bool      `json:"first_time"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// WorkoutUpdate bundles every row mutated by processing one workout.
// Storage applies the whole bundle in a single transaction so a crash
// leaves either fully-old or fully-new state.
type WorkoutUpdate struct {
	Workout   *Workout
	States    []MuscleState
	Baselines []MuscleBaseline
	Bests     []PersonalBest
	Events    []PREvent
}
