package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/models"
)

// detectRecords compares one exercise's aggregates against its stored
// personal best. Both fields are checked independently: a workout can set a
// new session-volume record without touching the single-set record, and
// vice versa. prev == nil means no prior record; both fields are then
// recorded as first-time events with no improvement percentage.
//
// Returns the updated row and the events emitted, or ok=false when nothing
// improved.
func detectRecords(prev *models.PersonalBest, ev ExerciseVolume, userID int, workoutID uuid.UUID, at time.Time) (models.PersonalBest, []models.PREvent, bool) {
	if prev == nil {
		best := models.PersonalBest{
			UserID:            userID,
			ExerciseID:        ev.ExerciseID,
			BestSingleSet:     ev.BestSet,
			BestSessionVolume: ev.Total,
			UpdatedAt:         at,
		}
		events := []models.PREvent{
			firstTimeEvent(userID, workoutID, ev.ExerciseID, models.PRBestSingleSet, ev.BestSet, at),
			firstTimeEvent(userID, workoutID, ev.ExerciseID, models.PRBestSessionVolume, ev.Total, at),
		}
		return best, events, true
	}

	best := *prev
	var events []models.PREvent

	if ev.BestSet > best.BestSingleSet {
		events = append(events, improvementEvent(userID, workoutID, ev.ExerciseID,
			models.PRBestSingleSet, best.BestSingleSet, ev.BestSet, at))
		best.BestSingleSet = ev.BestSet
	}
	if ev.Total > best.BestSessionVolume {
		events = append(events, improvementEvent(userID, workoutID, ev.ExerciseID,
			models.PRBestSessionVolume, best.BestSessionVolume, ev.Total, at))
		best.BestSessionVolume = ev.Total
	}

	if len(events) == 0 {
		return models.PersonalBest{}, nil, false
	}
	best.UpdatedAt = at
	return best, events, true
}

func firstTimeEvent(userID int, workoutID uuid.UUID, exerciseID string, field models.PRField, value float64, at time.Time) models.PREvent {
	return models.PREvent{
		UserID:     userID,
		WorkoutID:  workoutID,
		ExerciseID: exerciseID,
		Field:      field,
		NewValue:   value,
		FirstTime:  true,
		OccurredAt: at,
	}
}

func improvementEvent(userID int, workoutID uuid.UUID, exerciseID string, field models.PRField, oldValue, newValue float64, at time.Time) models.PREvent {
	improvement := newValue - oldValue
	pct := improvement / oldValue * 100
	return models.PREvent{
		UserID:          userID,
		WorkoutID:       workoutID,
		ExerciseID:      exerciseID,
		Field:           field,
		OldValue:        &oldValue,
		NewValue:        newValue,
		Improvement:     &improvement,
		PercentIncrease: &pct,
		OccurredAt:      at,
	}
}
