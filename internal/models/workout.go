package models

import (
	"time"

	"github.com/google/uuid"
)

// LoggedSet is one performed set. Volume is weight × reps.
type LoggedSet struct {
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	ToFailure bool    `json:"to_failure,omitempty"`
}

// Volume returns the set's training volume.
func (s LoggedSet) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// LoggedExercise is one exercise within a workout, with its sets in the
// order they were performed.
type LoggedExercise struct {
	ExerciseID string      `json:"exercise_id"`
	Sets       []LoggedSet `json:"sets"`
}

// Volume returns the exercise's total volume across all sets.
func (e LoggedExercise) Volume() float64 {
	var total float64
	for _, s := range e.Sets {
		total += s.Volume()
	}
	return total
}

// Workout is a completed training session. Append-only once saved;
// reprocessing the same ID is a no-op.
type Workout struct {
	ID          uuid.UUID        `json:"id"`
	UserID      int              `json:"user_id"`
	Name        string           `json:"name,omitempty"`
	PerformedAt time.Time        `json:"performed_at"`
	Exercises   []LoggedExercise `json:"exercises"`
}
