package engine

import (
	"fmt"

	"github.com/meltforce/repstrain/internal/catalog"
)

// UnknownExerciseError reports a logged exercise id with no catalog entry.
// Fatal to processing the workout: skipping would silently understate every
// downstream fatigue and baseline computation.
type UnknownExerciseError struct {
	ExerciseID string
}

func (e *UnknownExerciseError) Error() string {
	return fmt.Sprintf("unknown exercise id %q", e.ExerciseID)
}

// InvalidSetError reports a set rejected before volume accumulation:
// negative or non-finite weight/reps.
type InvalidSetError struct {
	ExerciseID string
	SetIndex   int
	Reason     string
}

func (e *InvalidSetError) Error() string {
	return fmt.Sprintf("exercise %q set %d: %s", e.ExerciseID, e.SetIndex+1, e.Reason)
}

// BaselineMissingError reports a muscle with volume contribution but no
// usable baseline. A data-integrity fault: baseline seeding guarantees one
// row per known muscle, and the fatigue engine never divides by a missing
// or zero baseline.
type BaselineMissingError struct {
	Muscle catalog.Muscle
}

func (e *BaselineMissingError) Error() string {
	return fmt.Sprintf("no baseline for muscle %q", e.Muscle)
}
