package engine

import (
	"fmt"
	"math"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// ExerciseVolume aggregates one logged exercise's sets.
type ExerciseVolume struct {
	ExerciseID string  `json:"exercise_id"`
	Total      float64 `json:"total"`
	BestSet    float64 `json:"best_set"`
	Sets       int     `json:"sets"`
}

// WorkoutVolume is the volume calculator's output for one workout.
type WorkoutVolume struct {
	Total       float64
	PerMuscle   map[catalog.Muscle]float64
	PerExercise []ExerciseVolume
}

// ComputeVolume converts a workout's logged sets into per-muscle and
// per-exercise training volume. Each set's volume (weight × reps) is
// distributed to every muscle the exercise engages, scaled by the
// engagement percentage; contributions are additive across sets and
// exercises. An exercise missing from the catalog is a hard error.
func ComputeVolume(cat *catalog.Catalog, w *models.Workout) (*WorkoutVolume, error) {
	out := &WorkoutVolume{PerMuscle: make(map[catalog.Muscle]float64)}

	for _, le := range w.Exercises {
		ex, ok := cat.Get(le.ExerciseID)
		if !ok {
			return nil, &UnknownExerciseError{ExerciseID: le.ExerciseID}
		}

		ev := ExerciseVolume{ExerciseID: le.ExerciseID}
		for i, set := range le.Sets {
			if err := validateSet(le.ExerciseID, i, set); err != nil {
				return nil, err
			}
			v := set.Volume()
			ev.Total += v
			ev.Sets++
			if v > ev.BestSet {
				ev.BestSet = v
			}
			for _, eng := range ex.Engagements {
				out.PerMuscle[eng.Muscle] += v * eng.Percent / 100
			}
		}
		out.Total += ev.Total
		out.PerExercise = append(out.PerExercise, ev)
	}

	return out, nil
}

func validateSet(exerciseID string, index int, s models.LoggedSet) error {
	if s.Weight < 0 {
		return &InvalidSetError{exerciseID, index, fmt.Sprintf("negative weight %.2f", s.Weight)}
	}
	if s.Reps < 0 {
		return &InvalidSetError{exerciseID, index, fmt.Sprintf("negative reps %d", s.Reps)}
	}
	if math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0) {
		return &InvalidSetError{exerciseID, index, "non-finite weight"}
	}
	return nil
}
