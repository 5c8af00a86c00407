package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// Store abstracts the persistence layer the engine runs against.
// *storage.DB satisfies it; tests use an in-memory fake.
//
// ApplyWorkout must be atomic: either every row in the update lands or
// none do. Concurrent workout submissions for one user are serialized by
// the caller; reads may run concurrently and must never observe a torn
// update.
type Store interface {
	WorkoutExists(ctx context.Context, userID int, id uuid.UUID) (bool, error)
	Baselines(ctx context.Context, userID int) (map[catalog.Muscle]models.MuscleBaseline, error)
	MuscleStates(ctx context.Context, userID int) ([]models.MuscleState, error)
	PersonalBests(ctx context.Context, userID int, exerciseIDs []string) (map[string]models.PersonalBest, error)
	AllPersonalBests(ctx context.Context, userID int) ([]models.PersonalBest, error)
	MuscleVolumeRange(ctx context.Context, userID int, start, end time.Time) (map[catalog.Muscle]float64, error)
	ApplyWorkout(ctx context.Context, update *models.WorkoutUpdate) error
}
