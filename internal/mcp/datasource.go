package mcp

import (
	"context"
	"time"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/models"
)

// DataSource abstracts the engine's read surface for MCP tools.
// *engine.Engine satisfies it.
type DataSource interface {
	CurrentStates(ctx context.Context, userID int, at time.Time) ([]engine.MuscleSnapshot, error)
	RecoveryAt(ctx context.Context, userID int, muscle catalog.Muscle, at time.Time) (*engine.MuscleSnapshot, error)
	RecoveryTimeline(ctx context.Context, userID int, muscle catalog.Muscle, at time.Time, days int) ([]engine.TimelinePoint, error)
	PersonalBests(ctx context.Context, userID int) ([]models.PersonalBest, error)
	TrainingVolume(ctx context.Context, userID int, start, end time.Time) (map[catalog.Muscle]float64, error)
	Exercises() []catalog.Exercise
}

// Compile-time check: *engine.Engine satisfies DataSource.
var _ DataSource = (*engine.Engine)(nil)
