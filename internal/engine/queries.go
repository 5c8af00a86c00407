package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// MuscleSnapshot is a muscle's state at a point in time, with recovery
// decay applied. Trained=false means no workout has ever hit this muscle,
// which is a legitimate zero state rather than an error.
type MuscleSnapshot struct {
	Muscle         catalog.Muscle `json:"muscle"`
	FatiguePercent float64        `json:"fatigue_percent"`
	DisplayFatigue float64        `json:"display_fatigue"`
	Status         Status         `json:"status"`
	Trained        bool           `json:"trained"`
	LastTrained    *time.Time     `json:"last_trained,omitempty"`
	ReadyAt        *time.Time     `json:"ready_at,omitempty"`
}

// CurrentStates returns every muscle's snapshot at time at, decaying each
// stored fatigue value from its last-trained timestamp. Pure read: nothing
// is mutated.
func (e *Engine) CurrentStates(ctx context.Context, userID int, at time.Time) ([]MuscleSnapshot, error) {
	states, err := e.store.MuscleStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading muscle states: %w", err)
	}

	byMuscle := make(map[catalog.Muscle]models.MuscleState, len(states))
	for _, s := range states {
		byMuscle[s.Muscle] = s
	}

	out := make([]MuscleSnapshot, 0, len(catalog.AllMuscles))
	for _, m := range catalog.AllMuscles {
		s, ok := byMuscle[m]
		if !ok {
			out = append(out, MuscleSnapshot{Muscle: m, Status: StatusReady})
			continue
		}
		out = append(out, e.snapshot(s, at))
	}
	return out, nil
}

// RecoveryAt answers a point-in-time recovery query for one muscle.
func (e *Engine) RecoveryAt(ctx context.Context, userID int, muscle catalog.Muscle, at time.Time) (*MuscleSnapshot, error) {
	if !muscle.Valid() {
		return nil, fmt.Errorf("unknown muscle %q", muscle)
	}

	states, err := e.store.MuscleStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading muscle states: %w", err)
	}
	for _, s := range states {
		if s.Muscle == muscle {
			snap := e.snapshot(s, at)
			return &snap, nil
		}
	}
	return &MuscleSnapshot{Muscle: muscle, Status: StatusReady}, nil
}

// TimelinePoint is one day of a projected recovery timeline.
type TimelinePoint struct {
	Date           time.Time `json:"date"`
	FatiguePercent float64   `json:"fatigue_percent"`
	Status         Status    `json:"status"`
}

// RecoveryTimeline projects a muscle's fatigue day by day from time at,
// for days entries (including day zero).
func (e *Engine) RecoveryTimeline(ctx context.Context, userID int, muscle catalog.Muscle, at time.Time, days int) ([]TimelinePoint, error) {
	snap, err := e.RecoveryAt(ctx, userID, muscle, at)
	if err != nil {
		return nil, err
	}

	points := make([]TimelinePoint, 0, days+1)
	for d := 0; d <= days; d++ {
		when := at.AddDate(0, 0, d)
		f := e.cfg.Recovery.FatigueAt(snap.FatiguePercent, at, when)
		points = append(points, TimelinePoint{
			Date:           when,
			FatiguePercent: f,
			Status:         e.cfg.Thresholds.Classify(f),
		})
	}
	return points, nil
}

// PersonalBests returns every tracked exercise record for the user.
func (e *Engine) PersonalBests(ctx context.Context, userID int) ([]models.PersonalBest, error) {
	return e.store.AllPersonalBests(ctx, userID)
}

// TrainingVolume sums per-muscle volume over stored workouts in [start, end).
func (e *Engine) TrainingVolume(ctx context.Context, userID int, start, end time.Time) (map[catalog.Muscle]float64, error) {
	return e.store.MuscleVolumeRange(ctx, userID, start, end)
}

// Exercises returns the catalog in load order.
func (e *Engine) Exercises() []catalog.Exercise {
	return e.cat.Exercises()
}

func (e *Engine) snapshot(s models.MuscleState, at time.Time) MuscleSnapshot {
	f := e.cfg.Recovery.FatigueAt(s.FatiguePercent, s.LastTrained, at)
	snap := MuscleSnapshot{
		Muscle:         s.Muscle,
		FatiguePercent: f,
		DisplayFatigue: min(f, 100),
		Status:         e.cfg.Thresholds.Classify(f),
		Trained:        true,
	}
	lastTrained := s.LastTrained
	snap.LastTrained = &lastTrained
	if f > e.cfg.Recovery.ReadyThreshold {
		readyAt := e.cfg.Recovery.ReadyAt(f, at)
		snap.ReadyAt = &readyAt
	}
	return snap
}
