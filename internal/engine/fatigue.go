package engine

import (
	"github.com/meltforce/repstrain/internal/catalog"
)

// Status is the three-tier training-readiness classification.
type Status string

const (
	StatusReady     Status = "ready"
	StatusCaution   Status = "caution"
	StatusDontTrain Status = "dont_train"
)

// Thresholds are the classification band boundaries, inclusive on the
// lower bound of each band: fatigue below Ready is ready, [Ready, DontTrain)
// is caution, DontTrain and above is don't-train.
type Thresholds struct {
	Ready     float64
	DontTrain float64
}

// DefaultThresholds is the standard 40/80 banding.
var DefaultThresholds = Thresholds{Ready: 40, DontTrain: 80}

// Classify maps a fatigue percentage to its readiness band.
func (t Thresholds) Classify(fatiguePercent float64) Status {
	switch {
	case fatiguePercent >= t.DontTrain:
		return StatusDontTrain
	case fatiguePercent >= t.Ready:
		return StatusCaution
	default:
		return StatusReady
	}
}

// FatigueResult is the fatigue engine's output for one muscle.
type FatigueResult struct {
	Muscle catalog.Muscle `json:"muscle"`
	Volume float64        `json:"volume"`

	// FatiguePercent is unclamped: values over 100 are legitimate and
	// drive baseline learning.
	FatiguePercent float64 `json:"fatigue_percent"`
	// DisplayFatigue is FatiguePercent clamped to 100 for presentation.
	DisplayFatigue float64 `json:"display_fatigue"`

	Status          Status  `json:"status"`
	ExceedsBaseline bool    `json:"exceeds_baseline"`
	ExceedDelta     float64 `json:"exceed_delta,omitempty"`
}

// ComputeFatigue turns a muscle's volume contribution and effective
// baseline into a fatigue result. A missing or non-positive baseline is a
// data-integrity error rather than a NaN/Inf result.
func ComputeFatigue(muscle catalog.Muscle, volume, effectiveBaseline float64, t Thresholds) (FatigueResult, error) {
	if effectiveBaseline <= 0 {
		return FatigueResult{}, &BaselineMissingError{Muscle: muscle}
	}

	pct := volume / effectiveBaseline * 100
	r := FatigueResult{
		Muscle:         muscle,
		Volume:         volume,
		FatiguePercent: pct,
		DisplayFatigue: min(pct, 100),
		Status:         t.Classify(pct),
	}
	if pct > 100 {
		r.ExceedsBaseline = true
		r.ExceedDelta = pct - 100
	}
	return r, nil
}
