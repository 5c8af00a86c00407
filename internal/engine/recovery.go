package engine

import "time"

// RecoveryModel projects how fatigue decays over elapsed time. Decay is
// strictly linear at RatePerDay (fraction of 100% per 24 h, default 0.15)
// and floors at zero. The model is a pure function of its inputs: no
// hidden state, so re-evaluating any point on the trajectory reproduces it.
type RecoveryModel struct {
	// RatePerDay is the fatigue fraction recovered per 24 hours.
	// 0.15 means 15 percentage points per day.
	RatePerDay float64

	// ReadyThreshold is the fatigue percentage below which a muscle is
	// considered ready (default 40).
	ReadyThreshold float64
}

// DefaultRecovery is the standard 15 points/day model with a 40% ready bar.
var DefaultRecovery = RecoveryModel{RatePerDay: 0.15, ReadyThreshold: 40}

// FatigueAt returns the projected fatigue at time at, given fatigue was
// initialFatigue at time since. Time before since yields initialFatigue
// unchanged (decay never runs backwards).
func (m RecoveryModel) FatigueAt(initialFatigue float64, since, at time.Time) float64 {
	elapsed := at.Sub(since)
	if elapsed <= 0 {
		return initialFatigue
	}
	days := elapsed.Hours() / 24
	f := initialFatigue - days*m.RatePerDay*100
	return max(f, 0)
}

// TimeToReady returns how long until initialFatigue decays to the ready
// threshold. Zero when already at or below it, never negative.
func (m RecoveryModel) TimeToReady(initialFatigue float64) time.Duration {
	if initialFatigue <= m.ReadyThreshold {
		return 0
	}
	days := (initialFatigue - m.ReadyThreshold) / (m.RatePerDay * 100)
	return time.Duration(days * 24 * float64(time.Hour))
}

// ReadyAt returns the timestamp at which fatigue crosses the ready
// threshold, given it was initialFatigue at since.
func (m RecoveryModel) ReadyAt(initialFatigue float64, since time.Time) time.Time {
	return since.Add(m.TimeToReady(initialFatigue))
}
