package engine

import (
	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/models"
)

// BaselineDelta reports one ratchet of a muscle's learned baseline.
type BaselineDelta struct {
	Muscle catalog.Muscle `json:"muscle"`
	Old    float64        `json:"old"`
	New    float64        `json:"new"`
}

// ratchetBaseline raises SystemLearnedMax to observedVolume when the
// observation exceeds it. The learned value never decreases and the user
// override is never touched; only explicit user action changes that.
func ratchetBaseline(b *models.MuscleBaseline, observedVolume float64) (BaselineDelta, bool) {
	if observedVolume <= b.SystemLearnedMax {
		return BaselineDelta{}, false
	}
	d := BaselineDelta{Muscle: b.Muscle, Old: b.SystemLearnedMax, New: observedVolume}
	b.SystemLearnedMax = observedVolume
	return d, true
}
