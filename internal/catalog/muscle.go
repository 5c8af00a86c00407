package catalog

import "strings"

// Muscle identifies a trackable muscle group. Values match the
// muscle_baselines / muscle_states schema.
type Muscle string

const (
	Chest      Muscle = "chest"
	FrontDelts Muscle = "front_delts"
	SideDelts  Muscle = "side_delts"
	RearDelts  Muscle = "rear_delts"
	Lats       Muscle = "lats"
	Traps      Muscle = "traps"
	LowerBack  Muscle = "lower_back"
	Biceps     Muscle = "biceps"
	Triceps    Muscle = "triceps"
	Forearms   Muscle = "forearms"
	Abs        Muscle = "abs"
	Obliques   Muscle = "obliques"
	Quads      Muscle = "quads"
	Hamstrings Muscle = "hamstrings"
	Glutes     Muscle = "glutes"
	Calves     Muscle = "calves"
)

// AllMuscles lists every known muscle, in display order. Baseline seeding
// creates one row per entry.
var AllMuscles = []Muscle{
	Chest, FrontDelts, SideDelts, RearDelts,
	Lats, Traps, LowerBack,
	Biceps, Triceps, Forearms,
	Abs, Obliques,
	Quads, Hamstrings, Glutes, Calves,
}

// Valid reports whether m is a known muscle.
func (m Muscle) Valid() bool {
	for _, known := range AllMuscles {
		if m == known {
			return true
		}
	}
	return false
}

// aliases maps normalized free-text muscle names to canonical muscles.
// Exercise data from exports and hand-edited catalogs uses inconsistent
// naming ("pecs", "rear delts", "quadriceps"), so lookups go through here.
var aliases = map[string]Muscle{
	"chest":           Chest,
	"pecs":            Chest,
	"pectorals":       Chest,
	"front delts":     FrontDelts,
	"front deltoids":  FrontDelts,
	"anterior delts":  FrontDelts,
	"shoulders":       FrontDelts,
	"side delts":      SideDelts,
	"lateral delts":   SideDelts,
	"rear delts":      RearDelts,
	"posterior delts": RearDelts,
	"lats":            Lats,
	"latissimus":      Lats,
	"upper back":      Lats,
	"traps":           Traps,
	"trapezius":       Traps,
	"lower back":      LowerBack,
	"erectors":        LowerBack,
	"spinal erectors": LowerBack,
	"biceps":          Biceps,
	"triceps":         Triceps,
	"forearms":        Forearms,
	"grip":            Forearms,
	"abs":             Abs,
	"abdominals":      Abs,
	"core":            Abs,
	"obliques":        Obliques,
	"quads":           Quads,
	"quadriceps":      Quads,
	"hamstrings":      Hamstrings,
	"hams":            Hamstrings,
	"glutes":          Glutes,
	"gluteus":         Glutes,
	"calves":          Calves,
	"calfs":           Calves,
}

// ParseMuscle resolves a free-text muscle name to a canonical Muscle.
// Matching is case-insensitive and tolerates underscores and hyphens.
func ParseMuscle(name string) (Muscle, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.ReplaceAll(key, "-", " ")
	if m, ok := aliases[key]; ok {
		return m, true
	}
	return "", false
}

// Category groups exercises by movement pattern.
type Category string

const (
	CategoryPush Category = "push"
	CategoryPull Category = "pull"
	CategoryLegs Category = "legs"
	CategoryCore Category = "core"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPush, CategoryPull, CategoryLegs, CategoryCore:
		return true
	}
	return false
}
