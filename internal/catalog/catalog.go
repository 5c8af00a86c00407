package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamePolicy controls how unrecognized muscle names in catalog data are handled.
type NamePolicy string

const (
	// PolicyStrict rejects the catalog when an engagement names an unknown
	// muscle. This is the default: a dropped engagement silently understates
	// every downstream fatigue computation.
	PolicyStrict NamePolicy = "strict"

	// PolicyLenient drops engagements with unknown muscle names and logs a
	// warning. Intended for legacy exports with free-text muscle fields.
	PolicyLenient NamePolicy = "lenient"
)

// Valid reports whether p is a known policy.
func (p NamePolicy) Valid() bool {
	return p == PolicyStrict || p == PolicyLenient
}

// Engagement attributes a percentage of an exercise's set volume to one
// muscle. Percent is validated into [0, 100] at load time; percentages
// across a single exercise need not sum to 100.
type Engagement struct {
	Muscle  Muscle  `yaml:"muscle" json:"muscle"`
	Percent float64 `yaml:"percent" json:"percent"`
}

// Exercise is a static catalog entry. Immutable at runtime.
type Exercise struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Category    Category     `yaml:"category" json:"category"`
	Engagements []Engagement `yaml:"engagements" json:"engagements"`
}

// Catalog holds the validated exercise reference data.
type Catalog struct {
	byID   map[string]Exercise
	byName map[string]string // normalized display name -> id
	order  []string
}

// UnknownMuscleError reports an engagement whose muscle name could not be
// resolved under PolicyStrict.
type UnknownMuscleError struct {
	ExerciseID string
	Name       string
}

func (e *UnknownMuscleError) Error() string {
	return fmt.Sprintf("exercise %q: unknown muscle name %q", e.ExerciseID, e.Name)
}

type catalogFile struct {
	Exercises []rawExercise `yaml:"exercises"`
}

type rawExercise struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Category    Category        `yaml:"category"`
	Engagements []rawEngagement `yaml:"engagements"`
}

type rawEngagement struct {
	Muscle  string  `yaml:"muscle"`
	Percent float64 `yaml:"percent"`
}

// Load parses and validates a YAML exercise catalog. Muscle names are
// normalized through ParseMuscle; behavior on unmapped names follows policy.
func Load(r io.Reader, policy NamePolicy, log *slog.Logger) (*Catalog, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("invalid muscle name policy %q", policy)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(file.Exercises) == 0 {
		return nil, fmt.Errorf("catalog contains no exercises")
	}

	cat := &Catalog{
		byID:   make(map[string]Exercise, len(file.Exercises)),
		byName: make(map[string]string, len(file.Exercises)),
	}

	for _, raw := range file.Exercises {
		if raw.ID == "" {
			return nil, fmt.Errorf("exercise %q: missing id", raw.Name)
		}
		if raw.Name == "" {
			return nil, fmt.Errorf("exercise %q: missing name", raw.ID)
		}
		if _, dup := cat.byID[raw.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %q", raw.ID)
		}
		if !raw.Category.Valid() {
			return nil, fmt.Errorf("exercise %q: unknown category %q", raw.ID, raw.Category)
		}
		if len(raw.Engagements) == 0 {
			return nil, fmt.Errorf("exercise %q: no muscle engagements", raw.ID)
		}

		ex := Exercise{ID: raw.ID, Name: raw.Name, Category: raw.Category}
		seen := map[Muscle]bool{}
		for _, e := range raw.Engagements {
			if e.Percent < 0 || e.Percent > 100 {
				return nil, fmt.Errorf("exercise %q: engagement %q percent %.1f outside [0, 100]",
					raw.ID, e.Muscle, e.Percent)
			}
			m, ok := ParseMuscle(e.Muscle)
			if !ok {
				if policy == PolicyStrict {
					return nil, &UnknownMuscleError{ExerciseID: raw.ID, Name: e.Muscle}
				}
				log.Warn("dropping engagement with unknown muscle name",
					"exercise", raw.ID, "muscle", e.Muscle)
				continue
			}
			if seen[m] {
				return nil, fmt.Errorf("exercise %q: duplicate engagement for muscle %q", raw.ID, m)
			}
			seen[m] = true
			ex.Engagements = append(ex.Engagements, Engagement{Muscle: m, Percent: e.Percent})
		}
		if len(ex.Engagements) == 0 {
			return nil, fmt.Errorf("exercise %q: all engagements dropped", raw.ID)
		}

		cat.byID[ex.ID] = ex
		cat.byName[normalizeName(ex.Name)] = ex.ID
		cat.order = append(cat.order, ex.ID)
	}

	return cat, nil
}

// Get returns the exercise with the given id.
func (c *Catalog) Get(id string) (Exercise, bool) {
	ex, ok := c.byID[id]
	return ex, ok
}

// FindByName resolves a display name ("Bench Press") to an exercise.
// Matching is case-insensitive; used by importers resolving export rows.
func (c *Catalog) FindByName(name string) (Exercise, bool) {
	id, ok := c.byName[normalizeName(name)]
	if !ok {
		return Exercise{}, false
	}
	return c.byID[id], true
}

// Exercises returns all exercises in catalog order.
func (c *Catalog) Exercises() []Exercise {
	out := make([]Exercise, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of exercises.
func (c *Catalog) Len() int { return len(c.order) }

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
