// Package importer replays Strong CSV exports through the fatigue engine.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/ingest/strongcsv"
	"github.com/meltforce/repstrain/internal/models"
)

// workoutNamespace derives deterministic workout IDs from export rows, so
// re-importing the same session is a no-op even without the state DB.
var workoutNamespace = uuid.MustParse("6d1a2f3e-8f09-4b7c-9a41-4f31c9b2a05d")

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	WorkoutsProcessed  int
	WorkoutsDuplicated int
	RecordsDetected    int
	BaselineRatchets   int

	SkippedExercises []string
}

// Importer reads .csv export files from a directory and runs each workout
// through the engine.
type Importer struct {
	eng    *engine.Engine
	cat    *catalog.Catalog
	state  *StateDB
	log    *slog.Logger
	userID int
	dryRun bool
	stats  Stats
}

// New creates a new Importer. state may be nil to disable file skipping.
func New(eng *engine.Engine, cat *catalog.Catalog, state *StateDB, userID int, dryRun bool, log *slog.Logger) *Importer {
	return &Importer{eng: eng, cat: cat, state: state, userID: userID, dryRun: dryRun, log: log}
}

// Import processes every .csv file under dir, oldest-named first.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading export dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		if skip, err := imp.alreadyImported(name, path); err != nil {
			return &imp.stats, err
		} else if skip {
			imp.stats.FilesSkipped++
			imp.log.Info("skipping already-imported file", "file", name)
			continue
		}

		if err := imp.importFile(ctx, name, path); err != nil {
			imp.stats.FilesErrored++
			return &imp.stats, fmt.Errorf("importing %s: %w", name, err)
		}
		imp.stats.FilesProcessed++

		if err := imp.markImported(name, path); err != nil {
			return &imp.stats, err
		}
	}

	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sessions, err := strongcsv.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	for _, session := range sessions {
		workout, ok := imp.convertSession(session)
		if !ok {
			continue
		}
		if imp.dryRun {
			imp.stats.WorkoutsProcessed++
			continue
		}

		result, err := imp.eng.ProcessWorkout(ctx, workout)
		if err != nil {
			return fmt.Errorf("processing session %q at %s: %w",
				session.Name, session.PerformedAt.Format("2006-01-02"), err)
		}
		if result.Duplicate {
			imp.stats.WorkoutsDuplicated++
			continue
		}
		imp.stats.WorkoutsProcessed++
		imp.stats.RecordsDetected += len(result.Records)
		imp.stats.BaselineRatchets += len(result.BaselineDeltas)
	}

	imp.log.Info("file imported", "file", name, "sessions", len(sessions))
	return nil
}

// convertSession maps export exercise names onto catalog entries. Exercises
// with no catalog match are skipped and reported in stats; dropping them
// silently would hide understated fatigue from the operator.
func (imp *Importer) convertSession(session strongcsv.Session) (*models.Workout, bool) {
	w := &models.Workout{
		ID: uuid.NewSHA1(workoutNamespace, []byte(fmt.Sprintf("%d/%s/%s",
			imp.userID, session.PerformedAt.Format("2006-01-02 15:04:05"), session.Name))),
		UserID:      imp.userID,
		Name:        session.Name,
		PerformedAt: session.PerformedAt,
	}

	for _, ex := range session.Exercises {
		entry, ok := imp.cat.FindByName(ex.Name)
		if !ok {
			imp.noteSkipped(ex.Name)
			continue
		}
		le := models.LoggedExercise{ExerciseID: entry.ID}
		for _, s := range ex.Sets {
			le.Sets = append(le.Sets, models.LoggedSet{Weight: s.Weight, Reps: s.Reps, ToFailure: s.ToFailure})
		}
		w.Exercises = append(w.Exercises, le)
	}

	return w, len(w.Exercises) > 0
}

func (imp *Importer) noteSkipped(name string) {
	for _, seen := range imp.stats.SkippedExercises {
		if seen == name {
			return
		}
	}
	imp.stats.SkippedExercises = append(imp.stats.SkippedExercises, name)
	imp.log.Warn("exercise not in catalog, skipping", "exercise", name)
}

func (imp *Importer) alreadyImported(name, path string) (bool, error) {
	if imp.state == nil {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	hash, err := HashFile(path)
	if err != nil {
		return false, err
	}
	return imp.state.IsImported(name, info.Size(), hash)
}

func (imp *Importer) markImported(name, path string) error {
	if imp.state == nil || imp.dryRun {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return err
	}
	return imp.state.MarkImported(name, info.Size(), hash)
}
