package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	repstrain "github.com/meltforce/repstrain"
	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/config"
	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/importer"
	"github.com/meltforce/repstrain/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "path to directory of Strong CSV exports (required)")
	stateDir := flag.String("state-dir", ".repstrain-import", "directory for the import state database")
	user := flag.String("user", "local", "login of the user to import for")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repstrain-import -config config.yaml -path /path/to/exports [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cat, err := loadCatalog(cfg, log)
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}
	if err := db.SeedExercises(ctx, cat); err != nil {
		log.Error("failed to seed exercise catalog", "error", err)
		os.Exit(1)
	}

	userID, err := db.GetOrCreateUser(ctx, *user, "")
	if err != nil {
		log.Error("failed to resolve user", "login", *user, "error", err)
		os.Exit(1)
	}
	if err := db.SeedBaselines(ctx, userID, cfg.Engine.DefaultBaseline); err != nil {
		log.Error("failed to seed baselines", "error", err)
		os.Exit(1)
	}

	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	eng := engine.New(db, cat, engine.Config{
		Thresholds: engine.Thresholds{
			Ready:     cfg.Engine.ReadyThreshold,
			DontTrain: cfg.Engine.DontTrainThreshold,
		},
		Recovery: engine.RecoveryModel{
			RatePerDay:     cfg.Engine.RecoveryRatePerDay,
			ReadyThreshold: cfg.Engine.ReadyThreshold,
		},
		DefaultBaseline: cfg.Engine.DefaultBaseline,
	}, log)

	logID, _ := db.InsertImportLog(ctx, storage.ImportLog{
		UserID: userID, Source: "strong-csv", Status: "running",
	})
	start := time.Now()

	imp := importer.New(eng, cat, state, userID, *dryRun, log)
	stats, err := imp.Import(ctx, *exportPath)

	durationMs := int(time.Since(start).Milliseconds())
	final := storage.ImportLog{
		UserID: userID, Source: "strong-csv", Status: "success",
		FilesProcessed:    stats.FilesProcessed,
		FilesSkipped:      stats.FilesSkipped,
		WorkoutsProcessed: stats.WorkoutsProcessed,
		RecordsDetected:   stats.RecordsDetected,
		DurationMs:        &durationMs,
	}
	if err != nil {
		msg := err.Error()
		final.Status = "error"
		final.ErrorMessage = &msg
	}
	if logID != 0 {
		if uerr := db.UpdateImportLog(ctx, logID, final); uerr != nil {
			log.Warn("failed to update import log", "error", uerr)
		}
	}

	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"workouts_processed", stats.WorkoutsProcessed,
		"workouts_duplicated", stats.WorkoutsDuplicated,
		"records_detected", stats.RecordsDetected,
		"baseline_ratchets", stats.BaselineRatchets,
	)
	if len(stats.SkippedExercises) > 0 {
		log.Warn("exercises not found in catalog", "names", stats.SkippedExercises)
	}
}

func loadCatalog(cfg *config.Config, log *slog.Logger) (*catalog.Catalog, error) {
	policy := catalog.NamePolicy(cfg.Engine.MuscleNamePolicy)
	if cfg.Catalog.Path == "" {
		return catalog.Load(bytes.NewReader(repstrain.DefaultCatalog), policy, log)
	}
	f, err := os.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.Load(f, policy, log)
}
