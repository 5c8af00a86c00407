package main

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	repstrain "github.com/meltforce/repstrain"
	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/config"
	"github.com/meltforce/repstrain/internal/engine"
	mcpserver "github.com/meltforce/repstrain/internal/mcp"
	"github.com/meltforce/repstrain/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	user := flag.String("user", "local", "login of the user to serve")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP stdio transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
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

	userID, err := db.GetOrCreateUser(ctx, *user, "")
	if err != nil {
		log.Error("failed to resolve user", "login", *user, "error", err)
		os.Exit(1)
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

	s := mcpserver.New(eng, Version, log)
	log.Info("RepStrain MCP server starting", "version", Version, "user", *user)

	stdio := server.NewStdioServer(s)
	stdio.SetContextFunc(func(ctx context.Context) context.Context {
		return mcpserver.WithUserID(ctx, userID)
	})
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
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
