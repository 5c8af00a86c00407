package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	repstrain "github.com/meltforce/repstrain"
	"github.com/meltforce/repstrain/internal/catalog"
	"github.com/meltforce/repstrain/internal/config"
	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/server"
	"github.com/meltforce/repstrain/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("RepStrain starting", "version", Version)

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
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	cat, err := loadCatalog(cfg, log)
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}
	if err := db.SeedExercises(ctx, cat); err != nil {
		log.Error("failed to seed exercise catalog", "error", err)
		os.Exit(1)
	}
	log.Info("exercise catalog loaded", "exercises", cat.Len())

	eng := engine.New(db, cat, engineConfig(cfg), log)
	srv := server.New(db, eng, cfg.Auth.APIKey, cfg.Engine.DefaultBaseline, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
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

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Thresholds: engine.Thresholds{
			Ready:     cfg.Engine.ReadyThreshold,
			DontTrain: cfg.Engine.DontTrainThreshold,
		},
		Recovery: engine.RecoveryModel{
			RatePerDay:     cfg.Engine.RecoveryRatePerDay,
			ReadyThreshold: cfg.Engine.ReadyThreshold,
		},
		DefaultBaseline: cfg.Engine.DefaultBaseline,
	}
}
