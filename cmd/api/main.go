package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"kdcflow/internal/api"
	"kdcflow/internal/config"
	"kdcflow/internal/logging"
	"kdcflow/internal/pipeline"
	"kdcflow/internal/providers"
	"kdcflow/internal/storage"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	pm, err := providers.NewManager(cfg)
	if err != nil {
		logger.Fatal("build providers", zap.Error(err))
	}
	pm.WithLogger(logger.Named("providers"))
	deps := api.Deps{Log: logger.Named("api")}

	// Storage and Temporal are optional: without them the classify and
	// taxonomy endpoints still work.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err == nil {
		if err = db.EnsureSchema(ctx); err != nil {
			db.Close()
		}
	}
	if err != nil {
		logger.Warn("postgres unavailable, decisions will not be stored", zap.Error(err))
	} else {
		defer db.Close()
		pm.WithRecorder(storage.NewLLMAuditRepo(db))
		deps.Decisions = storage.NewDecisionRepo(db)
		deps.Batches = storage.NewBatchRepo(db)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Warn("temporal unavailable, batches disabled", zap.Error(err))
	} else {
		defer tc.Close()
		deps.Temporal = tc
	}

	deps.Pipeline, err = pipeline.Build(cfg, pm, logger)
	if err != nil {
		logger.Fatal("build pipeline", zap.Error(err))
	}
	h := api.NewServer(cfg, deps)
	logger.Info("kdcflow api listening",
		zap.String("addr", cfg.APIAddr),
		zap.String("llm_providers", cfg.LLMProviders),
		zap.String("anchor_mode", cfg.Pipeline.AnchorMode))
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}
