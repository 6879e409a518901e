package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"kdcflow/internal/activities"
	"kdcflow/internal/config"
	"kdcflow/internal/logging"
	"kdcflow/internal/pipeline"
	"kdcflow/internal/providers"
	"kdcflow/internal/storage"
	"kdcflow/internal/workflows"
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

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("dial temporal", zap.Error(err))
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}

	pm, err := providers.NewManager(cfg)
	if err != nil {
		logger.Fatal("build providers", zap.Error(err))
	}
	pm.WithLogger(logger.Named("providers")).WithRecorder(storage.NewLLMAuditRepo(db))
	p, err := pipeline.Build(cfg, pm, logger)
	if err != nil {
		logger.Fatal("build pipeline", zap.Error(err))
	}

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, db, p))

	logger.Info("kdcflow worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("llm_providers", cfg.LLMProviders))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
