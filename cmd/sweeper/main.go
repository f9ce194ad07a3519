package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"peerlend-backend/internal/adapter/repository/mysql"
	"peerlend-backend/internal/config"
	"peerlend-backend/internal/infrastructure/db"
	"peerlend-backend/internal/infrastructure/logging"
	sweepuc "peerlend-backend/internal/usecase/sweep"
)

const sweepTimeout = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		logger.Fatal("mysql", zap.Error(err))
	}

	loanRepo := mysql.NewLoanRepository(gdb)
	guow := mysql.NewGormUoW(gdb)
	sink := mysql.NewOutboxSink(gdb)
	uc := sweepuc.NewUsecase(loanRepo, guow, sink, logger)

	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := uc.Run(ctx, time.Now().UTC()); err != nil {
			logger.Error("overdue sweep failed", zap.Error(err))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, run); err != nil {
		logger.Fatal("bad sweep schedule", zap.String("schedule", cfg.SweepSchedule), zap.Error(err))
	}
	c.Start()
	logger.Info("sweeper started", zap.String("schedule", cfg.SweepSchedule))

	// One pass at startup so a crashed schedule slot is not missed.
	run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("sweeper stopping")
	<-c.Stop().Done()
}
