// sweeper periodically clears sessions whose refresh token has expired.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goosetrack/goosetrack-api/config"
	"github.com/goosetrack/goosetrack-api/internal/health"
	"github.com/goosetrack/goosetrack-api/internal/housekeeping"
	"github.com/goosetrack/goosetrack-api/internal/infrastructure/store"
	applog "github.com/goosetrack/goosetrack-api/internal/log"
	"github.com/goosetrack/goosetrack-api/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := applog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	db, err := store.Open(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	metrics.Register()
	checker := health.NewChecker(db.Driver, db.DB, logger, prometheus.DefaultRegisterer)

	sweeper, err := housekeeping.NewSweeper(db.Users, cfg.SweepCron, logger)
	if err != nil {
		stop()
		log.Fatalf("sweeper: %v", err)
	}

	// one pass on start so a long downtime does not wait for the first tick
	sweeper.Sweep(ctx)

	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("sweeper shut down")
}
