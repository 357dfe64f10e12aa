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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goosetrack/goosetrack-api/config"
	"github.com/goosetrack/goosetrack-api/internal/email"
	"github.com/goosetrack/goosetrack-api/internal/health"
	"github.com/goosetrack/goosetrack-api/internal/infrastructure/store"
	applog "github.com/goosetrack/goosetrack-api/internal/log"
	"github.com/goosetrack/goosetrack-api/internal/metrics"
	"github.com/goosetrack/goosetrack-api/internal/oauth"
	"github.com/goosetrack/goosetrack-api/internal/password"
	"github.com/goosetrack/goosetrack-api/internal/token"
	httptransport "github.com/goosetrack/goosetrack-api/internal/transport/http"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/handler"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
	"github.com/goosetrack/goosetrack-api/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := applog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

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

	tokens, err := token.NewIssuer(token.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		stop()
		log.Fatalf("token issuer: %v", err)
	}
	hasher := password.NewHasher(password.DefaultCost)
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	google := oauth.NewGoogle(oauth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL(),
	})

	// Auth
	authUsecase := usecase.NewAuthUsecase(db.Users, tokens, hasher, sender, google, cfg.FrontendURL, logger)
	authHandler := handler.NewAuthHandler(authUsecase, cfg.Env != "local", logger)

	// Users
	userUsecase := usecase.NewUserUsecase(db.Users, db.Tasks, db.Reviews, hasher, logger)
	userHandler := handler.NewUserHandler(userUsecase)

	// Tasks and reviews
	taskHandler := handler.NewTaskHandler(usecase.NewTaskUsecase(db.Tasks))
	reviewHandler := handler.NewReviewHandler(usecase.NewReviewUsecase(db.Reviews))

	metrics.Register()
	checker := health.NewChecker(db.Driver, db.DB, logger, prometheus.DefaultRegisterer)

	router, err := httptransport.NewRouter(logger,
		httptransport.Handlers{
			Auth:   authHandler,
			User:   userHandler,
			Task:   taskHandler,
			Review: reviewHandler,
		},
		middleware.Auth(tokens, db.Users),
		httptransport.Options{
			CORSOrigins:         cfg.CORSOrigins,
			AuthRateLimitPerMin: cfg.RateLimitAuthPerMin,
			TrustedProxies:      cfg.TrustedProxies,
		},
	)
	if err != nil {
		stop()
		log.Fatalf("router: %v", err)
	}

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "store", db.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
