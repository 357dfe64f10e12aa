package httptransport

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/goosetrack/goosetrack-api/internal/transport/http/handler"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Task   *handler.TaskHandler
	Review *handler.ReviewHandler
}

type Options struct {
	CORSOrigins         []string
	AuthRateLimitPerMin int
	TrustedProxies      []string
}

func NewRouter(logger *slog.Logger, h Handlers, authMW gin.HandlerFunc, opts Options) (*gin.Engine, error) {
	handler.RegisterValidators()

	r := gin.New()
	// ClientIP keys the rate limiter, so a bad proxy list must not be ignored
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithRequestID: false,
		Filters:       []sloggin.Filter{sloggin.IgnorePath("/favicon.ico")},
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.Errors(logger))
	r.NoRoute(middleware.NotFound)

	limit := middleware.RateLimit(opts.AuthRateLimitPerMin)
	api := r.Group("/api")

	// Public auth routes are rate limited per client IP
	auth := api.Group("/auth")
	auth.POST("/register", limit, h.Auth.Register)
	auth.POST("/login", limit, h.Auth.Login)
	auth.POST("/refresh", limit, h.Auth.Refresh)
	auth.POST("/reset", limit, h.Auth.ResetPassword)
	auth.GET("/reset", limit, h.Auth.ResetPassword)
	auth.GET("/google", h.Auth.GoogleAuth)
	auth.GET("/google-redirect", limit, h.Auth.GoogleRedirect)
	auth.POST("/logout", authMW, h.Auth.Logout)
	auth.GET("/remove-key", authMW, h.Auth.SendRemovalKey)

	users := api.Group("/users", authMW)
	users.GET("/current", h.User.Current)
	users.PATCH("/edit", h.User.Update)
	users.PATCH("/edit/password", h.User.UpdatePassword)
	users.DELETE("/remove", h.User.Remove)

	tasks := api.Group("/tasks", authMW)
	tasks.GET("", h.Task.List)
	tasks.POST("", h.Task.Create)
	tasks.PATCH("/:id", h.Task.Update)
	tasks.DELETE("/:id", h.Task.Remove)

	api.GET("/reviews", h.Review.List)
	own := api.Group("/reviews/own", authMW)
	own.GET("", h.Review.FindOwn)
	own.POST("", h.Review.Create)
	own.PATCH("", h.Review.Update)
	own.DELETE("", h.Review.Remove)

	return r, nil
}
