package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

const errInternalServer = "Internal server error"

// Errors renders the last error pushed with c.Error as {"code","message"}.
// Typed domain errors keep their status and message; anything else is logged
// and hidden behind a 500.
func Errors(logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "http_errors")

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if e, ok := domain.AsError(err); ok {
			if e.Kind == domain.KindUpstream {
				logger.WarnContext(c.Request.Context(), "upstream failure", "error", err)
			}
			c.JSON(e.Status(), gin.H{"code": e.Status(), "message": e.Message})
			return
		}

		logger.ErrorContext(c.Request.Context(), "request failed",
			"error", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": errInternalServer})
	}
}

// Recovery turns a panic into the same 500 body the Errors boundary writes.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": errInternalServer})
	})
}

// NotFound is the NoRoute handler.
func NotFound(c *gin.Context) {
	_ = c.Error(domain.ErrRouteNotFound)
}
