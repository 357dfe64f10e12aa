package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	applog "github.com/goosetrack/goosetrack-api/internal/log"
)

const (
	UserKey   = "user"
	UserIDKey = "userID"
)

type accessVerifier interface {
	VerifyAccessToken(raw string) (string, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates a Bearer access token, loads its user and sets "user" and
// "userID" in the gin context. The token must also be the one currently stored
// for the user, so logging out revokes it immediately.
func Auth(tokens accessVerifier, users userFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			reject(c)
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		userID, err := tokens.VerifyAccessToken(raw)
		if err != nil {
			reject(c)
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				reject(c)
				return
			}
			_ = c.Error(fmt.Errorf("load user: %w", err))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(user.AccessToken), []byte(raw)) != 1 {
			reject(c)
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Request = c.Request.WithContext(applog.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// CurrentUser returns the user set by Auth, or nil on unauthenticated routes.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func reject(c *gin.Context) {
	_ = c.Error(domain.ErrNotAuthorized)
	c.Abort()
}
