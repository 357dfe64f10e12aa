package repository

import (
	"context"
	"time"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

// UserRepository is the credential store. Implementations must enforce email
// uniqueness and return domain.ErrEmailTaken on a duplicate insert.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// EmailTakenByOther reports whether email belongs to a user other than id.
	EmailTakenByOther(ctx context.Context, email, id string) (bool, error)

	// SetTokens overwrites the stored session of a user.
	SetTokens(ctx context.Context, id string, pair domain.TokenPair) error
	// RotateRefreshToken atomically replaces the session of the user whose stored
	// refresh token equals oldRefresh. Returns domain.ErrUserNotFound when no
	// user holds oldRefresh.
	RotateRefreshToken(ctx context.Context, oldRefresh string, pair domain.TokenPair) (*domain.User, error)
	ClearTokens(ctx context.Context, id string) error
	// MarkFederated sets the federated flag and stores a new session in one write.
	MarkFederated(ctx context.Context, id string, pair domain.TokenPair) error
	// ClearExpiredSessions clears tokens whose session expired before cutoff.
	ClearExpiredSessions(ctx context.Context, cutoff time.Time, limit int) (int, error)

	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
