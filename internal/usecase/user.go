package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/password"
	"github.com/goosetrack/goosetrack-api/internal/repository"
)

type UserUsecase struct {
	users   repository.UserRepository
	tasks   repository.TaskRepository
	reviews repository.ReviewRepository
	hasher  *password.Hasher
	logger  *slog.Logger
}

func NewUserUsecase(
	users repository.UserRepository,
	tasks repository.TaskRepository,
	reviews repository.ReviewRepository,
	hasher *password.Hasher,
	logger *slog.Logger,
) *UserUsecase {
	return &UserUsecase{
		users:   users,
		tasks:   tasks,
		reviews: reviews,
		hasher:  hasher,
		logger:  logger.With("component", "user_usecase"),
	}
}

func (u *UserUsecase) Current(user *domain.User) domain.Profile {
	return user.Profile()
}

// Update edits the profile. The email may stay the same but must not belong to anyone else.
func (u *UserUsecase) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	upd.Email = normalizeEmail(upd.Email)

	taken, err := u.users.EmailTakenByOther(ctx, upd.Email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailInUse
	}

	updated, err := u.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	profile := updated.Profile()
	return &profile, nil
}

func (u *UserUsecase) UpdatePassword(ctx context.Context, user *domain.User, oldPassword, newPassword string) error {
	if oldPassword == newPassword {
		return domain.ErrSamePassword
	}

	ok, err := u.hasher.Compare(user.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPasswordInvalid
	}

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Remove deletes the account and everything it owns. secretKey is the key
// mailed by AuthUsecase.SendRemovalKey.
func (u *UserUsecase) Remove(ctx context.Context, user *domain.User, secretKey string) error {
	if secretKey != user.ID {
		return domain.ErrSecretKeyInvalid
	}

	if _, err := u.reviews.DeleteByOwner(ctx, user.ID); err != nil && !errors.Is(err, domain.ErrReviewNotFound) {
		return fmt.Errorf("delete review: %w", err)
	}
	n, err := u.tasks.DeleteByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	if err := u.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	u.logger.InfoContext(ctx, "account removed", "tasks_deleted", n)
	return nil
}
