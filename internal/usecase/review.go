package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/repository"
)

type ReviewUsecase struct {
	repo repository.ReviewRepository
}

func NewReviewUsecase(repo repository.ReviewRepository) *ReviewUsecase {
	return &ReviewUsecase{repo: repo}
}

// Create adds the owner's review. Each user may hold at most one.
func (u *ReviewUsecase) Create(ctx context.Context, owner *domain.User, rating int, text string) (*domain.Review, error) {
	if _, err := u.repo.FindByOwner(ctx, owner.ID); err == nil {
		return nil, domain.ErrReviewExists
	} else if !errors.Is(err, domain.ErrReviewNotFound) {
		return nil, err
	}

	return u.repo.Create(ctx, &domain.Review{
		Rating:  rating,
		Text:    strings.TrimSpace(text),
		OwnerID: owner.ID,
	})
}

func (u *ReviewUsecase) ListAll(ctx context.Context) ([]*domain.Review, error) {
	return u.repo.ListAll(ctx)
}

// FindOwn returns nil without error when the owner has not written a review.
func (u *ReviewUsecase) FindOwn(ctx context.Context, owner *domain.User) (*domain.Review, error) {
	r, err := u.repo.FindByOwner(ctx, owner.ID)
	if errors.Is(err, domain.ErrReviewNotFound) {
		return nil, nil
	}
	return r, err
}

func (u *ReviewUsecase) UpdateOwn(ctx context.Context, owner *domain.User, rating int, text string) (*domain.Review, error) {
	return u.repo.UpdateByOwner(ctx, owner.ID, rating, strings.TrimSpace(text))
}

func (u *ReviewUsecase) RemoveOwn(ctx context.Context, owner *domain.User) (*domain.Review, error) {
	return u.repo.DeleteByOwner(ctx, owner.ID)
}
