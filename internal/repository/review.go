package repository

import (
	"context"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (*domain.Review, error)
	// ListAll returns every review newest first with Owner populated.
	ListAll(ctx context.Context) ([]*domain.Review, error)
	// FindByOwner returns domain.ErrReviewNotFound when the owner has no review.
	FindByOwner(ctx context.Context, ownerID string) (*domain.Review, error)
	UpdateByOwner(ctx context.Context, ownerID string, rating int, text string) (*domain.Review, error)
	DeleteByOwner(ctx context.Context, ownerID string) (*domain.Review, error)
}
