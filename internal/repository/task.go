package repository

import (
	"context"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// ListByDatePrefix returns the owner's tasks whose date starts with prefix.
	ListByDatePrefix(ctx context.Context, ownerID, prefix string) ([]*domain.Task, error)
	// Update and Delete match on both id and owner; a miss returns domain.ErrTaskNotAllowed.
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID string) (*domain.Task, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int, error)
}
