package usecase

import (
	"context"
	"strings"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/repository"
)

type TaskUsecase struct {
	repo repository.TaskRepository
}

func NewTaskUsecase(repo repository.TaskRepository) *TaskUsecase {
	return &TaskUsecase{repo: repo}
}

type TaskInput struct {
	Title    string
	Start    string
	End      string
	Priority domain.Priority
	Date     string
	Category domain.Category
}

func (in TaskInput) toTask(owner *domain.User) (*domain.Task, error) {
	t := &domain.Task{
		Title:    strings.TrimSpace(in.Title),
		Start:    in.Start,
		End:      in.End,
		Priority: in.Priority,
		Date:     in.Date,
		Category: in.Category,
		OwnerID:  owner.ID,
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityLow
	}
	if t.Category == "" {
		t.Category = domain.CategoryTodo
	}
	if err := t.CheckTimes(); err != nil {
		return nil, err
	}
	return t, nil
}

func (u *TaskUsecase) Create(ctx context.Context, owner *domain.User, in TaskInput) (*domain.Task, error) {
	t, err := in.toTask(owner)
	if err != nil {
		return nil, err
	}
	return u.repo.Create(ctx, t)
}

// ListByMonth returns the owner's tasks whose date starts with month, usually "YYYY-MM".
func (u *TaskUsecase) ListByMonth(ctx context.Context, owner *domain.User, month string) ([]*domain.Task, error) {
	if month == "" {
		return nil, domain.ErrTaskDateQuery
	}

	tasks, err := u.repo.ListByDatePrefix(ctx, owner.ID, month)
	if err != nil {
		return nil, err
	}

	o := ownerOf(owner)
	for _, t := range tasks {
		t.Owner = o
	}
	return tasks, nil
}

func (u *TaskUsecase) Update(ctx context.Context, id string, owner *domain.User, in TaskInput) (*domain.Task, error) {
	t, err := in.toTask(owner)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return u.repo.Update(ctx, t)
}

func (u *TaskUsecase) Remove(ctx context.Context, id string, owner *domain.User) (*domain.Task, error) {
	return u.repo.Delete(ctx, id, owner.ID)
}

func ownerOf(user *domain.User) *domain.Owner {
	return &domain.Owner{ID: user.ID, Username: user.Username, Avatar: user.Avatar}
}
