package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

const taskColumns = `id, title, start_time, end_time, priority, date, category, owner_id, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if !validID(t.OwnerID) {
		return nil, domain.ErrUserNotFound
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, start_time, end_time, priority, date, category, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		t.Title, t.Start, t.End, t.Priority, t.Date, t.Category, t.OwnerID,
	)
	return scanTask(row)
}

func (r *TaskRepository) ListByDatePrefix(ctx context.Context, ownerID, prefix string) ([]*domain.Task, error) {
	if !validID(ownerID) {
		return []*domain.Task{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM   tasks
		WHERE  owner_id = $1 AND date LIKE $2 || '%'
		ORDER BY date ASC, start_time ASC`,
		ownerID, likeEscaper.Replace(prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if !validID(t.ID) || !validID(t.OwnerID) {
		return nil, domain.ErrTaskNotAllowed
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET    title = $3, start_time = $4, end_time = $5, priority = $6,
		       date = $7, category = $8, updated_at = NOW()
		WHERE  id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		t.ID, t.OwnerID, t.Title, t.Start, t.End, t.Priority, t.Date, t.Category,
	)
	return scanTask(row)
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrTaskNotAllowed
	}
	row := r.pool.QueryRow(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING `+taskColumns,
		id, ownerID,
	)
	return scanTask(row)
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	if !validID(ownerID) {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Start, &t.End, &t.Priority, &t.Date, &t.Category,
		&t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotAllowed
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}
