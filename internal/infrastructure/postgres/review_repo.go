package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

const reviewColumns = `id, rating, text, owner_id, created_at, updated_at`

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (*domain.Review, error) {
	if !validID(rv.OwnerID) {
		return nil, domain.ErrUserNotFound
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (rating, text, owner_id)
		VALUES ($1, $2, $3)
		RETURNING `+reviewColumns,
		rv.Rating, rv.Text, rv.OwnerID,
	)
	created, err := scanReview(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrReviewExists
		}
		return nil, err
	}
	return created, nil
}

func (r *ReviewRepository) ListAll(ctx context.Context) ([]*domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.rating, r.text, r.owner_id, r.created_at, r.updated_at,
		       u.username, u.avatar
		FROM   reviews r
		JOIN   users u ON u.id = r.owner_id
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		var (
			rv    domain.Review
			owner domain.Owner
		)
		if err := rows.Scan(
			&rv.ID, &rv.Rating, &rv.Text, &rv.OwnerID, &rv.CreatedAt, &rv.UpdatedAt,
			&owner.Username, &owner.Avatar,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		owner.ID = rv.OwnerID
		rv.Owner = &owner
		reviews = append(reviews, &rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Review, error) {
	if !validID(ownerID) {
		return nil, domain.ErrReviewNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE owner_id = $1`, ownerID)
	return scanReview(row)
}

func (r *ReviewRepository) UpdateByOwner(ctx context.Context, ownerID string, rating int, text string) (*domain.Review, error) {
	if !validID(ownerID) {
		return nil, domain.ErrReviewNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE reviews
		SET    rating = $2, text = $3, updated_at = NOW()
		WHERE  owner_id = $1
		RETURNING `+reviewColumns,
		ownerID, rating, text,
	)
	return scanReview(row)
}

func (r *ReviewRepository) DeleteByOwner(ctx context.Context, ownerID string) (*domain.Review, error) {
	if !validID(ownerID) {
		return nil, domain.ErrReviewNotFound
	}
	row := r.pool.QueryRow(ctx, `DELETE FROM reviews WHERE owner_id = $1 RETURNING `+reviewColumns, ownerID)
	return scanReview(row)
}

func scanReview(row rowScanner) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(&rv.ID, &rv.Rating, &rv.Text, &rv.OwnerID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rv, nil
}
