package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

const userColumns = `id, email, username, password, avatar, birthday, skype, phone,
	access_token, refresh_token, session_expires_at, is_google_auth, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, username, password, avatar, birthday, skype, phone, is_google_auth)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		user.Email, user.Username, user.PasswordHash,
		user.Avatar, user.Birthday, user.Skype, user.Phone, user.Federated,
	)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) EmailTakenByOther(ctx context.Context, email, id string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id::text <> $2)`,
		email, id,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func (r *UserRepository) SetTokens(ctx context.Context, id string, pair domain.TokenPair) error {
	return r.execByID(ctx,
		`UPDATE users
		SET    access_token = $2, refresh_token = $3, session_expires_at = $4, updated_at = NOW()
		WHERE  id = $1`,
		id, pair.AccessToken, pair.RefreshToken, pair.RefreshExpiresAt,
	)
}

func (r *UserRepository) RotateRefreshToken(ctx context.Context, oldRefresh string, pair domain.TokenPair) (*domain.User, error) {
	if oldRefresh == "" {
		return nil, domain.ErrUserNotFound
	}

	// the WHERE on the old token makes concurrent rotations of the same token race to one winner
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET    access_token = $2, refresh_token = $3, session_expires_at = $4, updated_at = NOW()
		WHERE  refresh_token = $1
		RETURNING `+userColumns,
		oldRefresh, pair.AccessToken, pair.RefreshToken, pair.RefreshExpiresAt,
	)
	return scanUser(row)
}

func (r *UserRepository) ClearTokens(ctx context.Context, id string) error {
	return r.execByID(ctx,
		`UPDATE users
		SET    access_token = '', refresh_token = '', session_expires_at = NULL, updated_at = NOW()
		WHERE  id = $1`,
		id,
	)
}

func (r *UserRepository) MarkFederated(ctx context.Context, id string, pair domain.TokenPair) error {
	return r.execByID(ctx,
		`UPDATE users
		SET    is_google_auth = TRUE,
		       access_token = $2, refresh_token = $3, session_expires_at = $4, updated_at = NOW()
		WHERE  id = $1`,
		id, pair.AccessToken, pair.RefreshToken, pair.RefreshExpiresAt,
	)
}

func (r *UserRepository) ClearExpiredSessions(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET    access_token = '', refresh_token = '', session_expires_at = NULL, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM users
			WHERE  session_expires_at < $1
			LIMIT  $2
			FOR UPDATE SKIP LOCKED
		)`,
		cutoff, limit,
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}

	args := []any{id, upd.Email}
	sets := []string{"email = $2", "updated_at = NOW()"}
	optional := []struct {
		column string
		value  *string
	}{
		{"username", upd.Username},
		{"avatar", upd.Avatar},
		{"birthday", upd.Birthday},
		{"skype", upd.Skype},
		{"phone", upd.Phone},
	}
	for _, f := range optional {
		if f.value == nil {
			continue
		}
		args = append(args, *f.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), userColumns)
	updated, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailInUse
		}
		return nil, err
	}
	return updated, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.execByID(ctx,
		`UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.execByID(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// execByID runs a statement whose first argument is the user id and maps a
// zero row count to domain.ErrUserNotFound.
func (r *UserRepository) execByID(ctx context.Context, query, id string, args ...any) error {
	if !validID(id) {
		return domain.ErrUserNotFound
	}
	tag, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Avatar, &u.Birthday, &u.Skype, &u.Phone,
		&u.AccessToken, &u.RefreshToken, &u.SessionExpiresAt, &u.Federated, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
