package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/repository"
)

// Unique constraints names, see migrations
const (
	usernameUniqueConstraint = "users_username_key"
	emailUniqueConstraint    = "users_email_key"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, username, email, password_hash
`

// Uniqueness is enforced by the database, so concurrent signups with the same username or email
// can't both succeed: the loser gets the constraint violation mapped to the taken field
func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), params.Username, params.Email, params.HashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case usernameUniqueConstraint:
				return user, apperrors.ErrUsernameTaken
			case emailUniqueConstraint:
				return user, apperrors.ErrEmailTaken
			default:
				return user, apperrors.ErrUserAlreadyExists
			}
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, username, email, password_hash FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.HashedPassword)
	return u, err
}
