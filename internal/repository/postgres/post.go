package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/repository"
)

const (
	postTextOrImageConstraint = "posts_text_or_image"
	postTextLengthConstraint  = "posts_text_length"
)

const postColumns = `id, created_at, updated_at, user_id, username, text, image, likes, comments`

type PostRepo struct {
	DB DBTX
}

const createPost = `-- name: CreatePost
INSERT INTO posts (id, created_at, updated_at, user_id, username, text, image)
VALUES ($1, $2, $2, $3, $4, $5, $6)
RETURNING ` + postColumns

func (r *PostRepo) CreatePost(ctx context.Context, params repository.CreatePostParams) (models.Post, error) {
	rows, _ := r.DB.Query(ctx, createPost, uuid.New(), time.Now(), params.UserID, params.Username, params.Text, params.Image)
	post, err := pgx.CollectOneRow(rows, rowToPost)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			switch pgErr.ConstraintName {
			case postTextOrImageConstraint:
				return post, apperrors.ErrPostEmpty
			case postTextLengthConstraint:
				return post, apperrors.ErrPostTextTooLong
			}
		}

		return post, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

const listPosts = `-- name: ListPosts
SELECT ` + postColumns + ` FROM posts
ORDER BY created_at DESC, id DESC
LIMIT $1
`

func (r *PostRepo) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	rows, _ := r.DB.Query(ctx, listPosts, limit)
	posts, err := pgx.CollectRows(rows, rowToPost)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return posts, nil
}

// The whole toggle is one UPDATE: the row lock makes concurrent toggles on the post run one after another
// Removal keeps the order of remaining likes
const toggleLike = `-- name: ToggleLike
UPDATE posts SET
	likes = CASE
		WHEN likes @> jsonb_build_array(jsonb_build_object('user_id', $2::text)) THEN (
			SELECT COALESCE(jsonb_agg(l.value ORDER BY l.ordinality), '[]'::jsonb)
			FROM jsonb_array_elements(posts.likes) WITH ORDINALITY AS l(value, ordinality)
			WHERE l.value->>'user_id' <> $2::text
		)
		ELSE likes || $3::jsonb
	END,
	updated_at = $4
WHERE id = $1
RETURNING ` + postColumns

func (r *PostRepo) ToggleLike(ctx context.Context, postID uuid.UUID, like models.Like) (models.Post, error) {
	rows, _ := r.DB.Query(ctx, toggleLike, postID, like.UserID.String(), []models.Like{like}, time.Now())
	return collectPost(rows)
}

const addComment = `-- name: AddComment
UPDATE posts SET
	comments = comments || $2::jsonb,
	updated_at = $3
WHERE id = $1
RETURNING ` + postColumns

func (r *PostRepo) AddComment(ctx context.Context, postID uuid.UUID, comment models.Comment) (models.Post, error) {
	rows, _ := r.DB.Query(ctx, addComment, postID, []models.Comment{comment}, time.Now())
	return collectPost(rows)
}

const deletePost = `-- name: DeletePost
DELETE FROM posts
WHERE id = $1
`

func (r *PostRepo) DeletePost(ctx context.Context, postID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deletePost, postID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrPostNotFound
	default:
		return nil
	}
}

func collectPost(rows pgx.Rows) (models.Post, error) {
	post, err := pgx.CollectOneRow(rows, rowToPost)

	switch {
	case err == nil:
		return post, nil
	case errors.Is(err, pgx.ErrNoRows):
		return post, apperrors.ErrPostNotFound
	default:
		return post, fmt.Errorf("db error: %w", err)
	}
}

func rowToPost(row pgx.CollectableRow) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.UserID, &p.Username, &p.Text, &p.Image, &p.Likes, &p.Comments)
	return p, err
}
