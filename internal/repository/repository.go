package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/socialfeed/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If username is taken has to return apperrors.ErrUsernameTaken
	// If email is taken has to return apperrors.ErrEmailTaken
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
}

// Post repository interface
// Every mutation is applied to the post atomically, concurrent mutations of one post never lose each other
type PostRepo interface {
	CreatePost(ctx context.Context, params CreatePostParams) (models.Post, error)

	// Return posts ordered by creation time, newest first
	ListPosts(ctx context.Context, limit int) ([]models.Post, error)

	// Remove like of the user if it present, append the like otherwise
	// If post not found must return apperrors.ErrPostNotFound
	ToggleLike(ctx context.Context, postID uuid.UUID, like models.Like) (models.Post, error)

	// Append comment to the end of post comments
	// If post not found must return apperrors.ErrPostNotFound
	AddComment(ctx context.Context, postID uuid.UUID, comment models.Comment) (models.Post, error)

	// If post not found must return apperrors.ErrPostNotFound
	DeletePost(ctx context.Context, postID uuid.UUID) error
}

type CreatePostParams struct {
	UserID   uuid.UUID
	Username string
	Text     string
	Image    string
}

type Storage interface {
	User() UserRepo
	Post() PostRepo
}
