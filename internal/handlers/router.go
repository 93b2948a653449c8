package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/socialfeed/internal/handlers/middleware"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/service/post"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Origin allowed to make cross-origin requests with credentials
	CORSOrigin string

	// HTTP metrics; /metrics is not served if nil
	Metrics *middleware.Metrics
}

func NewRouter(
	cfg RouterConfig,
	userService userService,
	postService postService,
	db pinger,
	logger logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/signup", handleSignup(userService, logger))
	mux.Handle("POST /api/auth/login", handleLogin(userService, logger))

	mux.Handle("GET /api/posts", handleListPosts(postService, logger))
	mux.Handle("POST /api/posts", handleCreatePost(postService, logger))
	mux.Handle("POST /api/posts/{id}/like", handleToggleLike(postService, logger))
	mux.Handle("POST /api/posts/{id}/comment", handleAddComment(postService, logger))
	mux.Handle("DELETE /api/posts/{id}", handleDeletePost(postService, logger))

	mux.Handle("GET /api/health", handleHealth(db))
	mux.Handle("/", handleNotFound())

	mds := []func(http.Handler) http.Handler{
		middleware.LoggerMiddleware(logger),
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
		mds = append(mds, cfg.Metrics.Middleware)
	}
	mds = append(mds, middleware.CORSMiddleware(cfg.CORSOrigin))

	return chain(mux, mds...)
}

type userService interface {
	// Has to return apperrors.ErrUsernameTaken or apperrors.ErrEmailTaken if user already exists
	CreateUser(ctx context.Context, username string, email string, password string) (models.User, error)

	// Has to return apperrors.ErrInvalidCredentials if email unknown or password wrong
	VerifyCredentials(ctx context.Context, email string, password string) (models.User, error)
}

type postService interface {
	CreatePost(ctx context.Context, params post.CreatePostParams) (models.Post, error)
	ListRecent(ctx context.Context, limit int) ([]models.Post, error)

	// Mutations have to return apperrors.ErrPostNotFound if post not exists
	ToggleLike(ctx context.Context, postID uuid.UUID, userID uuid.UUID, username string) (models.Post, error)
	AddComment(ctx context.Context, postID uuid.UUID, params post.AddCommentParams) (models.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
}

type pinger interface {
	Ping(ctx context.Context) error
}
