package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/cache"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/repository"
)

// Cache of the recent posts feed
// Implemented by cache.Feed; failures are never fatal for the service
type FeedCache interface {
	Load(ctx context.Context) (cache.Snapshot, error)
	Store(ctx context.Context, version int64, posts []models.Post) error
	Invalidate(ctx context.Context) error
}

type PostService struct {
	postRepo repository.PostRepo
	feed     FeedCache
	logger   logger.Logger

	now func() time.Time
}

// Create post service. Feed cache is optional
func NewService(postRepo repository.PostRepo, feed FeedCache, l logger.Logger) (*PostService, error) {
	if postRepo == nil {
		return nil, errors.New("post repo must not be nil")
	}
	if feed == nil {
		feed = noFeedCache{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &PostService{
		postRepo: postRepo,
		feed:     feed,
		logger:   l,
		now:      time.Now,
	}, nil
}

type CreatePostParams struct {
	UserID   uuid.UUID
	Username string
	Text     string
	Image    string
}

type AddCommentParams struct {
	UserID   uuid.UUID
	Username string
	Text     string
}

// Create post with text, image or both
// Text longer than models.MaxPostTextLength is rejected, not truncated
func (s *PostService) CreatePost(ctx context.Context, params CreatePostParams) (models.Post, error) {
	var post models.Post

	username := strings.TrimSpace(params.Username)
	text := strings.TrimSpace(params.Text)
	image := strings.TrimSpace(params.Image)

	switch {
	case params.UserID == uuid.Nil || username == "":
		return post, apperrors.ErrAuthorRequired
	case text == "" && image == "":
		return post, apperrors.ErrPostEmpty
	case utf8.RuneCountInString(text) > models.MaxPostTextLength:
		return post, apperrors.ErrPostTextTooLong
	}

	post, err := s.postRepo.CreatePost(ctx, repository.CreatePostParams{
		UserID:   params.UserID,
		Username: username,
		Text:     text,
		Image:    image,
	})
	if err != nil {
		return post, fmt.Errorf("can't create post. Err: %w", err)
	}

	s.invalidateFeed(ctx)
	s.logger.Info("post created", "post_id", post.ID, "user_id", post.UserID)
	return post, nil
}

// Return recent posts, newest first
// Limit out of (0, models.RecentPostsLimit] means models.RecentPostsLimit
func (s *PostService) ListRecent(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > models.RecentPostsLimit {
		limit = models.RecentPostsLimit
	}

	snapshot, err := s.feed.Load(ctx)
	if err != nil {
		s.logger.Warn("feed cache unavailable", "error", err)
	}
	if err == nil && snapshot.Found {
		return head(snapshot.Posts, limit), nil
	}

	// Whole feed is cached regardless of the limit asked
	posts, err := s.postRepo.ListPosts(ctx, models.RecentPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("can't list posts. Err: %w", err)
	}

	if err := s.feed.Store(ctx, snapshot.Version, posts); err != nil {
		s.logger.Warn("can't cache feed", "error", err)
	}

	return head(posts, limit), nil
}

// Like the post by user or remove the like if user already liked it
func (s *PostService) ToggleLike(ctx context.Context, postID uuid.UUID, userID uuid.UUID, username string) (models.Post, error) {
	username = strings.TrimSpace(username)
	if userID == uuid.Nil || username == "" {
		return models.Post{}, apperrors.ErrMissingFields
	}

	post, err := s.postRepo.ToggleLike(ctx, postID, models.Like{
		UserID:   userID,
		Username: username,
		LikedAt:  s.now(),
	})
	if err != nil {
		return post, fmt.Errorf("can't toggle like. Err: %w", err)
	}

	s.invalidateFeed(ctx)
	if post.LikedBy(userID) {
		s.logger.Info("post liked", "post_id", post.ID, "user_id", userID)
	} else {
		s.logger.Info("post unliked", "post_id", post.ID, "user_id", userID)
	}
	return post, nil
}

// Append comment to the post
func (s *PostService) AddComment(ctx context.Context, postID uuid.UUID, params AddCommentParams) (models.Post, error) {
	username := strings.TrimSpace(params.Username)
	text := strings.TrimSpace(params.Text)

	switch {
	case params.UserID == uuid.Nil || username == "":
		return models.Post{}, apperrors.ErrMissingFields
	case text == "":
		return models.Post{}, apperrors.ErrCommentEmpty
	case utf8.RuneCountInString(text) > models.MaxCommentTextLength:
		return models.Post{}, apperrors.ErrCommentTooLong
	}

	post, err := s.postRepo.AddComment(ctx, postID, models.Comment{
		UserID:      params.UserID,
		Username:    username,
		Text:        text,
		CommentedAt: s.now(),
	})
	if err != nil {
		return post, fmt.Errorf("can't add comment. Err: %w", err)
	}

	s.invalidateFeed(ctx)
	s.logger.Info("post commented", "post_id", post.ID, "user_id", params.UserID)
	return post, nil
}

// Delete post with its likes and comments. Anyone may delete any post
func (s *PostService) DeletePost(ctx context.Context, postID uuid.UUID) error {
	if err := s.postRepo.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("can't delete post. Err: %w", err)
	}

	s.invalidateFeed(ctx)
	s.logger.Info("post deleted", "post_id", postID)
	return nil
}

func (s *PostService) invalidateFeed(ctx context.Context) {
	if err := s.feed.Invalidate(ctx); err != nil {
		s.logger.Error("can't invalidate feed cache", "error", err)
	}
}

func head(posts []models.Post, limit int) []models.Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

// Used when redis is not configured: every load is a miss
type noFeedCache struct{}

func (noFeedCache) Load(context.Context) (cache.Snapshot, error) { return cache.Snapshot{}, nil }
func (noFeedCache) Store(context.Context, int64, []models.Post) error { return nil }
func (noFeedCache) Invalidate(context.Context) error { return nil }
