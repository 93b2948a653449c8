package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/service/post"
)

// Every seeded user may log in with this password
const demoPassword = "password123"

// Attempts to pick free username and email for one user
const maxUserAttempts = 5

type userCreator interface {
	CreateUser(ctx context.Context, username string, email string, password string) (models.User, error)
}

type postWriter interface {
	CreatePost(ctx context.Context, params post.CreatePostParams) (models.Post, error)
	ToggleLike(ctx context.Context, postID uuid.UUID, userID uuid.UUID, username string) (models.Post, error)
	AddComment(ctx context.Context, postID uuid.UUID, params post.AddCommentParams) (models.Post, error)
}

type SeedOptions struct {
	Users int
	Posts int

	// Max comments per post
	MaxComments int

	// Chance of every user to like every post, 0..100
	LikePercent int
}

type Stats struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
}

// Seeder fills storage with demo data through the same services the API uses
type Seeder struct {
	users  userCreator
	posts  postWriter
	faker  *gofakeit.Faker
	logger logger.Logger
}

func NewSeeder(users userCreator, posts postWriter, faker *gofakeit.Faker, l logger.Logger) *Seeder {
	return &Seeder{users: users, posts: posts, faker: faker, logger: l}
}

func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) (Stats, error) {
	var stats Stats

	if opts.Users <= 0 {
		return stats, errors.New("at least one user is required to seed posts")
	}

	users := make([]models.User, 0, opts.Users)
	for range opts.Users {
		u, err := s.createUser(ctx)
		if err != nil {
			return stats, err
		}
		users = append(users, u)
	}
	stats.Users = len(users)

	for range opts.Posts {
		author := users[s.faker.Number(0, len(users)-1)]

		p, err := s.posts.CreatePost(ctx, s.postParams(author))
		if err != nil {
			return stats, fmt.Errorf("can't create post. Err: %w", err)
		}
		stats.Posts++

		for _, u := range users {
			if s.faker.Number(1, 100) > opts.LikePercent {
				continue
			}
			if _, err := s.posts.ToggleLike(ctx, p.ID, u.ID, u.Username); err != nil {
				return stats, fmt.Errorf("can't like post. Err: %w", err)
			}
			stats.Likes++
		}

		for range s.faker.Number(0, max(opts.MaxComments, 0)) {
			commenter := users[s.faker.Number(0, len(users)-1)]
			_, err := s.posts.AddComment(ctx, p.ID, post.AddCommentParams{
				UserID:   commenter.ID,
				Username: commenter.Username,
				Text:     s.faker.Sentence(s.faker.Number(2, 12)),
			})
			if err != nil {
				return stats, fmt.Errorf("can't comment post. Err: %w", err)
			}
			stats.Comments++
		}
	}

	s.logger.Info("seed finished", "users", stats.Users, "posts", stats.Posts, "likes", stats.Likes, "comments", stats.Comments)
	return stats, nil
}

// Create user with fake name; names taken already are retried with another one
func (s *Seeder) createUser(ctx context.Context) (models.User, error) {
	for range maxUserAttempts {
		username := fmt.Sprintf("%s%d", s.faker.Username(), s.faker.Number(100, 999))
		email := fmt.Sprintf("%s@%s", username, s.faker.DomainName())

		u, err := s.users.CreateUser(ctx, username, email, demoPassword)
		switch {
		case err == nil:
			return u, nil
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			s.logger.Debug("fake user already exists, trying another", "username", username)
		default:
			return u, fmt.Errorf("can't create user. Err: %w", err)
		}
	}

	return models.User{}, errors.New("can't find free username for fake user")
}

// Text, image or both, like real users post
func (s *Seeder) postParams(author models.User) post.CreatePostParams {
	params := post.CreatePostParams{
		UserID:   author.ID,
		Username: author.Username,
	}

	switch s.faker.Number(0, 2) {
	case 0:
		params.Text = s.faker.Sentence(s.faker.Number(3, 30))
	case 1:
		params.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
	default:
		params.Text = s.faker.Paragraph(1, 3, 12, " ")
		params.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID())
	}

	if r := []rune(params.Text); len(r) > models.MaxPostTextLength {
		params.Text = string(r[:models.MaxPostTextLength])
	}

	return params
}
