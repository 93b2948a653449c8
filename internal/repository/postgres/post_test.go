package postgres

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/repository"
	"github.com/nkiryanov/socialfeed/internal/testutil"
)

func Test_PostRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	alice := uuid.New()
	bob := uuid.New()

	createPost := func(t *testing.T, r *PostRepo, text string) models.Post {
		post, err := r.CreatePost(t.Context(), repository.CreatePostParams{
			UserID:   alice,
			Username: "alice",
			Text:     text,
		})
		require.NoError(t, err, "post should be created")
		return post
	}

	t.Run("CreatePost", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}

				post, err := r.CreatePost(t.Context(), repository.CreatePostParams{
					UserID:   alice,
					Username: "alice",
					Text:     "hello",
					Image:    "https://example.com/cat.png",
				})

				require.NoError(t, err)
				assert.NotEmpty(t, post.ID)
				assert.Equal(t, alice, post.UserID)
				assert.Equal(t, "alice", post.Username)
				assert.Equal(t, "hello", post.Text)
				assert.Equal(t, "https://example.com/cat.png", post.Image)
				assert.Empty(t, post.Likes, "new post has no likes")
				assert.Empty(t, post.Comments, "new post has no comments")
				assert.WithinDuration(t, time.Now(), post.CreatedAt, time.Second)
				assert.Equal(t, post.CreatedAt, post.UpdatedAt, "updated at equals created at for new post")
			})
		})

		t.Run("empty post rejected by db", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}

				_, err := r.CreatePost(t.Context(), repository.CreatePostParams{UserID: alice, Username: "alice"})

				require.ErrorIs(t, err, apperrors.ErrPostEmpty)
			})
		})

		t.Run("too long text rejected by db", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}

				_, err := r.CreatePost(t.Context(), repository.CreatePostParams{
					UserID:   alice,
					Username: "alice",
					Text:     strings.Repeat("x", models.MaxPostTextLength+1),
				})

				require.ErrorIs(t, err, apperrors.ErrPostTextTooLong)
			})
		})
	})

	t.Run("ListPosts", func(t *testing.T) {
		t.Run("newest first with limit", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}
				createPost(t, r, "first")
				time.Sleep(2 * time.Millisecond)
				createPost(t, r, "second")
				time.Sleep(2 * time.Millisecond)
				createPost(t, r, "third")

				posts, err := r.ListPosts(t.Context(), 2)

				require.NoError(t, err)
				require.Len(t, posts, 2)
				assert.Equal(t, "third", posts[0].Text)
				assert.Equal(t, "second", posts[1].Text)
			})
		})

		t.Run("empty", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}

				posts, err := r.ListPosts(t.Context(), 100)

				require.NoError(t, err)
				require.NotNil(t, posts, "empty list expected, not nil")
				require.Empty(t, posts)
			})
		})
	})

	t.Run("ToggleLike", func(t *testing.T) {
		t.Run("like and unlike", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}
				post := createPost(t, r, "hello")
				like := models.Like{UserID: bob, Username: "bob", LikedAt: time.Now()}

				liked, err := r.ToggleLike(t.Context(), post.ID, like)
				require.NoError(t, err)
				require.Len(t, liked.Likes, 1)
				assert.Equal(t, bob, liked.Likes[0].UserID)
				assert.Equal(t, "bob", liked.Likes[0].Username)
				assert.WithinDuration(t, like.LikedAt, liked.Likes[0].LikedAt, time.Millisecond)

				unliked, err := r.ToggleLike(t.Context(), post.ID, like)
				require.NoError(t, err)
				assert.Empty(t, unliked.Likes, "second toggle should remove the like")
			})
		})

		t.Run("unlike keeps order of other likes", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}
				post := createPost(t, r, "hello")
				users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
				for _, u := range users {
					_, err := r.ToggleLike(t.Context(), post.ID, models.Like{UserID: u, Username: "u", LikedAt: time.Now()})
					require.NoError(t, err)
				}

				got, err := r.ToggleLike(t.Context(), post.ID, models.Like{UserID: users[1], Username: "u", LikedAt: time.Now()})

				require.NoError(t, err)
				require.Len(t, got.Likes, 2)
				assert.Equal(t, users[0], got.Likes[0].UserID)
				assert.Equal(t, users[2], got.Likes[1].UserID)
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}

				_, err := r.ToggleLike(t.Context(), uuid.New(), models.Like{UserID: bob, Username: "bob"})

				require.ErrorIs(t, err, apperrors.ErrPostNotFound)
			})
		})
	})

	t.Run("AddComment", func(t *testing.T) {
		t.Run("append keeps previous comments", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}
				post := createPost(t, r, "hello")

				first, err := r.AddComment(t.Context(), post.ID, models.Comment{UserID: bob, Username: "bob", Text: "nice", CommentedAt: time.Now()})
				require.NoError(t, err)
				require.Len(t, first.Comments, 1)

				second, err := r.AddComment(t.Context(), post.ID, models.Comment{UserID: alice, Username: "alice", Text: "thanks", CommentedAt: time.Now()})
				require.NoError(t, err)
				require.Len(t, second.Comments, 2)
				assert.Equal(t, first.Comments[0].Text, second.Comments[0].Text, "previous comment must stay untouched")
				assert.Equal(t, first.Comments[0].UserID, second.Comments[0].UserID)
				assert.True(t, first.Comments[0].CommentedAt.Equal(second.Comments[0].CommentedAt))
				assert.Equal(t, "thanks", second.Comments[1].Text)
				assert.Equal(t, alice, second.Comments[1].UserID)
				assert.True(t, second.UpdatedAt.After(post.UpdatedAt), "updated at should move forward")
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}

				_, err := r.AddComment(t.Context(), uuid.New(), models.Comment{UserID: bob, Username: "bob", Text: "nice"})

				require.ErrorIs(t, err, apperrors.ErrPostNotFound)
			})
		})
	})

	t.Run("DeletePost", func(t *testing.T) {
		t.Run("delete ok", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				r := &PostRepo{DB: tx}
				post := createPost(t, r, "hello")

				err := r.DeletePost(t.Context(), post.ID)
				require.NoError(t, err)

				err = r.DeletePost(t.Context(), post.ID)
				require.ErrorIs(t, err, apperrors.ErrPostNotFound, "second delete should not find the post")

				_, err = r.ToggleLike(t.Context(), post.ID, models.Like{UserID: bob, Username: "bob"})
				require.ErrorIs(t, err, apperrors.ErrPostNotFound, "deleted post can't be liked")
			})
		})
	})

	// Runs on the pool directly: concurrent writers need their own connections
	t.Run("concurrent mutations are not lost", func(t *testing.T) {
		r := &PostRepo{DB: pg.Pool}
		testutil.TruncateOnCleanup(t, pg.Pool)
		post := createPost(t, r, "popular")

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers*2)

		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				userID := uuid.New()
				_, err := r.ToggleLike(t.Context(), post.ID, models.Like{UserID: userID, Username: "user", LikedAt: time.Now()})
				errs <- err
				_, err = r.AddComment(t.Context(), post.ID, models.Comment{UserID: userID, Username: "user", Text: "comment", CommentedAt: time.Now()})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		posts, err := r.ListPosts(t.Context(), 100)
		require.NoError(t, err)

		got := findPost(t, posts, post.ID)
		require.Len(t, got.Likes, writers, "every like must be kept")
		require.Len(t, got.Comments, writers, "every comment must be kept")
	})

	t.Run("concurrent toggles by one user keep at most one like", func(t *testing.T) {
		r := &PostRepo{DB: pg.Pool}
		testutil.TruncateOnCleanup(t, pg.Pool)
		post := createPost(t, r, "contested")

		for _, toggles := range []int{15, 16} {
			t.Run(strconv.Itoa(toggles), func(t *testing.T) {
				userID := uuid.New()
				var wg sync.WaitGroup
				errs := make(chan error, toggles)

				for range toggles {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := r.ToggleLike(t.Context(), post.ID, models.Like{UserID: userID, Username: "carol", LikedAt: time.Now()})
						errs <- err
					}()
				}
				wg.Wait()
				close(errs)

				for err := range errs {
					require.NoError(t, err)
				}

				posts, err := r.ListPosts(t.Context(), 100)
				require.NoError(t, err)

				count := 0
				for _, like := range findPost(t, posts, post.ID).Likes {
					if like.UserID == userID {
						count++
					}
				}
				require.Equal(t, toggles%2, count, "odd number of toggles leaves one like, even leaves none")
			})
		}
	})
}

func findPost(t *testing.T, posts []models.Post, id uuid.UUID) models.Post {
	t.Helper()
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	require.FailNow(t, "post should be listed", "post %s", id)
	return models.Post{}
}
