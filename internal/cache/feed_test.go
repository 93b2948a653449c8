package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/socialfeed/internal/models"
)

func newFeed(t *testing.T) (*Feed, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewFeed(client, time.Minute), mr
}

func testPosts() []models.Post {
	now := time.Now().UTC().Truncate(time.Millisecond)
	bob := uuid.New()

	return []models.Post{
		{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    uuid.New(),
			Username:  "alice",
			Text:      "hello",
			Likes:     []models.Like{{UserID: bob, Username: "bob", LikedAt: now}},
			Comments:  []models.Comment{{UserID: bob, Username: "bob", Text: "nice", CommentedAt: now}},
		},
	}
}

func TestFeed(t *testing.T) {
	t.Run("miss on empty cache", func(t *testing.T) {
		feed, _ := newFeed(t)

		s, err := feed.Load(t.Context())

		require.NoError(t, err)
		assert.False(t, s.Found)
		assert.Zero(t, s.Version)
	})

	t.Run("store then load", func(t *testing.T) {
		feed, _ := newFeed(t)
		posts := testPosts()

		s, err := feed.Load(t.Context())
		require.NoError(t, err)
		require.NoError(t, feed.Store(t.Context(), s.Version, posts))

		got, err := feed.Load(t.Context())

		require.NoError(t, err)
		require.True(t, got.Found)
		require.Len(t, got.Posts, 1)
		assert.Equal(t, posts[0].ID, got.Posts[0].ID)
		assert.Equal(t, posts[0].Text, got.Posts[0].Text)
		assert.True(t, posts[0].CreatedAt.Equal(got.Posts[0].CreatedAt))
		require.Len(t, got.Posts[0].Likes, 1)
		assert.Equal(t, "bob", got.Posts[0].Likes[0].Username)
		require.Len(t, got.Posts[0].Comments, 1)
		assert.Equal(t, "nice", got.Posts[0].Comments[0].Text)
	})

	t.Run("empty feed is a hit", func(t *testing.T) {
		feed, _ := newFeed(t)
		require.NoError(t, feed.Store(t.Context(), 0, []models.Post{}))

		got, err := feed.Load(t.Context())

		require.NoError(t, err)
		assert.True(t, got.Found)
		assert.Empty(t, got.Posts)
	})

	t.Run("invalidate drops snapshot", func(t *testing.T) {
		feed, _ := newFeed(t)
		require.NoError(t, feed.Store(t.Context(), 0, testPosts()))

		require.NoError(t, feed.Invalidate(t.Context()))
		got, err := feed.Load(t.Context())

		require.NoError(t, err)
		assert.False(t, got.Found)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("snapshot read before invalidate is never served", func(t *testing.T) {
		feed, _ := newFeed(t)

		before, err := feed.Load(t.Context())
		require.NoError(t, err)

		// Mutation lands between reading the feed from db and storing it
		require.NoError(t, feed.Invalidate(t.Context()))
		require.NoError(t, feed.Store(t.Context(), before.Version, testPosts()))

		got, err := feed.Load(t.Context())
		require.NoError(t, err)
		assert.False(t, got.Found, "stale snapshot must not be served")
	})

	t.Run("snapshot expires", func(t *testing.T) {
		feed, mr := newFeed(t)
		require.NoError(t, feed.Store(t.Context(), 0, testPosts()))

		mr.FastForward(2 * time.Minute)
		got, err := feed.Load(t.Context())

		require.NoError(t, err)
		assert.False(t, got.Found)
	})

	t.Run("redis down is an error", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := Connect(t.Context(), mr.Addr())
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		feed := NewFeed(client, time.Minute)

		mr.Close()
		before := promtest.ToFloat64(RedisErrors.WithLabelValues("get"))

		_, err = feed.Load(t.Context())
		require.Error(t, err)
		assert.Greater(t, promtest.ToFloat64(RedisErrors.WithLabelValues("get")), before, "failed command should be counted")

		err = feed.Invalidate(t.Context())
		require.Error(t, err)
	})
}

func TestConnect(t *testing.T) {
	t.Run("plain address", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := Connect(t.Context(), mr.Addr())

		require.NoError(t, err)
		require.NoError(t, client.Close())
	})

	t.Run("url", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := Connect(t.Context(), "redis://"+mr.Addr()+"/0")

		require.NoError(t, err)
		require.NoError(t, client.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := Connect(t.Context(), addr)

		require.Error(t, err)
	})

	t.Run("broken url", func(t *testing.T) {
		_, err := Connect(t.Context(), "redis://:bad:port")

		require.Error(t, err)
	})
}
