// Command seed fills the database with demo users, posts, likes and comments
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/socialfeed/internal/cache"
	"github.com/nkiryanov/socialfeed/internal/db"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/repository/postgres"
	"github.com/nkiryanov/socialfeed/internal/service/post"
	"github.com/nkiryanov/socialfeed/internal/service/user"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Args[1:]); err != nil {
		slog.Error("seed failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, getenv func(string) string, args []string) error {
	opts := SeedOptions{Users: 10, Posts: 30, MaxComments: 3, LikePercent: 30}
	dsn := getenv("DATABASE_URI")
	redisURL := getenv("REDIS_URL")
	level := logger.LevelInfo
	seed := time.Now().UnixNano()

	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	fs.StringVarP(&dsn, "database", "d", dsn, "Database connection string")
	fs.StringVarP(&redisURL, "redis", "r", redisURL, "Redis with the feed cache of running server, to drop it after seeding")
	fs.StringVarP(&level, "log-level", "l", level, "Logging level (debug, info, warn, error)")
	fs.IntVarP(&opts.Users, "users", "u", opts.Users, "Users to create")
	fs.IntVarP(&opts.Posts, "posts", "p", opts.Posts, "Posts to create")
	fs.IntVar(&opts.MaxComments, "max-comments", opts.MaxComments, "Max comments per post")
	fs.IntVar(&opts.LikePercent, "like-percent", opts.LikePercent, "Chance of every user to like every post, 0..100")
	fs.Int64Var(&seed, "seed", seed, "Random seed, same seed gives same data on empty database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if dsn == "" {
		return fmt.Errorf("database connection string is required")
	}

	l, err := logger.NewTextLogger(level)
	if err != nil {
		return err
	}

	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	storage := postgres.NewStorage(pool)
	userService, err := user.NewService(user.DefaultHasher, storage.User(), l)
	if err != nil {
		return err
	}
	var feed post.FeedCache
	if redisURL != "" {
		client, err := cache.Connect(ctx, redisURL)
		if err != nil {
			return err
		}
		defer client.Close() // nolint:errcheck
		feed = cache.NewFeed(client, cache.DefaultFeedTTL)
	}
	postService, err := post.NewService(storage.Post(), feed, l)
	if err != nil {
		return err
	}

	seeder := NewSeeder(userService, postService, gofakeit.New(seed), l)
	_, err = seeder.Seed(ctx, opts)
	return err
}
