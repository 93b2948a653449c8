package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/socialfeed/internal/cache"
	"github.com/nkiryanov/socialfeed/internal/db"
	"github.com/nkiryanov/socialfeed/internal/handlers"
	"github.com/nkiryanov/socialfeed/internal/handlers/middleware"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/repository/postgres"
	"github.com/nkiryanov/socialfeed/internal/service/post"
	"github.com/nkiryanov/socialfeed/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	l.Info("database connected")

	app := &ServerApp{
		ListenAddr: c.ListenAddr,
		logger:     l,
		pool:       pool,
	}

	// Feed cache is optional; service works without it
	var feed post.FeedCache
	if c.RedisURL != "" {
		client, err := cache.Connect(ctx, c.RedisURL)
		if err != nil {
			l.Warn("redis unavailable, continuing without feed cache", "error", err)
		} else {
			app.redis = client
			feed = cache.NewFeed(client, cache.DefaultFeedTTL)
			l.Info("feed cache enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		cache.RedisErrors,
	)
	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while registering metrics. Err: %w", err)
	}

	// Initialize repositories and services
	storage := postgres.NewStorage(pool)

	userService, err := user.NewService(user.DefaultHasher, storage.User(), l.With("service", "user"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating user service. Err: %w", err)
	}
	postService, err := post.NewService(storage.Post(), feed, l.With("service", "post"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating post service. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(
		handlers.RouterConfig{CORSOrigin: c.CORSOrigin, Metrics: metrics},
		userService,
		postService,
		pool,
		l,
	)

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Release database and redis connections
func (s *ServerApp) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("can't close redis client", "error", err)
		}
	}
	s.pool.Close()
}
