// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/danielhkuo/council-vote/cliparse"
	"github.com/danielhkuo/council-vote/db"
	"github.com/danielhkuo/council-vote/events"
	"github.com/danielhkuo/council-vote/handlers"
	"github.com/danielhkuo/council-vote/hub"
	"github.com/danielhkuo/council-vote/middleware"
	"github.com/danielhkuo/council-vote/models"
	"github.com/danielhkuo/council-vote/router"
	"github.com/danielhkuo/council-vote/tally"
	"github.com/danielhkuo/council-vote/voting"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the tally store
	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("store setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}

	// os.Exit skips deferred calls, so every exit below closes the store itself
	machine, created, err := startMachine(ctx, store, cfg.Election)
	if err != nil {
		slog.Error("voting machine failed to start", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	slog.Info("Voting machine ready",
		"created", created,
		"candidates", strings.Join(cfg.Election.Roster.IDs(), ","),
		"max_votes", cfg.Election.MaxVotes,
	)

	// Vote events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := events.DialAMQP(ctx, cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			slog.Error("RabbitMQ setup failed", "error", err)
			store.Close()
			os.Exit(1)
		}
		publisher = amqpPublisher
	}
	defer publisher.Close()

	// Live tally stream
	streamHub := hub.New(handlers.TallySnapshot(machine))
	go streamHub.Run(ctx)

	// Create router
	mux := router.NewRouter(machine, cfg, streamHub, publisher)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// startMachine initializes or verifies the store. On failure the store is closed.
func startMachine(ctx context.Context, store tally.Store, election models.Election) (*voting.Machine, bool, error) {
	machine := voting.NewMachine(store, election)
	created, err := machine.Start(ctx)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("failed to close store", "error", cerr)
		}
		return nil, false, err
	}
	return machine, created, nil
}

// openStore connects the configured backend and prepares its schema
func openStore(ctx context.Context, cfg cliparse.Config) (tally.Store, error) {
	switch cfg.DatabaseType {
	case models.StoreMemory:
		slog.Warn("using in-memory store; votes are lost on restart")
		return tally.NewMemoryStore(), nil

	case models.StoreSQLite, models.StorePostgres:
		conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.CreateSchema(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("schema creation failed: %w", err)
		}
		slog.Info("Database schema ready", "type", cfg.DatabaseType)
		return tally.NewSQLStore(conn, cfg.DatabaseType), nil

	case models.StoreRedis:
		opts, err := redisOptions(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		slog.Info("Connected to redis", "addr", opts.Addr)
		return tally.NewRedisStore(client), nil

	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}
}

// redisOptions accepts either a redis:// URL or a bare host:port
func redisOptions(url string) (*redis.Options, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: url}, nil
}
