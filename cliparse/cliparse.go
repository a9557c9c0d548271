// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/danielhkuo/council-vote/models"
)

const (
	DefaultPort          = 3318
	DefaultSQLiteURL     = "file:council-vote.db"
	DefaultRedisURL      = "localhost:6379"
	DefaultRabbitMQQueue = "votes"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	RedisURL       string
	RabbitMQURL    string
	RabbitMQQueue  string
	IdentitySalt   string
	Election       models.Election
	ReportEncoding string
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var candidates, maxVotes string

	fs := flag.NewFlagSet("council-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Store type (memory, sqlite, postgres or redis)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis address or redis:// URL")
	fs.StringVar(&cfg.RabbitMQURL, "amqp", "", "RabbitMQ URL for vote events (optional)")

	// Election config
	fs.StringVar(&candidates, "candidates", "", "Comma-separated roster, id or id:Label")
	fs.StringVar(&maxVotes, "max-votes", "", "Maximum number of votes accepted")
	fs.StringVar(&cfg.ReportEncoding, "report-encoding", "", "Tally count encoding (decimal or raw)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IdentitySalt, "identity-salt", "", "Voter token signing salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = models.StoreSQLite
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	switch cfg.DatabaseType {
	case models.StoreMemory, models.StoreRedis:
	case models.StoreSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = DefaultSQLiteURL
		}
	case models.StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unknown database type %q (want memory, sqlite, postgres or redis)", cfg.DatabaseType)
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
		if cfg.RedisURL == "" {
			cfg.RedisURL = DefaultRedisURL
		}
	}

	if cfg.RabbitMQURL == "" {
		cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")
	}
	cfg.RabbitMQQueue = os.Getenv("RABBITMQ_QUEUE")
	if cfg.RabbitMQQueue == "" {
		cfg.RabbitMQQueue = DefaultRabbitMQQueue
	}

	election, err := parseElection(candidates, maxVotes)
	if err != nil {
		return Config{}, err
	}
	cfg.Election = election

	if cfg.ReportEncoding == "" {
		cfg.ReportEncoding = os.Getenv("REPORT_ENCODING")
		if cfg.ReportEncoding == "" {
			cfg.ReportEncoding = models.EncodingDecimal
		}
	}
	if cfg.ReportEncoding != models.EncodingDecimal && cfg.ReportEncoding != models.EncodingRaw {
		return Config{}, fmt.Errorf("unknown report encoding %q (want decimal or raw)", cfg.ReportEncoding)
	}

	// Secrets - MUST be provided
	if cfg.IdentitySalt == "" {
		cfg.IdentitySalt = os.Getenv("IDENTITY_SALT")
	}
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}

	return cfg, nil
}

func parseElection(candidates, maxVotes string) (models.Election, error) {
	if candidates == "" {
		candidates = os.Getenv("CANDIDATES")
		if candidates == "" {
			candidates = models.DefaultCandidates
		}
	}

	roster, err := models.ParseRoster(candidates)
	if err != nil {
		return models.Election{}, fmt.Errorf("invalid candidates: %w", err)
	}

	if maxVotes == "" {
		maxVotes = os.Getenv("MAX_VOTES")
	}
	limit := models.DefaultMaxVotes
	if maxVotes != "" {
		limit, err = strconv.ParseUint(maxVotes, 10, 64)
		if err != nil {
			return models.Election{}, fmt.Errorf("invalid max votes %q", maxVotes)
		}
	}

	return models.Election{Roster: roster, MaxVotes: limit}, nil
}
