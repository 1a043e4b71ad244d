package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/romusha/forumauth/modules/auth"
	"github.com/romusha/forumauth/modules/auth/storage"
	"github.com/romusha/forumauth/pkg/config"
	"github.com/romusha/forumauth/pkg/httpserver"
	"github.com/romusha/forumauth/pkg/logger"
)

type appConfig struct {
	Addr      string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Storage selects the repository backend: memory, jsonfile, mongo, or
	// postgres.
	Storage      string        `env:"STORAGE" envDefault:"jsonfile"`
	JSONFilePath string        `env:"JSONFILE_PATH" envDefault:"data/users.json"`
	MongoURI     string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string        `env:"MONGO_DB" envDefault:"romusha"`
	PostgresDSN  string        `env:"POSTGRES_DSN"`
	StartTimeout time.Duration `env:"START_TIMEOUT" envDefault:"15s"`

	EmailDomains []string `env:"ALLOWED_EMAIL_DOMAINS" envDefault:"gmail.com"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	format := logger.Format(strings.ToLower(cfg.LogFormat))
	if format != logger.FormatJSON && format != logger.FormatText {
		format = logger.FormatJSON
	}
	log := logger.New(
		logger.WithLevel(parseLevel(cfg.LogLevel)),
		logger.WithFormat(format),
		logger.WithService("forumauth"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StartTimeout)
	repo, closeRepo, err := openRepository(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := auth.NewService(repo,
		auth.WithLogger(log),
		auth.WithAllowedEmailDomains(cfg.EmailDomains...),
	)

	srv := httpserver.New(
		httpserver.WithAddr(cfg.Addr),
		httpserver.WithLogger(log),
	)
	return srv.Run(context.Background(), auth.Router(svc))
}

func openRepository(ctx context.Context, cfg appConfig) (auth.Repository, func(), error) {
	noop := func() {}
	switch strings.ToLower(cfg.Storage) {
	case "memory":
		return storage.NewMemory(), noop, nil
	case "jsonfile":
		repo, err := storage.NewJSONFile(cfg.JSONFilePath)
		return repo, noop, err
	case "mongo":
		repo, err := storage.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = repo.Close(ctx)
		}, nil
	case "postgres":
		repo, err := storage.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
