package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accounts/backend/internal/config"
	domain "accounts/backend/internal/domain/auth"
	"accounts/backend/internal/domain/media"
	"accounts/backend/internal/httpserver"
	"accounts/backend/internal/infrastructure/memory"
	"accounts/backend/internal/infrastructure/password"
	"accounts/backend/internal/infrastructure/postgres"
	"accounts/backend/internal/infrastructure/redis"
	"accounts/backend/internal/infrastructure/storage"
	"accounts/backend/internal/infrastructure/token"
	"accounts/backend/internal/logging"
	authusecase "accounts/backend/internal/usecase/auth"
	userusecase "accounts/backend/internal/usecase/user"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	rootCtx := context.Background()
	users, closeUsers, err := openUserStore(rootCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeUsers()

	images, err := openImageStore(rootCtx, cfg)
	if err != nil {
		return err
	}

	hasher, err := password.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokenManager := token.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer)

	authService := authusecase.NewService(users, hasher, tokenManager, images, logger)
	userService := userusecase.NewService(users, hasher, images, logger)

	server := httpserver.NewServer(cfg, authService, userService, logger)
	logger.Info("HTTP server listening", "addr", server.Addr(), "user_store", cfg.UserStore, "image_store", cfg.ImageStore)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("graceful shutdown completed")
	return nil
}

func openUserStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.UserRepository, func(), error) {
	switch cfg.UserStore {
	case config.StorePostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run database migrations: %w", err)
		}
		return postgres.NewUserRepository(db.Pool), db.Close, nil
	case config.StoreRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewUserRepository(client), func() { _ = client.Close() }, nil
	default:
		logger.Warn("using in-memory user store; data is lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	}
}

func openImageStore(ctx context.Context, cfg config.Config) (media.ImageStore, error) {
	if cfg.ImageStore == config.ImagesS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	}
	return storage.NewLocalStore(cfg.UploadDir)
}
