package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisadapter "github.com/ssopoc/authgate/internal/adapters/redis"
	"github.com/ssopoc/authgate/internal/bootstrap"
	"github.com/ssopoc/authgate/internal/service"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting authgate",
		"protocol", cfg.Auth.Protocol,
		"addr", cfg.HTTP.Addr,
		"frontend_url", cfg.HTTP.FrontendURL,
	)

	redisClient := bootstrap.NewRedisClient(cfg.Redis)
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The store is required for every login, but Redis may still be
		// coming up in container environments; log and continue.
		logger.WarnContext(ctx, "redis not reachable at startup", "error", err)
	}

	providers, err := bootstrap.BuildAuthProviders(ctx, &cfg)
	if err != nil {
		return err
	}

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Store:  redisadapter.NewSessionStore(redisClient),
		TTL:    cfg.Auth.SessionTTL,
		Logger: logger,
	})

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerDeps{
		Config:    &cfg,
		Sessions:  sessions,
		Providers: providers,
		Logger:    logger,
	})

	<-ctx.Done()
	return bootstrap.ShutdownHTTPServer(context.Background(), server, logger)
}
