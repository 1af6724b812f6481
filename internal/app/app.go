package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortener/internal/auth"
	"github.com/vadimbarashkov/shortener/internal/config"
	"github.com/vadimbarashkov/shortener/internal/usecase"
	"github.com/vadimbarashkov/shortener/pkg/postgres"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortener/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/shortener/internal/adapter/repository/postgres"
)

const shutdownTimeout = 10 * time.Second

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Run wires the service together and serves HTTP until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	db, err := postgres.New(ctx, cfg.Postgres.DSN(), postgres.Pool{
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	version, err := postgres.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}
	logger.Info("schema migrated", slog.Uint64("version", uint64(version)))

	tokens, err := auth.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("%s: failed to create token manager: %w", op, err)
	}

	urlRepo := repository.NewURLRepository(db)
	userRepo := repository.NewUserRepository(db)

	urlUseCase := usecase.NewURLUseCase(cfg.ShortURL.IdentLength, urlRepo, logger.Logger)
	userUseCase := usecase.NewUserUseCase(userRepo, auth.NewHasher(cfg.Auth.BcryptCost), tokens, logger.Logger)

	err = userUseCase.EnsureSuperuser(ctx, usecase.RegisterParams{
		Username: cfg.Superuser.Username,
		Email:    cfg.Superuser.Email,
		Password: cfg.Superuser.Password,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create superuser: %w", op, err)
	}

	router := delivery.NewRouter(logger, cfg.CORS.AllowedOrigins, urlUseCase, userUseCase)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		urlUseCase.Wait()
		logger.Info("server stopped")

		return nil
	})

	g.Go(func() error {
		runPurger(ctx, urlUseCase, cfg.ShortURL.PurgeInterval, logger.Logger)
		return nil
	})

	return g.Wait()
}

// runPurger deletes expired short URLs every interval until ctx is canceled.
func runPurger(ctx context.Context, purger expiredPurger, interval time.Duration, logger *slog.Logger) {
	const op = "app.runPurger"

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purger.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("failed to purge expired urls", slog.String("op", op), slog.Any("err", err))
				}
				continue
			}

			if n > 0 {
				logger.Info("purged expired urls", slog.Int64("count", n))
			}
		}
	}
}
