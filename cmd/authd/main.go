package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lumenworks/authkit/internal/bootstrap"
	"github.com/lumenworks/authkit/internal/config"
	httptransport "github.com/lumenworks/authkit/internal/http"
	"github.com/lumenworks/authkit/internal/http/handler"
	httpmiddleware "github.com/lumenworks/authkit/internal/http/middleware"
	"github.com/lumenworks/authkit/internal/mailer"
	"github.com/lumenworks/authkit/internal/password"
	"github.com/lumenworks/authkit/internal/repository"
	"github.com/lumenworks/authkit/internal/server"
	"github.com/lumenworks/authkit/internal/service"
	"github.com/lumenworks/authkit/internal/telemetry"
	"github.com/lumenworks/authkit/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newHasher,
			newSigner,
			newMailer,
			service.NewAuthService,
			newAuthHandler,
			newSessionMiddleware,
			newRouter,
			newHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureSchema, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newHasher() *password.Hasher {
	return password.NewHasher(password.DefaultParams)
}

func newSigner(cfg config.Config) *token.Signer {
	return token.NewSigner([]byte(cfg.SessionSecret), cfg.SessionTTL)
}

func newMailer(cfg config.Config, logger *zap.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP not configured, emails will only be logged")
		return mailer.NewLogMailer(logger)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	})
}

func newAuthHandler(auth *service.AuthService, cfg config.Config, logger *zap.Logger) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, cfg, logger)
}

func newSessionMiddleware(signer *token.Signer, cfg config.Config) *httpmiddleware.Session {
	return &httpmiddleware.Session{Signer: signer, CookieName: cfg.SessionCookieName}
}

func newRouter(cfg config.Config, authHandler *handler.AuthHandler, session *httpmiddleware.Session, logger *zap.Logger) *gin.Engine {
	return httptransport.NewRouter(cfg, authHandler, session, logger)
}

func newHTTPServer(router *gin.Engine, logger *zap.Logger) *server.HTTPServer {
	return server.NewHTTPServer(router, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
