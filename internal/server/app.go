// Package server initializes and runs the onboarding API server.
// It wires configuration, storage backends, token signing and the HTTP
// transport, applies migrations and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/onboarding/internal/logging"
	"github.com/dmitrijs2005/onboarding/internal/server/auth"
	"github.com/dmitrijs2005/onboarding/internal/server/config"
	"github.com/dmitrijs2005/onboarding/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onboarding/internal/server/rest"
	"github.com/dmitrijs2005/onboarding/internal/server/services"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	userService *services.UserService
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	gin.SetMode(c.GinMode)

	codec, err := NewCodec(c)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var (
		opts []repomanager.Option
		rdb  *redis.Client
	)
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		opts = append(opts, repomanager.WithRedisDenylist(rdb))
	}

	rm, err := repomanager.NewPostgresRepositoryManager(opts...)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	hasher := auth.NewBcryptHasher(c.BcryptCost)
	us := services.NewUserService(db, rm, codec, hasher, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		redis:       rdb,
		repomanager: rm,
		codec:       codec,
		userService: us,
	}, nil
}

// NewCodec builds the token codec from the configured keys and lifetimes.
func NewCodec(c *config.Config) (*auth.Codec, error) {
	prevAccess, err := config.ParseKeys(c.PreviousAccessKeys)
	if err != nil {
		return nil, err
	}
	prevRefresh, err := config.ParseKeys(c.PreviousRefreshKeys)
	if err != nil {
		return nil, err
	}

	return auth.NewCodec(auth.CodecConfig{
		Access: auth.KeySet{
			KeyID:    c.AccessKeyID,
			Secret:   []byte(c.AccessSecretKey),
			Previous: toSecrets(prevAccess),
		},
		Refresh: auth.KeySet{
			KeyID:    c.RefreshKeyID,
			Secret:   []byte(c.RefreshSecretKey),
			Previous: toSecrets(prevRefresh),
		},
		AccessTTL:  c.AccessTokenValidityDuration,
		RefreshTTL: c.RefreshTokenValidityDuration,
	})
}

func toSecrets(keys map[string]string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	for kid, secret := range keys {
		out[kid] = []byte(secret)
	}
	return out
}

// Users exposes the user service, e.g. for the admin CLI.
func (app *App) Users() *services.UserService {
	return app.userService
}

// Logger returns the application logger.
func (app *App) Logger() logging.Logger {
	return app.logger
}

// Prepare migrates the schema and drops expired denylist entries.
func (app *App) Prepare(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	n, err := app.userService.PurgeRevoked(ctx)
	if err != nil {
		app.logger.Warn(ctx, "purging revoked tokens failed", "error", err)
	} else if n > 0 {
		app.logger.Info(ctx, "purged expired revoked tokens", "count", n)
	}

	return nil
}

// Close releases database and cache connections.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	errs = append(errs, app.db.Close())
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.codec, rest.CookieOptions{
		Secure: app.config.SecureCookie,
		MaxAge: app.config.RefreshTokenValidityDuration,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run prepares storage and serves until ctx is cancelled or a termination
// signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.Prepare(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return nil
}
