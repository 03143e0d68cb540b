// Package server initializes and runs the AuthGate application: it wires
// the database-backed repositories, the token service, and the HTTP
// endpoint, handles graceful shutdown, and drives the revocation purge loop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/credential"
	"github.com/dmitrijs2005/authgate/internal/server/httpapi"
	"github.com/dmitrijs2005/authgate/internal/server/keys"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/dmitrijs2005/authgate/internal/server/token"
)

type App struct {
	config *config.Config
	logger logging.Logger
	clock  clock.Clock
}

func NewApp(c *config.Config) *App {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return &App{
		config: c,
		logger: logging.NewSlogLogger(sl),
		clock:  clock.New(),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) keyProvider() keys.Provider {
	c := app.config
	if c.KeySource == "s3" {
		return &keys.S3Provider{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			ObjectKey:    c.S3KeysObject,
		}
	}
	return keys.NewStaticProvider(c.ActiveKeyID, c.SigningKeys)
}

// purgeLoop periodically removes expired revocation entries.
func (app *App) purgeLoop(ctx context.Context, m repomanager.Manager) {
	ticker := app.clock.Ticker(app.config.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := m.Revocations().PurgeExpired(ctx, app.clock.Now())
			if err != nil {
				app.logger.Warn(ctx, "revocation purge failed", "error", err)
				continue
			}
			if count > 0 {
				app.logger.Info(ctx, "purged expired revocations", "count", count)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	manager, err := repomanager.NewPostgresManager(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer manager.Close()

	keyring, err := app.keyProvider().Load(ctx)
	if err != nil {
		return fmt.Errorf("signing key init error: %w", err)
	}

	credentials, err := credential.NewManager(app.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("credential manager init error: %w", err)
	}

	tokens := token.NewService(keyring, manager.Revocations(), app.clock, app.config.ClockSkewLeeway)

	auth := services.NewAuthService(
		manager.Users(),
		manager.Revocations(),
		credentials,
		tokens,
		app.clock,
		app.logger,
		app.config.AccessTokenTTL,
		app.config.RefreshTokenTTL,
		app.config.CheckRevocationOnAccess,
	)

	srv := httpapi.NewServer(app.config.EndpointAddrHTTP, auth, manager.Conn(), app.logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.purgeLoop(ctx, manager)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
	return nil
}
