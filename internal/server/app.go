// Package server initializes and runs the screenauth server: it wires the
// storage backend, the domain services and the HTTP API, and handles
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/clinivault/screenauth/internal/clock"
	"github.com/clinivault/screenauth/internal/codes"
	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/logging"
	"github.com/clinivault/screenauth/internal/server/config"
	"github.com/clinivault/screenauth/internal/server/httpapi"
	"github.com/clinivault/screenauth/internal/server/mailer"
	"github.com/clinivault/screenauth/internal/server/repositories/repomanager"
	"github.com/clinivault/screenauth/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.RepositoryManager
	api     *httpapi.Server
}

// ensureSecretKey fills in a random token-signing key when the configuration
// left it empty. Tokens signed with an ephemeral key do not survive a
// restart.
func ensureSecretKey(cfg *config.Config, logger logging.Logger) error {
	if cfg.SecretKey != "" {
		return nil
	}
	key, err := common.MakeRandHexString(32)
	if err != nil {
		return fmt.Errorf("secret key generation: %w", err)
	}
	cfg.SecretKey = key
	logger.Warn(context.Background(), "no secret key configured, generated an ephemeral one; sessions will not survive a restart")
	return nil
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewDefault()

	if err := ensureSecretKey(cfg, logger); err != nil {
		return nil, err
	}

	var manager repomanager.RepositoryManager
	var err error
	if cfg.DatabaseDSN == "" {
		logger.Warn(context.Background(), "no database DSN configured, using in-memory storage")
		manager = repomanager.NewInMemoryManager()
	} else {
		manager, err = repomanager.NewPostgresManager(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}

	clk := clock.System{}
	gen := codes.CryptoGenerator{}
	ml := mailer.NewLogMailer(logger)

	reg := services.NewRegistrationService(manager, clk, gen, ml, logger,
		cfg.VerificationCodeTTL, cfg.ResendCooldown)
	sess := services.NewSessionService(manager, clk, ml, logger,
		[]byte(cfg.SecretKey), cfg.TokenValidityDuration)
	gr := services.NewGrantService(manager, clk, gen, logger, cfg.GrantTTL)
	rep := services.NewReportService(cfg)

	api := httpapi.NewServer(cfg, logger, reg, sess, gr, rep)

	return &App{config: cfg, logger: logger, manager: manager, api: api}, nil
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
