// Package holder wires the wallet holder service together and runs it until
// the process is signalled to stop.
package holder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/dbx"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/agent"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/auth"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/config"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/httpapi"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/repositories/repomanager"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/services"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/storage"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	pool    *dbx.Pool
	handler http.Handler
}

// Seams for tests.
var (
	openPool = func(ctx context.Context, c *config.Config) (*dbx.Pool, error) {
		return dbx.Open(ctx, repomanager.DriverName, c.DatabaseDSN, dbx.PoolConfig{
			MinConns:       c.PoolMinConns,
			MaxConns:       c.PoolMaxConns,
			AcquireTimeout: c.PoolAcquireTimeout,
		})
	}

	newObjectStore = func(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		if c.DocumentSealKey == "" {
			return s3Store, nil
		}
		return storage.NewSealedStore(s3Store, storage.DeriveKey([]byte(c.DocumentSealKey), []byte(c.S3Bucket)))
	}

	logOutput io.Writer = os.Stdout
)

// NewApp opens the credential store, applies migrations and builds every
// service exactly once.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(logOutput, c.LogLevel)

	pool, err := openPool(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, pool.DB()); err != nil {
		_ = pool.Close()
		return nil, err
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	ac := agent.NewClient(c.AgentAdminURL, c.AgentAPIKey, c.AgentTimeout, logger)
	as := auth.NewService(c.SecretKey, c.AccessTokenValidityDuration, c.BcryptCost)

	handler := httpapi.NewRouter(httpapi.Deps{
		Users:       services.NewUserService(pool, rm, as, ac, c.WalletName, logger),
		Connections: services.NewConnectionService(pool, rm, ac, logger),
		Wallet:      services.NewWalletService(pool, rm, ac, logger),
		Credentials: services.NewCredentialService(pool, rm, ac, logger),
		Documents:   services.NewDocumentService(pool, rm, store, c.PresignValidityDuration, logger),
		Logger:      logger,
		CORSOrigins: c.CORSOrigins,
		Checks: map[string]httpapi.HealthCheck{
			"database": pool.Ping,
			"storage":  store.Ping,
		},
	})

	return &App{config: c, logger: logger, pool: pool, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.pool.Close(); err != nil {
		app.logger.Error(ctx, "close database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
