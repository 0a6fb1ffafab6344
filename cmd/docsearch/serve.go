package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/auth"
	"github.com/kailas-cloud/docsearch/internal/config"
	"github.com/kailas-cloud/docsearch/internal/db"
	dbRedis "github.com/kailas-cloud/docsearch/internal/db/redis"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	documentrepo "github.com/kailas-cloud/docsearch/internal/repository/document"
	indexrepo "github.com/kailas-cloud/docsearch/internal/repository/index"
	"github.com/kailas-cloud/docsearch/internal/repository/postgres"
	searchrepo "github.com/kailas-cloud/docsearch/internal/repository/search"
	chiTransport "github.com/kailas-cloud/docsearch/internal/transport/chi"
	"github.com/kailas-cloud/docsearch/internal/usecase/access"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	indexuc "github.com/kailas-cloud/docsearch/internal/usecase/index"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
	useruc "github.com/kailas-cloud/docsearch/internal/usecase/user"
	"github.com/kailas-cloud/docsearch/internal/version"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	env := environment()
	cfg, logger, err := bootstrap(env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openSearchStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Connected to search backend")

	pg, err := openMetadataStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if migrateOnStart {
		if err := postgres.Migrate(ctx, pg.Pool); err != nil {
			return err
		}
		logger.Info("Migrations applied")
	}

	metrics.RegisterBackendMetrics()

	handler := buildAPI(cfg, store, pg, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func openSearchStore(ctx context.Context, cfg config.Config) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Search.Addrs,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create search store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Search.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("search backend not ready: %w", err)
	}
	return store, nil
}

func openMetadataStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.DB, error) {
	pg, err := postgres.NewConnection(ctx, postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeSec) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect metadata store: %w", err)
	}
	return pg, nil
}

// newUserService builds the account service shared by serve and create-admin.
func newUserService(cfg config.Config, pg *postgres.DB, gate *access.Gate) *useruc.Service {
	return useruc.New(
		postgres.NewUserRepo(pg),
		auth.NewHasher(cfg.Auth.BcryptCost),
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		gate,
	)
}

// buildAPI is the composition root: repositories, services, router.
func buildAPI(cfg config.Config, store *dbRedis.Store, pg *postgres.DB, logger *zap.Logger) http.Handler {
	keys := db.Keyspace{Prefix: cfg.Search.KeyPrefix}

	indexMeta := postgres.NewIndexRepo(pg)
	roles := postgres.NewRoleRepo(pg)
	gate := access.NewGate(indexMeta, roles)

	backendIndices := indexrepo.New(store, keys)
	matcher := searchrepo.New(store, keys)

	indexSvc := indexuc.New(indexMeta, roles, backendIndices, gate)
	docSvc := documentuc.New(documentrepo.New(store, keys), backendIndices, matcher, gate)
	searchSvc := searchuc.New(matcher, gate, searchuc.Options{AnnotateAllQueries: cfg.Search.AnnotateAllQueries})
	userSvc := newUserService(cfg, pg, gate)
	healthSvc := healthuc.New(store, pg)

	server := chiTransport.NewServer(indexSvc, docSvc, searchSvc, userSvc, healthSvc)
	return chiTransport.NewRouter(server, userSvc, logger, chiTransport.RouterOptions{
		TokenRequestsPerMinute: cfg.Auth.TokenRatePerMinute,
	})
}
