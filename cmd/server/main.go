package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codequest_admin/internal/api"
	"codequest_admin/internal/app/service"
	"codequest_admin/internal/app/worker"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/domain/repository"
	"codequest_admin/internal/gateway"
	"codequest_admin/internal/platform/config"
	"codequest_admin/internal/platform/database"
	"codequest_admin/internal/platform/logging"
	"codequest_admin/internal/platform/metrics"
	"codequest_admin/internal/platform/queue"
	"codequest_admin/internal/platform/tokenstore"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "codequest-admin",
		Usage: "admin console API for CodeQuest Arena",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the admin API server",
				Action: serve,
			},
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash for ADMIN_PASSWORD_HASH",
				ArgsUsage: "<password>",
				Action:    hashPassword,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func hashPassword(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: codequest-admin hash-password <password>", 2)
	}
	hash, err := security.HashPassword(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}

func serve(c *cli.Context) error {
	// 1. Load Configuration
	cfg := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel)
	logger.Info("configuration loaded", "store", cfg.StoreDriver, "auth", cfg.AuthMode, "redis", cfg.RedisEnabled)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	issuer := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)

	// 2. Redis backs the token store and leaderboard broadcasts when enabled
	var (
		rdb      *redis.Client
		tokens   = tokenstore.NewMemoryStore()
		notifier = service.NewNoopNotifier()
	)
	if cfg.RedisEnabled {
		var err error
		rdb, err = queue.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		tokens = tokenstore.NewRedisStore(rdb)
		notifier = service.NewRedisLeaderboardNotifier(rdb, cfg.LeaderboardQueueName, logger)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}

	gateways := func(sessionID string) *gateway.Gateway {
		var source gateway.TokenSource
		if sessionID != "" {
			source = tokenstore.Bind(tokens, sessionID)
		}
		return gateway.New(gateway.NewClient(cfg.BackendAPIURL, cfg.GatewayTimeout, source, m, logger))
	}

	// 3. Database & room store
	var db *sql.DB
	if cfg.StoreDriver == config.StoreDriverPostgres {
		var err error
		db, err = database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)
	}
	newStore, err := buildStoreFactory(cfg, db, gateways, logger)
	if err != nil {
		return err
	}

	// 4. Services
	var identity service.Identity
	switch cfg.AuthMode {
	case config.AuthModeRemote:
		identity = service.NewRemoteIdentity(gateways)
	case config.AuthModeAccounts:
		admins := repository.NewMemoryAdminRepository()
		if db != nil {
			admins = repository.NewPgAdminRepository(db)
		}
		identity = service.NewAccountIdentity(admins, tokens)
	default:
		if cfg.AdminPasswordHash == "" {
			logger.Warn("ADMIN_PASSWORD_HASH is empty, local login is disabled")
		}
		identity = service.NewLocalIdentity(cfg.AdminEmail, cfg.AdminName, cfg.AdminPasswordHash, tokens)
	}
	sessions := service.NewSessionManager(newStore, notifier, m, logger)
	authService := service.NewAuthService(identity, tokens, issuer, sessions, logger)

	// 5. Leaderboard broadcaster
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	if rdb != nil {
		broadcaster := worker.NewLeaderboardBroadcaster(rdb, cfg.LeaderboardQueueName,
			time.Duration(cfg.LeaderboardLockTTLSeconds)*time.Second, m, logger)
		go func() {
			defer close(workerDone)
			broadcaster.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}
	go authService.RunExpiry(workerCtx, cfg.SessionSweepInterval)

	// 6. Router & HTTP Server
	router := api.NewRouter(issuer, authService, sessions, m, logger, cfg.CORSAllowedOrigins)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 7. Graceful Shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
	}

	logger.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("leaderboard broadcaster did not stop in time")
	}

	logger.Info("server and worker stopped gracefully")
	return nil
}

// buildStoreFactory picks the RoomStore behind every session.
func buildStoreFactory(cfg *config.Config, db *sql.DB, gateways service.GatewayFactory, logger *slog.Logger) (service.StoreFactory, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		store := repository.NewPgRoomStore(db)
		return func(string) repository.RoomStore { return store }, nil

	case config.StoreDriverRemote:
		overlay := repository.NewMemoryStore()
		return func(sessionID string) repository.RoomStore {
			return repository.NewRemoteStore(gateways(sessionID), overlay, logger)
		}, nil

	case config.StoreDriverMemory, "":
		store := repository.NewMemoryStore()
		if cfg.SeedDemoData {
			room := repository.SeedDemoData(store, time.Now())
			logger.Info("demo data seeded", "room_code", room.Code)
		}
		return func(string) repository.RoomStore { return store }, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
