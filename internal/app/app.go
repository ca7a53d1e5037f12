package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linkman-app/linkman/internal/cache"
	"github.com/linkman-app/linkman/internal/clock"
	"github.com/linkman-app/linkman/internal/config"
	"github.com/linkman-app/linkman/internal/data"
	"github.com/linkman-app/linkman/internal/httpserver"
	"github.com/linkman-app/linkman/internal/httpserver/deps"
	"github.com/linkman-app/linkman/internal/ids"
	"github.com/linkman-app/linkman/internal/logger"
	"github.com/linkman-app/linkman/internal/migration"
	"github.com/linkman-app/linkman/internal/redisconn"
	"github.com/linkman-app/linkman/internal/scheduler"
	"github.com/linkman-app/linkman/internal/sources/bookmarkfile"
	"github.com/linkman-app/linkman/internal/storage"
	"github.com/linkman-app/linkman/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       *data.CachedStore
	engine      *migration.Engine
	sweeper     *scheduler.CacheSweeper
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	kv, redisClient, err := buildBackend(cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	clk := clock.System()
	gen := ids.New()

	// Migration and recovery run against the raw backend before any
	// cache is populated.
	engine := migration.NewEngine(kv, clk, gen, loggerClient, cfg.DevMode)

	result, err := engine.MigrateIfNeeded(context.Background())
	if err != nil {
		return nil, fmt.Errorf("migration check failed: %w", err)
	}
	if result != nil {
		loggerClient.Info("migration pass finished",
			logger.String("from", result.FromVersion),
			logger.String("to", result.ToVersion),
			logger.Bool("success", result.Success))
	}

	if _, err := engine.AutoRecoverCorruptedData(context.Background()); err != nil {
		return nil, fmt.Errorf("data recovery failed: %w", err)
	}

	memCache := cache.New(cfg.CacheTTL)
	store := data.NewCachedStore(kv, memCache, clk, gen, loggerClient)

	settings, categories, err := store.InitializeAppData(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app data: %w", err)
	}
	loggerClient.Info("app data initialized",
		logger.String("app_version", settings.AppVersion),
		logger.Int("categories", len(categories)))

	// Optional one-shot bookmark import
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, importing bookmarks",
			logger.String("file", cfg.ImportFile))
		importConfig, err := bookmarkfile.NewLoader(cfg.ImportFile).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load import file: %w", err)
		}
		if _, err := bookmarkfile.NewImporter(store, loggerClient).Import(context.Background(), importConfig); err != nil {
			return nil, fmt.Errorf("bookmark import failed: %w", err)
		}
	}

	sweeper := scheduler.NewCacheSweeper(memCache, loggerClient, cfg.SweepInterval)

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,
		Store:     store,
		Cache:     memCache,
		Engine:    engine,
		KV:        kv,
		DevMode:   cfg.DevMode,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		store:       store,
		engine:      engine,
		sweeper:     sweeper,
	}, nil
}

// buildBackend selects the KV implementation from config. The redis
// client is returned separately so shutdown can close it.
func buildBackend(cfg *config.Config, loggerClient logger.Logger) (storage.KV, *goredis.Client, error) {
	switch cfg.StorageBackend {
	case "memory":
		loggerClient.Info("using in-memory storage backend")
		return storage.NewMemoryKV(), nil, nil

	case "file":
		loggerClient.Info("using file storage backend",
			logger.String("dir", cfg.DataDir))
		kv, err := storage.NewFileKV(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open data dir: %w", err)
		}
		return kv, nil, nil

	case "redis":
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err := redisconn.New(redisconn.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")
		return storage.NewRedisKV(redisClient, storage.KeyPrefix), redisClient, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Linkman v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("Linkman %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.sweeper.Start(ctx)
	a.logger.Info("cache sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Linkman stopped cleanly")
	return nil
}
