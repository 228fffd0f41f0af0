package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/beanbocchi/blobfs/config"
	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/cache"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/local"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/memory"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/minio"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/s3"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/stoj"
	"github.com/beanbocchi/blobfs/internal/client/objectstore/sync"
	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/internal/metrics"
	"github.com/beanbocchi/blobfs/internal/service"
	"github.com/beanbocchi/blobfs/internal/transport"
	"github.com/beanbocchi/blobfs/pkg/sqlc"
)

const shutdownTimeout = 10 * time.Second

// NewConfig provides the application configuration
func NewConfig() *config.Config {
	return config.GetConfig()
}

// SetupLogger installs the default slog logger described by cfg.
func SetupLogger(cfg config.Log) *slog.Logger {
	logger := NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

func NewLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewStore builds the configured backend, wrapped in the read cache and the
// per-key lock when those are enabled.
func NewStore(ctx context.Context, cfg config.Filestore, logger *slog.Logger) (objectstore.Client, error) {
	var (
		store objectstore.Client
		err   error
	)

	switch cfg.Type {
	case "memory":
		store = memory.NewStore(memory.Config{PageSize: cfg.PageSize})
	case "local":
		store, err = local.NewClient(local.LocalConfig{
			Root:     cfg.Local.Root,
			PageSize: cfg.PageSize,
		})
	case "s3":
		store, err = s3.NewClient(ctx, s3.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			PageSize:        int32(cfg.PageSize),
		})
	case "minio":
		store, err = minio.NewClient(ctx, minio.MinioConfig{
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyID:     cfg.Minio.AccessKeyID,
			SecretAccessKey: cfg.Minio.SecretAccessKey,
			Bucket:          cfg.Minio.Bucket,
			Region:          cfg.Minio.Region,
			UseSSL:          cfg.Minio.UseSSL,
			PageSize:        cfg.PageSize,
		})
	case "storj":
		store, err = stoj.NewClient(ctx, stoj.StorjConfig{
			AccessGrant: cfg.Storj.AccessGrant,
			Bucket:      cfg.Storj.Bucket,
			PageSize:    cfg.PageSize,
		})
	default:
		return nil, fmt.Errorf("unknown filestore type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Type, err)
	}

	if cfg.Cache.Enabled {
		maxSize, err := cfg.Cache.MaxSizeBytes()
		if err != nil {
			return nil, err
		}
		cacheStore, err := local.NewClient(local.LocalConfig{Root: cfg.Cache.Root})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		store, err = cache.NewCacheClient(cache.CacheConfig{
			Cache:          cacheStore,
			Primary:        store,
			EvictionPolicy: cache.NewLRUEvictionPolicy(maxSize),
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
	}

	if cfg.LockKeys {
		store, err = sync.NewSyncClient(sync.SyncConfig{Client: store})
		if err != nil {
			return nil, fmt.Errorf("create key locks: %w", err)
		}
	}

	return store, nil
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, cfg *config.Config) error {
	logger := SetupLogger(cfg.Log)

	chunkSize, err := cfg.Filestore.ChunkSizeBytes()
	if err != nil {
		return err
	}

	sqlDB, err := sqlc.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()
	storage := sqlc.NewStorage(sqlDB)

	store, err := NewStore(ctx, cfg.Filestore, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	fsys, err := filesystem.New(filesystem.Config{
		Store:     store,
		ChunkSize: chunkSize,
		TempDir:   cfg.Filestore.TempDir,
		Observer:  filesystem.Observers{service.NewJournal(storage, logger), m},
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create file system: %w", err)
	}

	svc, err := service.NewService(service.Config{
		FileSystem:        fsys,
		Store:             store,
		Storage:           storage,
		Recorder:          m,
		DetectContentType: cfg.App.DetectContentType,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	e, err := transport.NewEcho(svc, m.Handler())
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "name", cfg.App.Name, "addr", cfg.App.Addr, "store", cfg.Filestore.Type)
		if err := e.Start(cfg.App.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
