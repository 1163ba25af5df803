package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"videohub/internal/blobstore"
	"videohub/internal/config"
	"videohub/internal/logging"
	"videohub/internal/metastore"
	"videohub/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run starts the receiver and blocks until ctx is done or the listener
// fails. It returns the process exit code.
func run(ctx context.Context) int {
	if err := config.LoadEnvFile(); err != nil {
		logging.Error("env_file_failed", nil, err)
		return 1
	}
	cfg, err := config.LoadServer()
	if err != nil {
		logging.Error("config_invalid", nil, err)
		return 1
	}

	store, blobs, err := openStores(ctx, cfg, logging.Default)
	if err != nil {
		logging.Error("storage_init_failed", map[string]any{"metadata": cfg.Metadata, "storage": cfg.Storage}, err)
		return 1
	}

	build := server.BuildInfo{Version: cfg.Version, Commit: cfg.Commit}
	srv := server.New(server.Config{
		Addr:            cfg.Addr,
		Build:           build,
		Store:           store,
		Blobs:           blobs,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		UploadRateLimit: cfg.UploadRateLimit,
		CORSOrigin:      cfg.CORSOrigin,
		Logger:          logging.Default,
	})
	logging.Info("starting", map[string]any{
		"addr":     cfg.Addr,
		"version":  build.Version,
		"commit":   build.Commit,
		"storage":  cfg.Storage,
		"metadata": cfg.Metadata,
	})
	return serve(ctx, srv, store)
}

// serve runs srv until ctx is done or it fails. store is closed on every
// path out.
func serve(ctx context.Context, srv *server.Server, store io.Closer) int {
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("store_close_failed", nil, err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logging.Info("shutting_down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("shutdown_error", nil, err)
			return 1
		}
		logging.Info("shutdown_complete", nil)
		return 0
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("server_error", nil, err)
			return 1
		}
		return 0
	}
}

// openStores builds the metadata and blob backends selected by cfg.
func openStores(ctx context.Context, cfg config.Server, log *logging.Logger) (metastore.Store, blobstore.Store, error) {
	var store metastore.Store
	switch cfg.Metadata {
	case config.MetadataPostgres:
		log.Info("running_migrations", nil)
		if err := metastore.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations_complete", nil)

		db, err := metastore.OpenDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		store = metastore.NewPostgresStore(db)
	default:
		s, err := metastore.NewJSONFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		store = s
	}

	var blobs blobstore.Store
	switch cfg.Storage {
	case config.StorageMinio:
		s, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
		})
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect object storage: %w", err)
		}
		blobs = s
	default:
		s, err := blobstore.NewLocalStore(cfg.DataDir)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		blobs = s
	}

	return store, blobs, nil
}
