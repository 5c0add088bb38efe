package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "animal-shelter/docs"
	"animal-shelter/internal/adapters/auth/remote"
	blobfs "animal-shelter/internal/adapters/blob/fs"
	"animal-shelter/internal/adapters/blob/gridfs"
	blobs3 "animal-shelter/internal/adapters/blob/s3"
	"animal-shelter/internal/adapters/storage/memory"
	"animal-shelter/internal/adapters/storage/sqlstore"
	"animal-shelter/internal/domain/users"
	"animal-shelter/internal/platform/config"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/metrics"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/blob"
	"animal-shelter/internal/router"

	"github.com/juju/errors"
)

// @title Refugio de animales API
// @version 1.0
// @description Backend del refugio: catálogo, atención veterinaria, adopciones y reportes.
// @BasePath /api
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid config", map[string]any{"err": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"err": errors.ErrorStack(err)})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg.DB)
	if err != nil {
		return errors.Annotate(err, "open store")
	}
	defer closeStore()

	photos, closePhotos, err := openPhotos(ctx, cfg.Uploads)
	if err != nil {
		return errors.Annotate(err, "open uploads")
	}
	defer closePhotos()

	var fallback auth.AuthVerifier
	if cfg.Auth.RemoteURL != "" {
		v, err := remote.New(remote.Config{BaseURL: cfg.Auth.RemoteURL, APIKey: cfg.Auth.RemoteAPIKey})
		if err != nil {
			return errors.Annotate(err, "remote auth")
		}
		fallback = v
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		svc := users.NewService(users.Deps{Users: repos.Users, Sessions: repos.Sessions, Log: log})
		if _, err := svc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
			return errors.Annotate(err, "ensure admin")
		}
	}
	if cfg.Auth.DevHeaders {
		log.Warn("dev auth headers enabled", map[string]any{"headers": "X-Debug-User-ID, X-Debug-Role"})
	}

	h := router.NewRouter(router.Options{
		Repos:            repos,
		Photos:           photos,
		FallbackVerifier: fallback,
		DevHeaders:       cfg.Auth.DevHeaders,
		SessionTTL:       cfg.Auth.SessionTTL,
		CORSOrigins:      cfg.CORSOrigins,
		Log:              log,
		Metrics:          metrics.NewCollector(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":    cfg.Addr(),
			"db":      cfg.DB.Driver,
			"uploads": cfg.Uploads.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, db config.DBConfig) (router.Repositories, func(), error) {
	if db.Driver == "memory" {
		return router.MemoryRepositories(memory.New()), func() {}, nil
	}
	st, err := sqlstore.Open(ctx, sqlstore.Dialect(db.Driver), db.DSN)
	if err != nil {
		return router.Repositories{}, nil, err
	}
	return router.SQLRepositories(st), func() { _ = st.Close() }, nil
}

func openPhotos(ctx context.Context, up config.UploadsConfig) (blob.Store, func(), error) {
	switch up.Driver {
	case "s3":
		st, err := blobs3.New(ctx, blobs3.Config{
			Region:          up.S3Region,
			Bucket:          up.S3Bucket,
			Endpoint:        up.S3Endpoint,
			PathStyle:       up.S3PathStyle,
			AccessKeyID:     up.S3AccessKey,
			SecretAccessKey: up.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case "gridfs":
		st, err := gridfs.Open(ctx, up.MongoURI, up.MongoDB, up.GridFSBucket)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close(context.Background()) }, nil
	default:
		st, err := blobfs.New(up.Dir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}
}
