// @title           Vaultify API
// @version         1.0
// @description     File and folder tree with trash, stars, user shares and public links.
// @host            localhost:8080
// @schemes         http https
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vaultify/internal/api"
	"vaultify/internal/config"
	"vaultify/internal/database"
	"vaultify/internal/database/memory"
	"vaultify/internal/graph"
	"vaultify/internal/identity"
	"vaultify/internal/logging"
	"vaultify/internal/storage"
	"vaultify/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	_ "vaultify/docs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configFlag := &cli.StringSliceFlag{
		Name:  "config",
		Usage: "directory containing settings.yml (repeatable)",
	}

	root := &cli.Command{
		Name:  "vaultify",
		Usage: "Vaultify file tree and sharing server",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runServer(ctx, c.StringSlice("config"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations and exit",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runMigrate(ctx, c.StringSlice("config"))
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.StringSlice("config"))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(paths []string) (*config.Config, *logging.SlogLogger, error) {
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runMigrate(ctx context.Context, paths []string) error {
	cfg, logger, err := loadConfig(paths)
	if err != nil {
		return err
	}
	if cfg.DB.Driver != config.DBDriverPostgres {
		return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.DB.Driver)
	}

	pool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info(ctx, "migrations applied")
	return nil
}

// openStore returns the configured datastore and a cleanup func.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (database.Store, func(), error) {
	if cfg.DB.Driver == config.DBDriverMemory {
		logger.Warn(ctx, "using in-memory datastore, nothing will survive a restart")
		return memory.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info(ctx, "connected to database")

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	return database.NewPostgresStore(pool), pool.Close, nil
}

// openBlobs returns the configured blob store. The local driver also
// returns itself as the second value so the API can serve its signed URLs.
func openBlobs(ctx context.Context, cfg *config.Config, logger logging.Logger) (storage.BlobStore, *storage.LocalBlobStore, error) {
	sc := cfg.Storage
	switch sc.Driver {
	case config.StorageDriverS3:
		blobs, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    sc.Bucket,
			Region:    sc.Region,
			Endpoint:  sc.Endpoint,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "blobs stored in s3", "bucket", sc.Bucket)
		return blobs, nil, nil

	case config.StorageDriverMinio:
		blobs, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  sc.Endpoint,
			Region:    sc.Region,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
			Bucket:    sc.Bucket,
			UseSSL:    sc.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "blobs stored in minio", "endpoint", sc.Endpoint, "bucket", sc.Bucket)
		return blobs, nil, nil

	default:
		files, err := storage.NewLocalStorage(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		blobs, err := storage.NewLocalBlobStore(files, cfg.PublicURL, cfg.JWT.Secret)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "blobs stored on local disk", "path", sc.Path)
		return blobs, blobs, nil
	}
}

func runServer(ctx context.Context, paths []string) error {
	cfg, logger, err := loadConfig(paths)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, localBlobs, err := openBlobs(ctx, cfg, logger)
	if err != nil {
		return err
	}

	wsHub := websocket.NewHub(logger.With("component", "websocket"))
	go wsHub.Run(ctx)

	svc, err := graph.NewService(store, blobs, identity.NewDirectory(store, cfg.Identity.CacheSize, cfg.Identity.CacheTTL), graph.Options{
		UploadTTL:   cfg.Storage.UploadTTL,
		DownloadTTL: cfg.Storage.DownloadTTL,
		Publisher:   wsHub,
		Logger:      logger.With("component", "graph"),
	})
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, store, svc, wsHub, localBlobs, logger)
	httpServer := &http.Server{
		Addr:              cfg.AppHost,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", cfg.AppHost)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
