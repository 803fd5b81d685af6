package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"buildsync/internal/blob"
	blobmemory "buildsync/internal/blob/memory"
	blobs3 "buildsync/internal/blob/s3"
	docservice "buildsync/internal/document/service"
	"buildsync/internal/document/store"
	storememory "buildsync/internal/document/store/memory"
	storepostgres "buildsync/internal/document/store/postgres"
	"buildsync/internal/expiration"
	"buildsync/internal/notification"
	"buildsync/internal/platform/config"
	"buildsync/internal/platform/httpserver"
	"buildsync/internal/platform/logger"
	"buildsync/internal/platform/metrics"
	"buildsync/internal/platform/postgres"
	platformredis "buildsync/internal/platform/redis"
	"buildsync/internal/subcontractor"
	httptransport "buildsync/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load(".")
	if err != nil {
		log.Error("could not load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Persistence: postgres when configured, memory otherwise.
	var (
		docs          store.Store
		notifications notification.Store
		directory     subcontractor.Directory
	)
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			log.Error("could not connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if os.Getenv("AUTO_MIGRATE") == "true" {
			if err := postgres.Migrate(ctx, db); err != nil {
				log.Error("migration failed", "error", err)
				os.Exit(1)
			}
		}
		docs = storepostgres.New(db)
		notifications = notification.NewPostgresStore(db)
		directory = subcontractor.NewPostgresDirectory(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		docs = storememory.NewInMemory()
		notifications = notification.NewInMemoryStore()
		directory = subcontractor.NewInMemoryDirectory()
	}

	// Blob storage: selected here, never branched inside core logic.
	var blobs blob.Store
	switch cfg.Storage.Backend {
	case "memory":
		blobs = blobmemory.NewInMemory()
	default:
		s3Store, err := blobs3.New(ctx, cfg.S3)
		if err != nil {
			log.Error("could not initialize S3 blob store", "error", err)
			os.Exit(1)
		}
		blobs = s3Store
	}

	documents, err := docservice.New(docs, blobs,
		docservice.WithLogger(log),
		docservice.WithMetrics(m),
	)
	if err != nil {
		log.Error("could not build document service", "error", err)
		os.Exit(1)
	}

	notifier := notification.NewSlogNotifier(log)
	scanner, err := expiration.NewScanner(docs, directory, notifier, notifications,
		expiration.WithLogger(log),
		expiration.WithMetrics(m),
	)
	if err != nil {
		log.Error("could not build expiration scanner", "error", err)
		os.Exit(1)
	}

	schedulerOpts := []expiration.SchedulerOption{expiration.WithSchedulerLogger(log)}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("could not connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		schedulerOpts = append(schedulerOpts, expiration.WithLock(
			expiration.NewRedisLock(redisClient.Client, uuid.NewString()),
		))
	}
	scheduler := expiration.NewScheduler(scanner, cfg.Scan.Interval, schedulerOpts...)

	handler := httptransport.NewHandler(documents, scanner, log)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting buildsync document service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := scheduler.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}
