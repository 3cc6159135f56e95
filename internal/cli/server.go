package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"liveclass-admin/internal/app"
	"liveclass-admin/internal/config"
	"liveclass-admin/internal/infra/memory"
	mongostore "liveclass-admin/internal/infra/mongo"
	"liveclass-admin/internal/infra/objectstore"
	pgstore "liveclass-admin/internal/infra/postgres"
	redisstore "liveclass-admin/internal/infra/redis"
	"liveclass-admin/internal/metrics"
	transport "liveclass-admin/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the admin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	docs, closeDocs, err := openDocumentStore(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeDocs()

	objects, err := objectstore.New(cfg)
	if err != nil {
		return err
	}

	var sessions interface {
		app.SessionRepository
		app.SessionSweeper
	}
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, cfg.Redis.Prefix, config.TTLDuration(cfg.Redis.TTL, config.DefaultSessionIdle))
	} else {
		sessions = memory.NewSessionStore(config.TTLDuration(cfg.Results.SessionIdle, config.DefaultSessionIdle))
	}
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, config.TTLDuration(cfg.Results.SessionSweep, config.DefaultSessionSweep))

	m := metrics.New()
	svcCfg := app.ServiceConfig{
		StoreTimeout:      config.TTLDuration(cfg.Store.Timeout, config.DefaultStoreTimeout),
		DeleteConcurrency: cfg.Results.DeleteConcurrency,
		Location:          loc,
		Metrics:           m,
	}
	live := app.NewLiveService(docs, svcCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /ws/live", transport.NewWSHandler(live).ServeWS)
	transport.NewHandler(transport.Services{
		Live:      live,
		Results:   app.NewResultsService(docs, svcCfg),
		Questions: app.NewQuestionService(docs, objects, svcCfg),
		Settings:  app.NewSettingsService(docs, svcCfg),
		Sessions:  sessions,
		Location:  loc,
	}).Register(mux)
	if cfg.Objects.Provider == "local" {
		dir := objectstore.NewLocalProvider(cfg.Objects.LocalRoot).Dir(cfg.Objects.Bucket)
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(dir))))
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		slog.Info("starting liveclass admin", "port", finalPort, "store", cfg.Store.Driver, "objects", cfg.Objects.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openDocumentStore connects the configured backend. The returned func releases it.
// sweepSessions drops expired admin sessions every interval until ctx ends.
func sweepSessions(ctx context.Context, sessions app.SessionSweeper, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.Sweep(ctx)
			if err != nil {
				slog.Warn("sweep admin sessions", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("swept admin sessions", "removed", removed)
			}
		}
	}
}

func openDocumentStore(ctx context.Context, cfg config.Config, redisClient *redis.Client) (app.DocumentStore, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return memory.NewDocumentStore(), func() {}, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis store needs redis.addr")
		}
		return redisstore.NewDocumentStore(redisClient, cfg.Redis.Prefix), func() {}, nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewDocumentStore(pool), pool.Close, nil
	case "mongo":
		client, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				slog.Warn("mongo disconnect", "error", err)
			}
		}
		return mongostore.NewDocumentStore(db), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
