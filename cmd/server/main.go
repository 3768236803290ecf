package main

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/weatherwidget/internal/api"
	"github.com/neexbeast/weatherwidget/internal/cache"
	"github.com/neexbeast/weatherwidget/internal/config"
	"github.com/neexbeast/weatherwidget/internal/metrics"
	"github.com/neexbeast/weatherwidget/internal/render"
	"github.com/neexbeast/weatherwidget/internal/storage"
	"github.com/neexbeast/weatherwidget/internal/weather"
	"github.com/neexbeast/weatherwidget/internal/widget"
	"github.com/neexbeast/weatherwidget/migrations"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingers := map[string]api.Pinger{}

	// Current record: shared in Redis when configured, otherwise in memory.
	var store widget.Store = widget.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		store = cache.NewRecordStore(redisClient, "")
		pingers["redis"] = cache.Pinger{Client: redisClient}
		log.Info("using redis record store")
	}

	// Lookup journal.
	var (
		journal widget.Journal
		repo    *storage.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := storage.RunMigrations(ctx, pool, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")

		repo = storage.NewRepository(pool)
		journal = repo
		pingers["db"] = &pgxPoolPinger{pool: pool}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	client := weather.NewClient(cfg.APIKey,
		weather.WithEndpoint(cfg.Endpoint),
		weather.WithTimeout(cfg.HTTPTimeout()),
	)

	opts := []widget.Option{widget.WithRecorder(m), widget.WithLogger(log)}
	if journal != nil {
		opts = append(opts, widget.WithJournal(journal))
	}
	w := widget.New(client, store, cfg.DefaultCity, opts...)
	defer w.Wait()
	w.Mount(ctx)

	var failures api.FailureJournal
	if repo != nil {
		failures = repo
	}
	handlers := api.NewHandlers(w, failures, render.Options{Location: loc, IconBase: cfg.IconBase}, log)
	router := api.NewRouter(handlers, api.RouterConfig{
		Token:   cfg.BearerToken,
		Pingers: pingers,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.HTTPTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				err = fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port, "default_city", cfg.DefaultCity)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to api.Pinger.
type pgxPoolPinger struct {
	pool *pgxpool.Pool
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
