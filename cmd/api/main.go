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

	"github.com/GoSim-25-26J-441/telemetry-backend/config"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/cache"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project/schema"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/cronjob"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/repository"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/service"
	"golang.org/x/sync/errgroup"
)

const serviceName = "telemetry-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	// Project
	raw, err := project.LoadFile(cfg.Project.ConfigPath)
	if err != nil {
		return err
	}
	p, err := project.New(raw, project.WithLogger(log))
	if err != nil {
		return fmt.Errorf("invalid project config %s: %w", cfg.Project.ConfigPath, err)
	}
	log.Info("project loaded", "name", p.Name(), "slug", p.Slug(), "usage", p.Usage().Mode().String())

	tmpl, err := loadTemplate(cfg.Project.TemplatePath)
	if err != nil {
		return err
	}

	// Redis is optional; without it every request composes the schema
	var schemaCache *cache.SchemaCache
	var composerCache schema.Cache
	if cfg.Redis.Addr != "" {
		client, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("schema cache disabled", "error", err)
		} else {
			defer client.Close()
			schemaCache = cache.NewSchemaCache(client, cfg.Redis.TTL)
			composerCache = schemaCache
		}
	}
	composer := schema.NewComposer(tmpl, composerCache)

	// Postgres
	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.NewReferenceRepository(pool, cfg.Database.Table)
	ingest := service.NewIngestService(p, composer, repo, log)
	if err := ingest.Prepare(ctx); err != nil {
		return fmt.Errorf("project %s: %w", p.Slug(), err)
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Ingest:      ingest,
		DB:          pool,
		Cache:       schemaCache,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Ingest.RateLimit,
		RateBurst:   cfg.Ingest.RateBurst,
	})

	if schemaCache != nil && cfg.Project.WarmSpec != "" {
		warmer, err := cronjob.NewSchemaWarmer(cfg.Project.WarmSpec, composer, p, log)
		if err != nil {
			return err
		}
		warmer.Run()
		warmer.Start()
		defer warmer.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func loadTemplate(path string) (*schema.Template, error) {
	if path == "" {
		return schema.DefaultTemplate()
	}
	return schema.LoadTemplate(path)
}
