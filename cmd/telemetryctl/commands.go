package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/telemetry-backend/config"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/cache"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project/schema"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/storage/postgres"
)

const defaultProjectConfig = "config/project.yaml"

func runSlug(args []string, stdout io.Writer) error {
	fs := newFlagSet("slug")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("slug: a project name is required")
	}

	slug := project.Slugify(strings.Join(fs.Args(), " "))
	if slug == "" {
		return project.ErrEmptySlug
	}
	fmt.Fprintln(stdout, slug)
	return nil
}

func runValidate(args []string, stdout io.Writer) error {
	fs := newFlagSet("validate")
	path := fs.StringP("config", "c", defaultProjectConfig, "project configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadProject(*path)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: ok (slug %s, usage %s, plugins %t)\n",
		*path, p.Slug(), p.Usage().Mode(), p.PluginsEnabled())
	return nil
}

func runSchema(args []string, stdout io.Writer) error {
	fs := newFlagSet("schema")
	path := fs.StringP("config", "c", defaultProjectConfig, "project configuration file")
	templatePath := fs.StringP("template", "t", "", "schema template (default: embedded)")
	evict := fs.Bool("evict", false, "drop the cached schema from Redis (REDIS_ADDR) instead of printing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadProject(*path)
	if err != nil {
		return err
	}

	if *evict {
		return evictSchema(p, stdout)
	}

	var tmpl *schema.Template
	if *templatePath == "" {
		tmpl, err = schema.DefaultTemplate()
	} else {
		tmpl, err = schema.LoadTemplate(*templatePath)
	}
	if err != nil {
		return err
	}

	doc, err := schema.NewComposer(tmpl, nil).Compose(context.Background(), p)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(doc))
	return nil
}

func evictSchema(p *project.Project, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := cache.NewSchemaCache(client, cfg.Redis.TTL).Delete(ctx, schema.CacheKey(p.Slug())); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "evicted cached schema for %s\n", p.Slug())
	return nil
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := newFlagSet("migrate")
	path := fs.StringP("config", "c", defaultProjectConfig, "project configuration file")
	table := fs.String("table", "", "reference table (default: DB_TABLE)")
	dryRun := fs.Bool("dry-run", false, "print the statements instead of applying them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadProject(*path)
	if err != nil {
		return err
	}

	if *dryRun {
		for _, stmt := range postgres.NewMigrator(nil, *table).Statements(p) {
			fmt.Fprintf(stdout, "%s;\n", stmt)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *table == "" {
		*table = cfg.Database.Table
	}

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := postgres.NewMigrator(db, *table).Migrate(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "table %s is up to date for %s\n", *table, p.Slug())
	return nil
}

func loadProject(path string) (*project.Project, error) {
	raw, err := project.LoadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := project.New(raw, project.WithLogger(logger.Stderr()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
