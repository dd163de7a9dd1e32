package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/robfig/cron/v3"
)

const refreshTimeout = 30 * time.Second

// Refresher recomposes and re-caches a project schema, typically
// *schema.Composer.
type Refresher interface {
	Refresh(ctx context.Context, p *project.Project) ([]byte, error)
}

// SchemaWarmer periodically recomposes the project schema so an evicted
// cache entry is repopulated before a client asks for it
type SchemaWarmer struct {
	cron      *cron.Cron
	refresher Refresher
	project   *project.Project
	log       *logger.Logger
}

// NewSchemaWarmer schedules a refresh on spec, a standard cron expression or
// a descriptor such as "@every 1h".
func NewSchemaWarmer(spec string, r Refresher, p *project.Project, log *logger.Logger) (*SchemaWarmer, error) {
	if log == nil {
		log = logger.Nop()
	}
	w := &SchemaWarmer{
		cron:      cron.New(),
		refresher: r,
		project:   p,
		log:       log,
	}

	if _, err := w.cron.AddFunc(spec, w.Run); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return w, nil
}

// Start runs the schedule in the background
func (w *SchemaWarmer) Start() {
	w.log.Info("schema warmer started", "project", w.project.Slug())
	w.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish
func (w *SchemaWarmer) Stop() {
	<-w.cron.Stop().Done()
	w.log.Info("schema warmer stopped")
}

// Run performs one refresh
func (w *SchemaWarmer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	start := time.Now()
	doc, err := w.refresher.Refresh(ctx, w.project)
	if err != nil {
		w.log.Error("schema refresh failed", "project", w.project.Slug(), "error", err)
		return
	}
	w.log.Debug("schema refreshed", "project", w.project.Slug(), "bytes", len(doc), "took", time.Since(start).String())
}
