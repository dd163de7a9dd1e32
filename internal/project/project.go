// Package project holds the validated, read-only description of one
// reporting project: its slug, schema options and usage column mapping.
package project

import (
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
)

// Warner receives truncation and other degradation diagnostics.
type Warner interface {
	Warn(msg string, keysAndValues ...interface{})
}

// Project is safe for concurrent use once built.
type Project struct {
	name           string
	slug           string
	url            string
	usage          SchemaUsage
	pluginsEnabled bool
	mapping        map[string]string
	logger         Warner
}

type Option func(*Project)

// WithLogger sets the diagnostic sink. Without it diagnostics go to the
// process-level stderr logger.
func WithLogger(w Warner) Option {
	return func(p *Project) {
		if w != nil {
			p.logger = w
		}
	}
}

// New validates cfg and builds the project descriptor from it.
func New(cfg *RawConfig, opts ...Option) (*Project, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	p := &Project{
		name:           cfg.Name,
		slug:           Slugify(cfg.Name),
		url:            strings.TrimSpace(cfg.URL),
		usage:          DefaultUsage(),
		pluginsEnabled: true,
		mapping:        map[string]string{},
		logger:         logger.Stderr(),
	}
	if p.slug == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptySlug, cfg.Name)
	}

	usage := &cfg.Schema.Usage
	switch {
	case !present(usage):
	case isFalse(usage):
		p.usage = DisabledUsage()
	default:
		fields, err := customFields(usage)
		if err != nil {
			return nil, err
		}
		mapping, err := customMapping(&cfg.Mapping)
		if err != nil {
			return nil, err
		}
		p.usage = CustomUsage(fields...)
		p.mapping = mapping
	}

	if isFalse(&cfg.Schema.Plugins) {
		p.pluginsEnabled = false
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Project) Name() string {
	return p.name
}

func (p *Project) Slug() string {
	return p.slug
}

// URL returns the configured project URL, or "" when none was set.
func (p *Project) URL() string {
	return p.url
}

func (p *Project) Usage() SchemaUsage {
	return p.usage
}

func (p *Project) PluginsEnabled() bool {
	return p.pluginsEnabled
}

// Mapping returns a copy of the usage key to storage column mapping. It is
// empty unless usage mode is UsageCustom.
func (p *Project) Mapping() map[string]string {
	out := make(map[string]string, len(p.mapping))
	for k, v := range p.mapping {
		out[k] = v
	}
	return out
}

func (p *Project) Logger() Warner {
	return p.logger
}
