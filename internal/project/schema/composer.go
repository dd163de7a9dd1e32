// Package schema composes the per-project JSON Schema served to reporting
// instances and used to validate their submissions.
package schema

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
)

// Cache stores composed schemas. It is advisory: a failing cache never fails
// a composition.
type Cache interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CacheKey is the cache key of a project's composed schema.
func CacheKey(slug string) string {
	return slug + "_schema.json"
}

// Composer derives project schemas from a shared template. A nil cache is
// allowed.
type Composer struct {
	template *Template
	cache    Cache
}

func NewComposer(t *Template, cache Cache) *Composer {
	return &Composer{template: t, cache: cache}
}

// Compose returns the project's schema, from the cache when present.
func (c *Composer) Compose(ctx context.Context, p *project.Project) ([]byte, error) {
	key := CacheKey(p.Slug())

	if c.cache != nil {
		if cached, ok := c.lookup(ctx, p, key); ok {
			return cached, nil
		}
	}

	return c.Refresh(ctx, p)
}

// Refresh composes the project's schema from the template, ignoring any
// cached copy, and stores the result.
func (c *Composer) Refresh(ctx context.Context, p *project.Project) ([]byte, error) {
	doc, err := c.build(p)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, CacheKey(p.Slug()), doc); err != nil {
			p.Logger().Warn("schema cache store failed", "slug", p.Slug(), "error", err)
		}
	}

	return doc, nil
}

func (c *Composer) lookup(ctx context.Context, p *project.Project, key string) ([]byte, bool) {
	has, err := c.cache.Has(ctx, key)
	if err != nil {
		p.Logger().Warn("schema cache lookup failed", "key", key, "error", err)
		return nil, false
	}
	if !has {
		return nil, false
	}
	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		p.Logger().Warn("schema cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok || len(cached) == 0 {
		return nil, false
	}
	return cached, true
}

// build specialises a private copy of the template for p.
func (c *Composer) build(p *project.Project) ([]byte, error) {
	root := c.template.clone()
	slug := p.Slug()

	data, ok := object(root, "properties", "data")
	if !ok {
		return nil, fmt.Errorf("%w: missing properties.data", ErrMalformedTemplate)
	}
	props, _ := data["properties"].(map[string]any)
	archetype, ok := props[archetypeKey].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing project archetype", ErrMalformedTemplate)
	}

	if _, taken := props[slug]; taken && slug != archetypeKey {
		return nil, fmt.Errorf("%w: %q", ErrReservedSlug, slug)
	}

	// The archetype is already a private copy; move it under the slug.
	delete(props, archetypeKey)
	props[slug] = archetype

	if required, ok := data["required"].([]any); ok {
		for i, r := range required {
			if r == archetypeKey {
				required[i] = slug
			}
		}
	}

	subProps, ok := archetype["properties"].(map[string]any)
	if !ok {
		subProps = map[string]any{}
		archetype["properties"] = subProps
	}
	notRequired := map[string]bool{}

	if !p.PluginsEnabled() {
		delete(subProps, "plugins")
		notRequired["plugins"] = true
	}

	usage := p.Usage()
	switch usage.Mode() {
	case project.UsageCustom:
		delete(subProps, "usage")
		subProps["usage"] = customUsage(usage.Fields())
	case project.UsageDisabled:
		delete(subProps, "usage")
		notRequired["usage"] = true
	case project.UsageDefault:
	default:
		return nil, fmt.Errorf("unknown usage mode %v", usage.Mode())
	}

	if len(notRequired) > 0 {
		if required, ok := archetype["required"].([]any); ok {
			archetype["required"] = removeStrings(required, notRequired)
		}
	}

	if url := p.URL(); url != "" {
		if _, ok := root["$id"]; ok {
			root["$id"] = url
		} else {
			root["id"] = url
		}
	}

	doc, err := marshalCanonical(root)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return doc, nil
}

func customUsage(fields []project.UsageField) map[string]any {
	properties := make(map[string]any, len(fields))
	var required []any
	for _, f := range fields {
		properties[f.Key] = map[string]any{"type": f.Type}
		if f.Required {
			required = append(required, f.Key)
		}
	}

	usage := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		usage["required"] = required
	}
	return usage
}
