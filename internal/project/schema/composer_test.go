package schema

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	items   map[string][]byte
	sets    int
	failAll bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Has(_ context.Context, key string) (bool, error) {
	if m.failAll {
		return false, errors.New("cache down")
	}
	_, ok := m.items[key]
	return ok, nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.failAll {
		return nil, false, errors.New("cache down")
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) error {
	if m.failAll {
		return errors.New("cache down")
	}
	m.sets++
	m.items[key] = value
	return nil
}

func newProject(t *testing.T, doc string) *project.Project {
	t.Helper()
	raw, err := project.Parse([]byte(doc))
	require.NoError(t, err)
	p, err := project.New(raw, project.WithLogger(logger.Nop()))
	require.NoError(t, err)
	return p
}

func compose(t *testing.T, p *project.Project) map[string]any {
	t.Helper()
	tpl, err := DefaultTemplate()
	require.NoError(t, err)
	out, err := NewComposer(tpl, nil).Compose(context.Background(), p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	return doc
}

func subtree(t *testing.T, doc map[string]any, slug string) map[string]any {
	t.Helper()
	data, ok := object(doc, "properties", "data")
	require.True(t, ok)
	sub, ok := object(data, "properties", slug)
	require.True(t, ok, "slug subtree %q missing", slug)
	return sub
}

func TestCompose_RenamesArchetype(t *testing.T) {
	p := newProject(t, "project:\n  name: GLPI Project\n")
	doc := compose(t, p)

	data, ok := object(doc, "properties", "data")
	require.True(t, ok)
	props := data["properties"].(map[string]any)

	assert.Contains(t, props, "glpi-project")
	assert.NotContains(t, props, "project")
	assert.Equal(t, []any{"glpi-project", "system"}, data["required"])
	assert.Equal(t, "https://telemetry.glpi-project.org/schema", doc["id"])
}

func TestCompose_DefaultUsageUntouched(t *testing.T) {
	p := newProject(t, "project:\n  name: GLPI\n")
	doc := compose(t, p)
	sub := subtree(t, doc, "glpi")

	tpl, err := DefaultTemplate()
	require.NoError(t, err)
	archetype, ok := object(tpl.root, "properties", "data", "properties", "project")
	require.True(t, ok)

	want, err := json.Marshal(archetype)
	require.NoError(t, err)
	got, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestCompose_PluginsDisabled(t *testing.T) {
	p := newProject(t, `
project:
  name: Kimios
  schema:
    plugins: false
`)
	sub := subtree(t, compose(t, p), "kimios")

	assert.NotContains(t, sub["properties"], "plugins")
	assert.Equal(t, []any{"uuid", "version", "default_language", "usage"}, sub["required"])
}

func TestCompose_UsageDisabled(t *testing.T) {
	p := newProject(t, `
project:
  name: Kimios
  schema:
    usage: false
    plugins: false
`)
	sub := subtree(t, compose(t, p), "kimios")

	assert.NotContains(t, sub["properties"], "usage")
	assert.NotContains(t, sub["properties"], "plugins")
	assert.Equal(t, []any{"uuid", "version", "default_language"}, sub["required"])
}

func TestCompose_CustomUsage(t *testing.T) {
	p := newProject(t, `
project:
  name: Kimios
  url: http://kimios.com
  schema:
    usage:
      u1: {type: integer, required: true}
      u2: {type: string, required: false}
      u0: {type: boolean, required: true}
  mapping:
    u1: col_x
    u2: col_y
    u0: col_z
`)
	doc := compose(t, p)
	sub := subtree(t, doc, "kimios")

	usage, ok := object(sub, "properties", "usage")
	require.True(t, ok)
	assert.Equal(t, "object", usage["type"])
	assert.Equal(t, map[string]any{
		"u1": map[string]any{"type": "integer"},
		"u2": map[string]any{"type": "string"},
		"u0": map[string]any{"type": "boolean"},
	}, usage["properties"])
	assert.Equal(t, []any{"u1", "u0"}, usage["required"])

	// usage itself stays required on the project subtree
	assert.Contains(t, sub["required"], "usage")
	assert.Equal(t, "http://kimios.com", doc["id"])
}

func TestCompose_CustomUsageWithoutRequired(t *testing.T) {
	p := newProject(t, `
project:
  name: Kimios
  schema:
    usage:
      u1: {type: integer}
  mapping:
    u1: col_x
`)
	usage, ok := object(subtree(t, compose(t, p), "kimios"), "properties", "usage")
	require.True(t, ok)
	assert.NotContains(t, usage, "required")
}

func TestCompose_Deterministic(t *testing.T) {
	p := newProject(t, `
project:
  name: Kimios
  schema:
    plugins: false
    usage:
      b: {type: integer, required: true}
      a: {type: string, required: true}
  mapping:
    a: col_a
    b: col_b
`)
	tpl, err := DefaultTemplate()
	require.NoError(t, err)
	c := NewComposer(tpl, nil)

	first, err := c.Compose(context.Background(), p)
	require.NoError(t, err)
	second, err := c.Compose(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompose_TemplateNeverMutated(t *testing.T) {
	tpl, err := DefaultTemplate()
	require.NoError(t, err)
	before, err := json.Marshal(tpl.root)
	require.NoError(t, err)

	c := NewComposer(tpl, nil)
	for _, doc := range []string{
		"project:\n  name: GLPI\n",
		"project:\n  name: Kimios\n  url: http://kimios.com\n  schema:\n    usage: false\n    plugins: false\n",
		"project:\n  name: Other\n  schema:\n    usage:\n      x: {type: integer, required: true}\n  mapping:\n    x: col_x\n",
	} {
		_, err := c.Compose(context.Background(), newProject(t, doc))
		require.NoError(t, err)
	}

	after, err := json.Marshal(tpl.root)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestCompose_Cache(t *testing.T) {
	tpl, err := DefaultTemplate()
	require.NoError(t, err)
	p := newProject(t, "project:\n  name: GLPI\n")

	t.Run("miss stores under slug key", func(t *testing.T) {
		cache := newMemoryCache()
		out, err := NewComposer(tpl, cache).Compose(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, out, cache.items["glpi_schema.json"])
		assert.Equal(t, 1, cache.sets)
	})

	t.Run("hit returns cached bytes unchanged", func(t *testing.T) {
		cache := newMemoryCache()
		cache.items["glpi_schema.json"] = []byte(`{"cached":true}`)
		out, err := NewComposer(tpl, cache).Compose(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, `{"cached":true}`, string(out))
		assert.Equal(t, 0, cache.sets)
	})

	t.Run("refresh bypasses cached copy", func(t *testing.T) {
		cache := newMemoryCache()
		cache.items["glpi_schema.json"] = []byte(`{"cached":true}`)
		out, err := NewComposer(tpl, cache).Refresh(context.Background(), p)
		require.NoError(t, err)
		assert.NotEqual(t, `{"cached":true}`, string(out))
		assert.Equal(t, out, cache.items["glpi_schema.json"])
	})

	t.Run("failing cache is ignored", func(t *testing.T) {
		cache := newMemoryCache()
		cache.failAll = true
		out, err := NewComposer(tpl, cache).Compose(context.Background(), p)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})
}

func TestCompose_ReservedSlug(t *testing.T) {
	tpl, err := DefaultTemplate()
	require.NoError(t, err)

	cache := newMemoryCache()
	p := newProject(t, "project:\n  name: System\n")
	_, err = NewComposer(tpl, cache).Compose(context.Background(), p)
	assert.ErrorIs(t, err, ErrReservedSlug)
	assert.Empty(t, cache.items)

	before, err := marshalCanonical(tpl.root)
	require.NoError(t, err)
	doc := compose(t, newProject(t, "project:\n  name: Project\n"))
	assert.Contains(t, subtree(t, doc, "project")["properties"], "uuid")
	assert.Contains(t, subtree(t, doc, "system")["properties"], "db")
	after, err := marshalCanonical(tpl.root)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestParseTemplate(t *testing.T) {
	t.Run("jsonc is accepted", func(t *testing.T) {
		tpl, err := ParseTemplate([]byte(`{
			// base document
			"$id": "urn:telemetry",
			"properties": {
				"data": {
					"properties": {"project": {"properties": {}, "required": []}},
					"required": ["project"],
				},
			},
		}`))
		require.NoError(t, err)

		p := newProject(t, "project:\n  name: GLPI\n  url: https://example.org/schema\n")
		out, err := NewComposer(tpl, nil).Compose(context.Background(), p)
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out, &doc))
		assert.Equal(t, "https://example.org/schema", doc["$id"])
		assert.NotContains(t, doc, "id")
	})

	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"not an object", `[]`},
		{"no data", `{"properties": {}}`},
		{"no archetype", `{"properties": {"data": {"properties": {}, "required": ["project"]}}}`},
		{"archetype not required", `{"properties": {"data": {"properties": {"project": {}}, "required": []}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTemplate([]byte(tc.doc))
			assert.ErrorIs(t, err, ErrMalformedTemplate)
		})
	}
}
