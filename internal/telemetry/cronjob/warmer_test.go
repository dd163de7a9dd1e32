package cronjob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls atomic.Int32
	slug  atomic.Value
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, p *project.Project) ([]byte, error) {
	f.calls.Add(1)
	f.slug.Store(p.Slug())
	if f.err != nil {
		return nil, f.err
	}
	return []byte(`{}`), nil
}

func newProject(t *testing.T) *project.Project {
	t.Helper()
	raw, err := project.Parse([]byte("project:\n  name: Kimios\n"))
	require.NoError(t, err)
	p, err := project.New(raw, project.WithLogger(logger.Nop()))
	require.NoError(t, err)
	return p
}

func TestSchemaWarmer_Run(t *testing.T) {
	r := &fakeRefresher{}
	w, err := NewSchemaWarmer("@every 1h", r, newProject(t), logger.Nop())
	require.NoError(t, err)

	w.Run()
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, "kimios", r.slug.Load())

	r.err = errors.New("redis down")
	assert.NotPanics(t, w.Run)
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestSchemaWarmer_InvalidSpec(t *testing.T) {
	_, err := NewSchemaWarmer("every now and then", &fakeRefresher{}, newProject(t), nil)
	assert.Error(t, err)
}

func TestSchemaWarmer_StartStop(t *testing.T) {
	r := &fakeRefresher{}
	w, err := NewSchemaWarmer("@every 1h", r, newProject(t), nil)
	require.NoError(t, err)

	w.Start()
	w.Stop()
	assert.Equal(t, int32(0), r.calls.Load())
}
