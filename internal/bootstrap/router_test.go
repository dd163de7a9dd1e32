package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project/schema"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardStore struct{}

func (discardStore) Insert(context.Context, record.Record) error { return nil }

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	raw, err := project.Parse([]byte("project:\n  name: GLPI\n"))
	require.NoError(t, err)
	p, err := project.New(raw, project.WithLogger(logger.Nop()))
	require.NoError(t, err)
	tmpl, err := schema.DefaultTemplate()
	require.NoError(t, err)

	r := BuildRouter(RouterDeps{
		ServiceName: "telemetry",
		Version:     "test",
		Ingest:      service.NewIngestService(p, schema.NewComposer(tmpl, nil), discardStore{}, logger.Nop()),
		Log:         logger.Nop(),
		CORSOrigins: []string{"*"},
		RateLimit:   0.001,
		RateBurst:   1,
	})

	t.Run("health without backends", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"db":"disabled"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})

	t.Run("schema", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/telemetry/schema.json", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"glpi"`)
	})

	t.Run("submissions are rate limited", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telemetry", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telemetry", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/telemetry/schema.json", nil))
		assert.Equal(t, http.StatusOK, w.Code, "the schema endpoint is not limited")
	})
}
