package bootstrap

import (
	httpapi "github.com/GoSim-25-26J-441/telemetry-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/cache"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/platform/logger"
	telemetryhttp "github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/http"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Ingest      *service.IngestService
	DB          *pgxpool.Pool
	Cache       *cache.SchemaCache
	Log         *logger.Logger
	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Log))
	r.Use(middleware.CORS(dep.CORSOrigins))

	// typed nils must not reach the health handler as non-nil interfaces
	var db, schemaCache httpapi.Pinger
	if dep.DB != nil {
		db = dep.DB
	}
	if dep.Cache != nil {
		schemaCache = dep.Cache
	}
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Ingest.Project().Slug(), db, schemaCache)
	healthHandler.RegisterRoutes(r)

	limiter := middleware.NewRateLimiter(dep.RateLimit, dep.RateBurst)
	telemetryHandler := telemetryhttp.New(dep.Ingest, dep.Log)
	telemetryHandler.Register(r.Group("/telemetry"), limiter.Middleware())

	return r
}
