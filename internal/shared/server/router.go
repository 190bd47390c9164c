package server

import (
	"github.com/gin-gonic/gin"

	"cvmatch-console/internal/shared/config"
	"cvmatch-console/internal/shared/metrics"
	"cvmatch-console/internal/shared/server/middleware"
	"cvmatch-console/internal/web"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config  config.Config
	Web     *web.Handler
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging("/metrics", "/events"),
		middleware.Recovery(),
	)
	web.Install(r)

	analyzeGuard := middleware.Throttle(deps.Limiter, AnalyzeRule(deps.Config))
	deps.Web.RegisterRoutes(r, analyzeGuard)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(deps.Config.CORSAllowOrigin))
	deps.Web.RegisterAPI(api)

	r.GET("/metrics", metrics.Handler())
	return r
}

// AnalyzeRule converts the configured per-minute submission budget to a
// token bucket.
func AnalyzeRule(cfg config.Config) middleware.RateLimitRule {
	return middleware.RateLimitRule{
		Rate:  cfg.AnalyzeRatePerMinute / 60,
		Burst: cfg.AnalyzeBurst,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
