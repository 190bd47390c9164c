package bootstrap

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/services/health"
	"cvmatch-console/internal/session"
	"cvmatch-console/internal/shared/config"
	"cvmatch-console/internal/shared/server"
	"cvmatch-console/internal/shared/server/middleware"
	"cvmatch-console/internal/shared/telemetry"
	"cvmatch-console/internal/web"
)

// App holds the wired console.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	Client     *analysis.Client
	Controller *session.Controller
	Health     *health.Service
	Web        *web.Handler
}

// Build wires the analysis client, the session controller and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.AnalyzerBaseURL) == "" {
		return nil, errors.New("analyzer base url is required")
	}
	telemetry.Init(cfg.LogLevel, cfg.LogFormat)

	client := analysis.NewClient(cfg.AnalyzerBaseURL, cfg.AnalyzerConnectTimeout, cfg.AnalyzerTimeout)
	return BuildWith(cfg, client), nil
}

// BuildWith wires the console around an existing submitter.
func BuildWith(cfg config.Config, client *analysis.Client) *App {
	ctrl := session.NewController(client)
	healthSvc := health.NewService(client.Endpoint(), func() string {
		return ctrl.Snapshot().State.Phase.String()
	})
	handler := web.NewHandler(ctrl, healthSvc, cfg.MaxUploadBytes)

	app := &App{
		Config:     cfg,
		Client:     client,
		Controller: ctrl,
		Health:     healthSvc,
		Web:        handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:  cfg,
		Web:     handler,
		Limiter: middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":      cfg.Env,
		"analyzer": client.Endpoint(),
	})
	return app
}

// Close stops any in-flight analysis.
func (a *App) Close() {
	if a.Controller != nil {
		a.Controller.Close()
	}
}
