package bootstrap

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/analytics"
	appControllers "github.com/yigit/schoolconsole/internal/app/controllers"
	"github.com/yigit/schoolconsole/internal/app/resolver"
	"github.com/yigit/schoolconsole/internal/app/resource"
	appRoutes "github.com/yigit/schoolconsole/internal/app/routes"
	appServices "github.com/yigit/schoolconsole/internal/app/services"
	"github.com/yigit/schoolconsole/internal/app/views"
	"github.com/yigit/schoolconsole/internal/config"
	appMiddleware "github.com/yigit/schoolconsole/internal/middleware"
	"github.com/yigit/schoolconsole/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Client      *resource.Client
	Collections *resource.Collections
	Services    *appServices.Services
	Aggregator  *analytics.Aggregator
	Views       *views.Registry

	DashboardController *appControllers.DashboardController
	OptionsController   *appControllers.OptionsController
	ViewController      *appControllers.ViewController
	RecordController    *appControllers.RecordController

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// BuildDependencies wires the backend client, services, aggregator and controllers.
func BuildDependencies(cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	var err error
	deps.Client, err = resource.NewClientFromConfig(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to create backend client")
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	deps.Collections = resource.NewCollections(deps.Client)
	deps.Services = appServices.NewServices(deps.Collections, lgr)

	deps.Aggregator, err = analytics.NewAggregator(deps.Client, analytics.Options{
		RecentActivityLimit: cfg.Analytics.RecentActivityLimit,
		Timeout:             cfg.Analytics.Timeout,
		Logger:              lgr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics aggregator: %w", err)
	}

	viewCfg := views.ConfigFrom(cfg, lgr)
	deps.Views = views.NewRegistry(deps.Collections, viewCfg, lgr)

	// Single-record reads get a fresh resolver so lookups reflect recent edits
	newResolver := func() *resolver.Resolver {
		return resolver.New(resolver.SourcesFrom(deps.Collections), viewCfg.Resolver)
	}

	deps.DashboardController = appControllers.NewDashboardController(deps.Aggregator)
	deps.OptionsController = appControllers.NewOptionsController(newResolver)
	deps.ViewController = appControllers.NewViewController(deps.Views)
	deps.RecordController = appControllers.NewRecordController(deps.Services, newResolver)

	lgr.Info().
		Str("backend", cfg.Backend.BaseURL).
		Str("resolverMode", cfg.Resolver.Mode).
		Msg("Dependencies built")
	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger(lgr))

	appRoutes.SetupRouter(router,
		deps.DashboardController,
		deps.OptionsController,
		deps.ViewController,
		deps.RecordController,
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
