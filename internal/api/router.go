package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pvbess-model/internal/api/handlers"
	"pvbess-model/internal/api/middleware"
	"pvbess-model/internal/data"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/metrics"
	"pvbess-model/internal/scenario"
	"pvbess-model/internal/store"
)

// Options configures the HTTP API.
type Options struct {
	PlantDir    string
	TimelineDir string
	Store       store.Store
	Timelines   *data.TimelineCache
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer    prometheus.Gatherer
	Recorder    metrics.Recorder
	Logger      logging.Logger
	AccessLog   *zerolog.Logger
	CORSOrigins []string
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore(0)
	}
	if opts.Timelines == nil {
		opts.Timelines = data.NewTimelineCache(0)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	if opts.AccessLog != nil {
		router.Use(middleware.Logger(*opts.AccessLog))
	}
	router.Use(middleware.CORS(opts.CORSOrigins...))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Errors())

	runner := scenario.NewRunner(scenario.WithLogger(opts.Logger), scenario.WithRecorder(opts.Recorder))
	plantHandler := handlers.NewPlantHandler(opts.PlantDir, opts.Logger)
	simulateHandler := handlers.NewSimulateHandler(handlers.Deps{
		Plants:      plantHandler,
		Store:       opts.Store,
		Timelines:   opts.Timelines,
		TimelineDir: opts.TimelineDir,
		Runner:      runner,
		Logger:      opts.Logger,
	})
	strategyHandler := handlers.NewStrategyHandler()
	financeHandler := handlers.NewFinanceHandler()
	runHandler := handlers.NewRunHandler(opts.Store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.RunSimulation)
		api.POST("/simulate/compare", simulateHandler.CompareSimulations)
		api.POST("/finance", financeHandler.RunFinance)

		api.GET("/plants", plantHandler.ListPlants)
		api.GET("/strategies", strategyHandler.ListStrategies)

		api.GET("/runs/:id/ledger", runHandler.GetLedger)
		api.GET("/runs/:id/yearly", runHandler.GetYearly)
		api.DELETE("/runs/:id", runHandler.DeleteRun)
	}

	router.NoRoute(func(c *gin.Context) {
		msg := "Not found"
		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			msg = "Not found: " + c.Request.URL.Path
		}
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": msg}})
	})
	return router
}
