package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weather-forecast-service/internal/config"
	"weather-forecast-service/internal/models"
	"weather-forecast-service/internal/observability"
)

// ForecastService runs the ingestion pipeline for one request.
type ForecastService interface {
	GetForecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResponse, error)
}

// Store is the read/admin surface the handlers need beyond the pipeline.
type Store interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	GetLocation(ctx context.Context, id int64) (models.Location, error)
	DeleteLocation(ctx context.Context, id int64) error
	ListSnapshotsByLocation(ctx context.Context, locationID int64) ([]models.ForecastSnapshot, error)
	LatestSnapshot(ctx context.Context, locationID int64) (models.ForecastSnapshot, error)
	GetSnapshot(ctx context.Context, id int64) (models.ForecastSnapshot, error)
	DeleteSnapshot(ctx context.Context, id int64) error
	DeleteSnapshotsByLocation(ctx context.Context, locationID int64) (int64, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	svc    ForecastService
	store  Store
	log    *zap.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, svc ForecastService, store Store, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(requestLogMiddleware(log))
	engine.Use(metricsMiddleware())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, svc: svc, store: store, log: log, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/forecast", s.handleGetForecast)

		v1.GET("/locations", s.handleListLocations)
		v1.GET("/locations/:id", s.handleGetLocation)
		v1.DELETE("/locations/:id", s.handleDeleteLocation)

		v1.GET("/locations/:id/snapshots", s.handleListSnapshots)
		v1.GET("/locations/:id/snapshots/latest", s.handleLatestSnapshot)
		v1.DELETE("/locations/:id/snapshots", s.handleDeleteSnapshotsByLocation)

		v1.GET("/snapshots/:id", s.handleGetSnapshot)
		v1.DELETE("/snapshots/:id", s.handleDeleteSnapshot)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
