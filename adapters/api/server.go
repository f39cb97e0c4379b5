// Package api exposes the attribution and experiment services over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gomix/app"
	"gomix/internal"
	"gomix/ports"
)

// Options configures request limits.
type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Logger         *internal.Logger
}

// Server is the public JSON API.
type Server struct {
	router      *gin.Engine
	attribution *app.AttributionService
	experiments *app.ExperimentService
	reports     ports.ReportRenderer
	opts        Options
	logger      *internal.Logger
}

// NewServer wires routes and middleware. Call gin.SetMode before this.
func NewServer(attribution *app.AttributionService, experiments *app.ExperimentService, reports ports.ReportRenderer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		router:      gin.New(),
		attribution: attribution,
		experiments: experiments,
		reports:     reports,
		opts:        opts,
		logger:      opts.Logger.With("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(AccessLog(s.logger))
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")

	attribution := v1.Group("/attribution")
	attribution.POST("", s.handleAttributionUpload)
	attribution.POST("/rows", s.handleAttributionRows)
	attribution.POST("/sweep", s.handleSweep)
	attribution.GET("/demo", s.handleDemo)
	attribution.POST("/report", s.handleReport)

	experiments := v1.Group("/experiments")
	experiments.POST("/ab-sample-size", s.handleSampleSize)
	experiments.POST("/geo-mde", s.handleGeoMDE)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": "NOT_FOUND", "request_id": RID(c)})
	})
}
