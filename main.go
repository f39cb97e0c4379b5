package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gomix/adapters/api"
	"gomix/adapters/report"
	"gomix/adapters/tabular"
	"gomix/app"
	"gomix/domain/attribution"
	"gomix/internal"
	"gomix/internal/config"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(appConfig.Log.Level)
	gin.SetMode(appConfig.Server.GinMode)

	attributionService := app.NewAttributionService(tabular.NewReader(), app.AttributionOptions{
		Defaults: attribution.Params{
			Decay:      appConfig.Model.AdstockDecay,
			Saturation: appConfig.Model.Saturation,
		},
		SweepDecays: appConfig.Model.SweepDecays,
		Logger:      logger,
	})
	experimentService := app.NewExperimentService(app.ExperimentDefaults{
		Alpha: appConfig.Experiment.Alpha,
		Power: appConfig.Experiment.Power,
		GeoCV: appConfig.Experiment.GeoCV,
	}, logger)

	server := api.NewServer(attributionService, experimentService, report.NewRenderer(), api.Options{
		MaxUploadBytes: appConfig.MaxUploadBytes(),
		RequestTimeout: appConfig.Server.RequestTimeout,
		Logger:         logger,
	})

	var ready atomic.Bool
	apiServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	adminServer := &http.Server{
		Addr:              ":" + appConfig.Server.AdminPort,
		Handler:           api.NewAdminRouter(ready.Load),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 2)
	go func() {
		logger.Info("admin server listening on :%s (/healthz, /readyz, /metrics)", appConfig.Server.AdminPort)
		serveErr <- listen(adminServer)
	}()
	go func() {
		logger.Info("🚀 Starting gomix API on port %s", appConfig.Server.Port)
		serveErr <- listen(apiServer)
	}()
	ready.Store(true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		logger.Error("server failed: %v", err)
	}
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown: %v", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin shutdown: %v", err)
	}
	logger.Info("stopped")
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
