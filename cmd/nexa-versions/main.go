package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/db"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/handler"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation/custom"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/router"
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	config.Load()
	config.ConfigureLogging()

	if err := db.Connect(); err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer db.Close()

	metrics := instrumentation.NewMetrics(prometheus.NewRegistry())
	services, err := handler.NewServices(metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("could not wire services")
	}

	apiServer := router.ConfigureEchoWithMetrics(services, metrics)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msgf("api service starting")
		err := apiServer.Start(":8000")
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Msgf("error starting api service: %s", err.Error())
		}
		log.Info().Msgf("api service stopped")
	}()

	metricsServer := configureMetricsServer(metrics)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msgf("metrics service starting")
		err := metricsServer.Start(fmt.Sprintf(":%d", config.Get().Metrics.Port))
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Msgf("error starting metrics service: %s", err.Error())
		}
		log.Info().Msgf("metrics service stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		custom.NewCollector(ctx, metrics, db.DB, services.Coordinator).Run()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepSessions(ctx, services)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownContext, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownContext); err != nil {
			log.Error().Msgf("error shutting down api service: %s", err.Error())
		}
		if err := metricsServer.Shutdown(shutdownContext); err != nil {
			log.Error().Msgf("error shutting down metrics service: %s", err.Error())
		}
	}()

	<-quit
	cancel()
	wg.Wait()
}

func configureMetricsServer(metrics *instrumentation.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echo_middleware.Recover())
	e.Add(echo.GET, config.Get().Metrics.Path,
		echo.WrapHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	return e
}

// sweepSessions drops abandoned chunked upload sessions so their buffered
// chunks do not pile up in memory.
func sweepSessions(ctx context.Context, services *handler.Services) {
	ticker := time.NewTicker(config.UploadSessionTimeout() / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			services.Coordinator.SweepStaleSessions()
		case <-ctx.Done():
			return
		}
	}
}
