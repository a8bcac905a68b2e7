package instrumentation

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsConfig struct {
	Skipper echo_middleware.Skipper
	Metrics *Metrics
}

var defaultConfig MetricsConfig = MetricsConfig{
	Skipper: echo_middleware.DefaultSkipper,
	Metrics: NewMetrics(prometheus.NewRegistry()),
}

// https://github.com/labstack/echo/pull/1502/files
// This method exist for v5 echo framework
func matchedRoute(ctx echo.Context) string {
	pathx := ctx.Path()
	for _, r := range ctx.Echo().Routes() {
		if pathx == r.Path {
			return r.Path
		}
	}
	return ""
}

func MetricsMiddlewareWithConfig(config *MetricsConfig) echo.MiddlewareFunc {
	if config == nil {
		config = &defaultConfig
	}
	if config.Skipper == nil {
		config.Skipper = echo_middleware.DefaultSkipper
	}
	if config.Metrics == nil {
		panic("config.Metrics can not be nil")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if config.Skipper(ctx) {
				return next(ctx)
			}
			start := time.Now()
			method := ctx.Request().Method
			path := matchedRoute(ctx)

			err := next(ctx)

			status := ctx.Response().Status
			if err != nil {
				if httpError, ok := err.(*echo.HTTPError); ok {
					status = httpError.Code
				}
			}
			config.Metrics.HttpStatusHistogram.With(prometheus.Labels{
				"status": strconv.Itoa(status),
				"method": method,
				"path":   path,
			}).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
