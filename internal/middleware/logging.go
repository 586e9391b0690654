package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sharthi/stall-marketplace/internal/metrics"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one logrus entry per request.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"remote_ip": v.RemoteIP,
			})
			if caller := CallerID(c); caller != "" {
				entry = entry.WithField("caller_id", caller)
			}
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}

// Metrics records request count and latency by route template.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				// the error handler has not written the response yet
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			metrics.RecordHTTPRequest(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}
