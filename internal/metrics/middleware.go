package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HTTPMetricsMiddleware creates a middleware that collects HTTP metrics
func HTTPMetricsMiddleware(metrics *Metrics, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		err := c.Next()
		if err != nil {
			// run the error handler now so the recorded status is the real one
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		duration := time.Since(start)

		method := c.Method()
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		statusCode := strconv.Itoa(c.Response().StatusCode())
		responseSize := len(c.Response().Body())

		metrics.RecordHTTPRequest(method, path, statusCode, duration, responseSize)

		if duration > time.Second {
			logger.Warn("Slow HTTP request",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("statusCode", statusCode),
				zap.Duration("duration", duration),
			)
		}

		return err
	}
}

type Pinger interface {
	Ping() error
}

// HealthCheckHandler reports unhealthy when the database does not answer.
func HealthCheckHandler(serviceName string, db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if db != nil {
			if err := db.Ping(); err != nil {
				status, code = "unhealthy", fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status":    status,
			"timestamp": time.Now().Unix(),
			"service":   serviceName,
		})
	}
}
