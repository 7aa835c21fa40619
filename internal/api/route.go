package api

import (
	"github.com/danielsotopino/api-transbank/internal/api/middleware"
	v1 "github.com/danielsotopino/api-transbank/internal/api/v1"
	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const prefixV1 = "/api/v1/"

func SetupRoutes(app *fiber.App, handler *v1.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer,
	db metrics.Pinger, cfg *config.Config, logger *zap.Logger) {
	app.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	app.Use(middleware.TrackID())
	app.Use(metrics.HTTPMetricsMiddleware(m, logger))

	app.Get("/ping", handler.Pong)
	app.Get("/health", metrics.HealthCheckHandler(cfg.API.ServiceName, db))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Post(prefixV1+"inscription/start", handler.StartInscription)
	app.Put(prefixV1+"inscription/finish", handler.FinishInscription)
	app.Delete(prefixV1+"inscription/delete", handler.DeleteInscription)
	app.Get(prefixV1+"inscription/result", handler.InscriptionResult)
	app.Post(prefixV1+"inscription/result", handler.InscriptionResult)
	app.Get(prefixV1+"inscription/:username", handler.ListInscriptions)

	app.Post(prefixV1+"transaction/authorize", handler.Authorize)
	app.Put(prefixV1+"transaction/capture", handler.Capture)
	app.Post(prefixV1+"transaction/refund", handler.Refund)
	app.Get(prefixV1+"transaction/status/:child_buy_order", handler.Status)
	app.Get(prefixV1+"transaction/history/:username", handler.History)
}
