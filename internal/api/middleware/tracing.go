package middleware

import (
	"strings"

	"github.com/danielsotopino/api-transbank/internal/api/contract"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request and stores it in the user context,
// so gateway calls made by the handler become its children.
func Tracing(serviceName string) fiber.Handler {
	tracer := otel.Tracer(serviceName)

	return func(c *fiber.Ctx) error {
		carrier := propagation.MapCarrier{}
		c.Request().Header.VisitAll(func(key, value []byte) {
			carrier[strings.ToLower(string(key))] = string(value)
		})

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.SetUserContext(ctx)

		err := c.Next()

		if route := c.Route().Path; route != "" {
			span.SetName(c.Method() + " " + route)
		}

		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.target", c.OriginalURL()),
			attribute.Int("http.status_code", status),
		)
		if id := contract.TrackID(c); id != "" {
			span.SetAttributes(attribute.String("x_track_id", id))
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fiber.ErrInternalServerError.Message)
		}

		return err
	}
}
