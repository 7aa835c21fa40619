package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

type Config struct {
	Enable      bool    `mapstructure:"enable"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// NewTracerProvider registers a global provider. When exporting is disabled
// spans are still created so context propagation keeps working.
func NewTracerProvider(cfg Config, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	}

	if cfg.Enable {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
		if err != nil {
			logger.Error("Failed to create jaeger exporter",
				zap.Error(err),
				zap.String("endpoint", cfg.Endpoint))
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("Tracing initialized",
		zap.String("service", cfg.ServiceName),
		zap.Bool("export", cfg.Enable),
		zap.String("endpoint", cfg.Endpoint))

	return tp, nil
}

func sampleRatio(ratio float64) float64 {
	if ratio <= 0 || ratio > 1 {
		return 1
	}
	return ratio
}
