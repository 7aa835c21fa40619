package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// TableCarrier adapts AMQP headers to the otel text map carrier so a trace
// started by the publisher continues in the consumer.
type TableCarrier amqp.Table

func (t TableCarrier) Get(key string) string {
	switch v := t[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (t TableCarrier) Set(key, value string) {
	t[key] = value
}

func (t TableCarrier) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}

func InjectTraceContext(ctx context.Context, headers amqp.Table) amqp.Table {
	if headers == nil {
		headers = amqp.Table{}
	}
	otel.GetTextMapPropagator().Inject(ctx, TableCarrier(headers))
	return headers
}

func ExtractTraceContext(ctx context.Context, headers amqp.Table) context.Context {
	if headers == nil {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, TableCarrier(headers))
}
