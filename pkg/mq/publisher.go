package mq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/danielsotopino/api-transbank/pkg/mq"

type Publisher interface {
	Publish(ctx context.Context, exchange string, routingKey string, messageID string, body []byte) error
}

type RabbitPublisher struct {
	ch *amqp.Channel
}

func NewRabbitPublisher(ch *amqp.Channel) Publisher { return &RabbitPublisher{ch: ch} }

// Publish sends a persistent JSON message carrying the caller's trace context.
func (r *RabbitPublisher) Publish(ctx context.Context, exchange string, routingKey string, messageID string, body []byte) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "publish "+routingKey,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", routingKey),
			attribute.String("messaging.message_id", messageID),
		))
	defer span.End()

	msg := amqp.Publishing{
		Headers:      InjectTraceContext(ctx, nil),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := r.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (r *RabbitPublisher) Close() error {
	if r.ch != nil {
		return r.ch.Close()
	}

	return nil
}
