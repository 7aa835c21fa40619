package mq

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handle func(ctx context.Context, body []byte) error

type Consumer interface {
	Consume(ctx context.Context, prefetch int, queue string, handler Handle) error
}

type RabbitConsumer struct {
	ch *amqp.Channel
}

func NewRabbitConsumer(ch *amqp.Channel) Consumer {
	return &RabbitConsumer{ch: ch}
}

func (c *RabbitConsumer) Consume(ctx context.Context, prefetch int, queue string, handler Handle) error {
	if prefetch <= 0 {
		prefetch = 1
	}

	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = c.ch.Cancel("", false)
			time.Sleep(50 * time.Millisecond)
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			if err := handle(ctx, queue, d, handler); err != nil {
				// without requeue the broker routes the delivery to the dead letter queue
				_ = d.Nack(false, ShouldRequeue(err))
				continue
			}

			_ = d.Ack(false)
		}
	}
}

// handle runs one delivery inside a consumer span linked to the publisher.
func handle(ctx context.Context, queue string, d amqp.Delivery, handler Handle) error {
	ctx = ExtractTraceContext(ctx, d.Headers)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "consume "+queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.source", queue),
			attribute.String("messaging.message_id", d.MessageId),
			attribute.Bool("messaging.redelivered", d.Redelivered),
		))
	defer span.End()

	err := handler(ctx, d.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("messaging.requeue", ShouldRequeue(err)))
	}

	return err
}

func ShouldRequeue(err error) bool {
	var te TempError
	return errors.As(err, &te) && te.Temporary()
}
