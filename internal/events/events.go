package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	TypeInscriptionCompleted  = "inscription.completed"
	TypeInscriptionDeleted    = "inscription.deleted"
	TypeTransactionAuthorized = "transaction.authorized"
	TypeTransactionCaptured   = "transaction.captured"
	TypeTransactionRefunded   = "transaction.refunded"
	TypeTransactionReconciled = "transaction.reconciled"
	TypeTransactionRecovered  = "transaction.recovered"
)

type Config struct {
	Enable       bool          `mapstructure:"enable"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Event never carries tokens or card numbers beyond their masked form.
type Event struct {
	Type           string    `json:"type"`
	Username       string    `json:"username,omitempty"`
	ParentBuyOrder string    `json:"parent_buy_order,omitempty"`
	CommerceCode   string    `json:"commerce_code,omitempty"`
	BuyOrder       string    `json:"buy_order,omitempty"`
	Amount         int64     `json:"amount,omitempty"`
	Status         string    `json:"status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e Event) key() string {
	if e.ParentBuyOrder != "" {
		return e.ParentBuyOrder
	}
	return e.Username
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

const (
	defaultBatchTimeout = 10 * time.Millisecond
	defaultWriteTimeout = 5 * time.Second
)

type kafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaPublisher(cfg Config) Publisher {
	writer := newWriter(cfg)
	return &kafkaPublisher{writer: writer, timeout: writer.WriteTimeout}
}

// newWriter builds a synchronous writer. Every Publish is a single message,
// so the batch wait is kept short to stay off the request latency.
func newWriter(cfg Config) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
	}
}

// Publish outlives the caller's cancellation: the movement already happened,
// so a client disconnect must not drop its event.
func (k *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.key()),
		Value:   msg,
		Headers: headers(ctx, event),
		Time:    event.OccurredAt,
	})
}

// headers carry the event type and the trace context of the request that
// produced the event.
func headers(ctx context.Context, event Event) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	out := make([]kafka.Header, 0, len(carrier)+1)
	out = append(out, kafka.Header{Key: "event_type", Value: []byte(event.Type)})
	for k, v := range carrier {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}

	return out
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }
