package producer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("event producer is closed")

// IEventProducer 對外發佈領域事件
// 通知派送由訂閱方自理，本引擎只負責發佈
type IEventProducer interface {
	Publish(ctx context.Context, key string, evt event.Event) error
	Close() error
}

// kafkaEventProducer implements the IEventProducer interface
type kafkaEventProducer struct {
	writer *kafka.Writer
	closed atomic.Bool
}

type Config struct {
	Brokers []string
	Topic   string
}

// New creates a new kafka event producer
func New(cfg Config) *kafkaEventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		MaxAttempts:  3,
		WriteTimeout: 5 * time.Second,
		Compression:  kafka.Snappy,
	}

	return &kafkaEventProducer{writer: writer}
}

// Publish 同步發送，會block到訊息寫入為止
func (p *kafkaEventProducer) Publish(ctx context.Context, key string, evt event.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   "event_type",
				Value: []byte(evt.Type()),
			},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *kafkaEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

var _ IEventProducer = (*kafkaEventProducer)(nil)
