// Package kafka appends domain events to a Kafka topic for downstream consumers.
// Messages are keyed by the event key (the ShopOrder id for ShopOrder events), so all
// events of one ShopOrder land on one partition in publish order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/events"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	writeTimeout = 10 * time.Second

	// DefaultQueueSize is the number of batches that may wait for the writer.
	DefaultQueueSize = 1024
)

// ErrQueueFull is returned when the writer has fallen too far behind; the batch is dropped.
var ErrQueueFull = errors.New("kafka publish queue is full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("kafka publisher is closed")

// MessageWriter is the part of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher queues batches and writes them from a single goroutine, so Publish never
// waits on the broker and batches reach Kafka in the order they were published.
type Publisher struct {
	writer MessageWriter
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan []kafkago.Message
	done   chan struct{}
}

// NewWriter builds a synchronous writer hashing message keys to partitions. brokers is a
// comma separated host:port list.
func NewWriter(brokers, topic string) *kafkago.Writer {
	var addrs []string
	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			addrs = append(addrs, broker)
		}
	}
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher starts the writer goroutine. Close stops it.
func NewPublisher(writer MessageWriter, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		writer: writer,
		logger: logger.With("component", "KafkaPublisher"),
		queue:  make(chan []kafkago.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish encodes the batch and queues it. Write failures are logged by the writer
// goroutine; Publish only fails on encoding, a full queue or a closed publisher.
func (p *Publisher) Publish(ctx context.Context, evts ...events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(evts))
	for _, e := range evts {
		msg, err := toMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- msgs:
		return nil
	default:
		p.logger.WarnContext(ctx, "dropping events, writer is behind", "count", len(msgs), "key", evts[0].Key())
		return ErrQueueFull
	}
}

// Close writes what is already queued, then closes the writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}

func (p *Publisher) run() {
	defer close(p.done)
	for msgs := range p.queue {
		p.write(msgs)
	}
}

func (p *Publisher) write(msgs []kafkago.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.ErrorContext(ctx, "write events", "count", len(msgs), "key", string(msgs[0].Key), "error", err)
		return
	}
	p.logger.DebugContext(ctx, "events written", "count", len(msgs), "key", string(msgs[0].Key))
}

func toMessage(e events.Event) (kafkago.Message, error) {
	envelope, err := events.NewEnvelope(e)
	if err != nil {
		return kafkago.Message{}, err
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode %s envelope: %w", e.Kind(), err)
	}
	return kafkago.Message{
		Key:     []byte(e.Key()),
		Value:   value,
		Time:    e.OccurredAt(),
		Headers: []kafkago.Header{{Key: "type", Value: []byte(e.Kind())}},
	}, nil
}
