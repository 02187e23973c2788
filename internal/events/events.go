// Package events publishes dashboard activity (logins, generated
// suggestions, AI requests) to Kafka for downstream analytics.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeLoginSucceeded      = "login.succeeded"
	TypeSuggestionGenerated = "suggestion.generated"
	TypeInsightRequested    = "insight.requested"
)

// DefaultTopic receives every event type.
const DefaultTopic = "lodboard.events"

// Event is one published record.
type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	UserSn  string         `json:"user_sn,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Config selects the Kafka cluster. No brokers means events are dropped.
type Config struct {
	Brokers []string
	Topic   string
}

// ConfigFromEnv reads LODBOARD_KAFKA_BROKERS (comma separated) and
// LODBOARD_KAFKA_TOPIC.
func ConfigFromEnv() Config {
	cfg := Config{Topic: DefaultTopic}
	for _, b := range strings.Split(os.Getenv("LODBOARD_KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	if t := strings.TrimSpace(os.Getenv("LODBOARD_KAFKA_TOPIC")); t != "" {
		cfg.Topic = t
	}
	return cfg
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// New returns a queued Kafka publisher, or Nop when no brokers are
// configured. Delivery happens off the caller's goroutine.
func New(cfg Config, logger zerolog.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchSize:              1,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           deliveryTimeout,
		MaxAttempts:            3,
	}
	return NewQueued(newKafkaPublisher(w, time.Now), DefaultQueueSize, logger), nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by user so one user's events
// stay ordered within a partition.
type KafkaPublisher struct {
	w   messageWriter
	now func() time.Time
}

func newKafkaPublisher(w messageWriter, now func() time.Time) *KafkaPublisher {
	return &KafkaPublisher{w: w, now: now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.UserSn),
		Value: value,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// DefaultQueueSize bounds the events waiting for delivery.
const DefaultQueueSize = 256

const deliveryTimeout = 10 * time.Second

// ErrQueueFull is returned when the delivery queue has no room.
var ErrQueueFull = errors.New("event queue full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event publisher closed")

// Queued hands events to a background goroutine that delivers them through
// the inner publisher. Publish never waits on the network.
type Queued struct {
	inner  Publisher
	logger zerolog.Logger
	queue  chan Event
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewQueued starts the delivery loop for inner.
func NewQueued(inner Publisher, size int, logger zerolog.Logger) *Queued {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queued{
		inner:  inner,
		logger: logger.With().Str("component", "events").Logger(),
		queue:  make(chan Event, size),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Publish enqueues ev. A full queue drops the event with ErrQueueFull.
func (q *Queued) Publish(_ context.Context, ev Event) error {
	select {
	case <-q.stop:
		return ErrClosed
	default:
	}
	select {
	case q.queue <- ev:
		return nil
	default:
		return fmt.Errorf("drop event %s: %w", ev.Type, ErrQueueFull)
	}
}

func (q *Queued) run() {
	defer close(q.done)
	for {
		select {
		case ev := <-q.queue:
			q.deliver(ev)
		case <-q.stop:
			for {
				select {
				case ev := <-q.queue:
					q.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (q *Queued) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := q.inner.Publish(ctx, ev); err != nil {
		q.logger.Warn().Err(err).Str("type", ev.Type).Str("user_sn", ev.UserSn).Msg("event delivery failed")
	}
}

// Close drains queued events, then closes the inner publisher.
func (q *Queued) Close() error {
	q.once.Do(func() { close(q.stop) })
	<-q.done
	return q.inner.Close()
}

// BestEffort wraps a Publisher so failures are logged and swallowed.
type BestEffort struct {
	inner  Publisher
	logger zerolog.Logger
}

// WithLogging wraps p so Publish never returns an error.
func WithLogging(p Publisher, logger zerolog.Logger) *BestEffort {
	return &BestEffort{inner: p, logger: logger.With().Str("component", "events").Logger()}
}

func (b *BestEffort) Publish(ctx context.Context, ev Event) error {
	if err := b.inner.Publish(ctx, ev); err != nil {
		b.logger.Warn().Err(err).Str("type", ev.Type).Str("user_sn", ev.UserSn).Msg("event not published")
	}
	return nil
}

func (b *BestEffort) Close() error {
	return b.inner.Close()
}
