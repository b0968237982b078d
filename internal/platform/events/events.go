package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

const (
	TypePlanGenerated   = "plan.generated"
	TypeCheckInRecorded = "checkin.recorded"
	TypeMetricRecorded  = "metric.recorded"
	TypeStateReset      = "state.reset"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, origin string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Origin:     origin,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

type noopPublisher struct{}

// Noop drops every event. Used when no brokers are configured.
func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher lazily manages one writer per topic. Events are keyed by
// origin so a single origin's events stay ordered within a partition.
type KafkaPublisher struct {
	log       *logger.Logger
	brokers   []string
	topic     string
	newWriter func(topic string) messageWriter

	mu      sync.Mutex
	writers map[string]messageWriter
}

func NewKafkaPublisher(log *logger.Logger, brokers []string, topic string) *KafkaPublisher {
	p := &KafkaPublisher{
		log:     log.With("service", "KafkaPublisher"),
		brokers: brokers,
		topic:   topic,
		writers: make(map[string]messageWriter),
	}
	p.newWriter = func(topic string) messageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.Origin),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writerFor(p.topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) writerFor(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

// BestEffort publishes evt and logs instead of returning the error. Domain
// state is already committed when events go out, so a broker outage must not
// fail the user action.
func BestEffort(ctx context.Context, log *logger.Logger, pub Publisher, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("event publish failed", "event_type", evt.Type, "error", err)
	}
}
