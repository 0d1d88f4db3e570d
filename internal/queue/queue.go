package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicEngagement is the queue engagement events travel on, from webhook
// handlers to the engagement service.
const TopicEngagement = "engagement_events"

// Queue decouples webhook ingestion from interaction recording. Payloads are
// JSON-encoded on publish and arrive at handlers as raw bytes, so the
// in-memory and AMQP implementations are interchangeable.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload []byte) error) error
}

// InMemoryQueue fans published payloads out to subscribers on background
// goroutines with a bounded retry. It serves single-process deployments;
// multi-process setups use AMQPQueue instead.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload []byte) error
	log      *zap.SugaredLogger
}

func NewInMemoryQueue(log *zap.SugaredLogger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload []byte) error),
		log:      log,
	}
}

// job wraps a message body with retry info
type job struct {
	Body       []byte
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", topic, err)
	}

	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	j := job{Body: body, RetryCount: 0, MaxRetries: 3}
	for _, handler := range handlers {
		go q.processJob(topic, handler, j)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler func(payload []byte) error, j job) {
	for j.RetryCount <= j.MaxRetries {
		err := handler(j.Body)
		if err == nil {
			return // ACK
		}

		j.RetryCount++
		if j.RetryCount > j.MaxRetries {
			q.log.Errorw("queue job permanently failed",
				"topic", topic, "attempts", j.MaxRetries, "error", err)
			return // no requeue
		}
		q.log.Warnw("queue job failed, retrying",
			"topic", topic, "attempt", j.RetryCount, "max_retries", j.MaxRetries, "error", err)

		// linear backoff before retry
		time.Sleep(time.Duration(j.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
