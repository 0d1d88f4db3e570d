package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const maxDeliveries = 3

// AMQPQueue carries engagement events through RabbitMQ so webhook ingestion
// and interaction recording can run in separate processes. Queues are
// durable and messages persistent; a broker restart loses nothing.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.SugaredLogger
}

func DialAMQP(url string, log *zap.SugaredLogger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, log: log}, nil
}

func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Publish sends one persistent message to the topic's queue.
func (q *AMQPQueue) Publish(topic string, payload any) error {
	if _, err := q.declare(topic); err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", topic, err)
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
}

// Subscribe consumes the topic's queue on a background goroutine. Handler
// errors re-publish the message with an incremented x-retry-count header,
// acking the original either way; after maxDeliveries the message is dropped
// with a logged error. Explicit re-publish, rather than a broker requeue,
// is what makes the retry count actually advance.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload []byte) error) error {
	qd, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	msgs, err := q.ch.Consume(
		qd.Name,
		"",
		false, // autoAck off for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer for %s: %w", topic, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				q.redeliver(topic, d, err)
				continue
			}
			d.Ack(false)
		}
	}()
	return nil
}

func (q *AMQPQueue) redeliver(topic string, d amqp.Delivery, cause error) {
	retries := headerInt(d.Headers, "x-retry-count")
	if retries+1 >= maxDeliveries {
		q.log.Errorw("dropping message after repeated failures",
			"topic", topic, "deliveries", retries+1, "error", cause)
		d.Ack(false)
		return
	}
	err := q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         d.Body,
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-retry-count": int32(retries + 1)},
	})
	if err != nil {
		q.log.Errorw("failed to requeue message, nacking instead",
			"topic", topic, "error", err)
		d.Nack(false, true)
		return
	}
	q.log.Warnw("message failed, requeued",
		"topic", topic, "attempt", retries+1, "error", cause)
	d.Ack(false)
}

// headerInt reads an AMQP header that may arrive as any integer width.
func headerInt(h amqp.Table, key string) int {
	switch v := h[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

var _ Queue = (*AMQPQueue)(nil)
