package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"user_api/internal/observability"
	"user_api/internal/user"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	MaxRetries  = 3
	retryHeader = "x-retry-count"
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDrop
)

// Worker consumes user events from one queue and writes them to the audit
// trail.
type Worker struct {
	id        int
	queueName string
	repo      AuditRepositoryInterface
	metrics   *observability.Metrics
}

func NewWorker(id int, queueName string, repo AuditRepositoryInterface, metrics *observability.Metrics) *Worker {
	return &Worker{id: id, queueName: queueName, repo: repo, metrics: metrics}
}

func retryCount(headers amqp.Table) int32 {
	switch v := headers[retryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	case int16:
		return int32(v)
	default:
		return 0
	}
}

func republishWithRetry(ch *amqp.Channel, msg *amqp.Delivery, retryCount int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = retryCount

	return ch.PublishWithContext(
		ctx,
		"",             // exchange
		msg.RoutingKey, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
			Headers:      headers,
		},
	)
}

// process decides what happens to msg. It never touches the channel.
func (w *Worker) process(ctx context.Context, msg *amqp.Delivery) outcome {
	var event user.UserEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logrus.WithError(err).Errorf("Worker %d received invalid payload", w.id)
		w.failed("unknown", "invalid_payload")
		return outcomeDrop
	}

	retries := retryCount(msg.Headers)

	err := handleEvent(ctx, w.repo, &event, w.id)
	switch {
	case err == nil:
		return outcomeAck
	case permanent(err):
		logrus.WithError(err).Warnf("Worker %d dropping event %s", w.id, event.ID)
		w.failed(string(event.Type), "rejected")
		return outcomeDrop
	case retries >= MaxRetries:
		logrus.WithError(err).Errorf("Worker %d giving up on event %s after %d retries", w.id, event.ID, retries)
		w.failed(string(event.Type), "max_retries")
		return outcomeDrop
	default:
		logrus.WithError(err).Warnf("Worker %d failed to record event %s, requeuing (retry %d/%d)", w.id, event.ID, retries+1, MaxRetries)
		return outcomeRetry
	}
}

func (w *Worker) failed(eventType, reason string) {
	if w.metrics != nil {
		w.metrics.AuditEventsFailed.WithLabelValues(eventType, reason).Inc()
	}
}

// Start consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("worker %d: open channel: %w", w.id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d: set QoS: %w", w.id, err)
	}

	msgs, err := ch.Consume(
		w.queueName,
		fmt.Sprintf("audit-worker-%d", w.id),
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d: consume: %w", w.id, err)
	}

	logrus.Infof("Worker %d started", w.id)

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Worker %d stopping", w.id)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("worker %d: delivery channel closed", w.id)
			}
			w.deliver(ctx, ch, &msg)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, ch *amqp.Channel, msg *amqp.Delivery) {
	if w.metrics != nil {
		w.metrics.QueueMessagesConsumed.WithLabelValues(w.queueName).Inc()
	}

	switch w.process(ctx, msg) {
	case outcomeAck:
		msg.Ack(false)
	case outcomeDrop:
		msg.Nack(false, false)
	case outcomeRetry:
		if err := republishWithRetry(ch, msg, retryCount(msg.Headers)+1); err != nil {
			logrus.WithError(err).Error("Failed to republish message")
			w.failed("unknown", "republish_error")
			msg.Nack(false, true)
			return
		}
		if w.metrics != nil {
			w.metrics.QueueMessagesPublished.WithLabelValues(w.queueName).Inc()
		}
		msg.Ack(false)
	}
}
