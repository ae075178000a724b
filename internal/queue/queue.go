// Package queue wraps the RabbitMQ connection and the indexing queue
// topology: a work queue, a retry queue that dead-letters messages back
// after a delay, and a terminal dead-letter queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"videorag/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// IndexQueue carries indexing job requests.
	IndexQueue = "index_queue"

	// retryDelayMs is how long a failed message parks in the retry queue
	// before being dead-lettered back onto the work queue.
	retryDelayMs = 10000

	// MaxRetries is the number of redeliveries before a message goes to
	// the dead-letter queue for good.
	MaxRetries = 10
)

// IndexMessage is the payload of one indexing job request.
type IndexMessage struct {
	JobID     string `json:"job_id"`
	VideoID   string `json:"video_id"`
	VideoPath string `json:"video_path"`
}

// Init connects to RabbitMQ using the RABBITMQ_USER, RABBITMQ_PASSWORD,
// RABBITMQ_HOST and RABBITMQ_PORT environment variables and returns an open
// channel.
func Init() (*amqp.Connection, *amqp.Channel, error) {
	user := util.GetEnvString("RABBITMQ_USER", "guest")
	password := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
	host := util.GetEnvString("RABBITMQ_HOST", "localhost")
	port := int(util.GetEnvNumeric("RABBITMQ_PORT", 5672))

	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return conn, channel, nil
}

// SetupQueues declares the work queue plus its retry and dead-letter
// companions. Declaration is idempotent; server and worker both call it.
func SetupQueues(channel *amqp.Channel, queueName string) error {
	_, err := channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	_, err = channel.QueueDeclare(queueName+"_dlq", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}

	_, err = channel.QueueDeclare(queueName+"_retry", true, false, false, false, amqp.Table{
		"x-message-ttl":             int32(retryDelayMs),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queueName,
	})
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

// PublishIndexJob enqueues one indexing job.
func PublishIndexJob(ctx context.Context, channel *amqp.Channel, msg IndexMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal index message: %w", err)
	}

	err = channel.PublishWithContext(ctx, "", IndexQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish index message: %w", err)
	}
	return nil
}

// RetryCount reads the x-retries header from a delivery.
func RetryCount(delivery amqp.Delivery) int {
	if delivery.Headers == nil {
		return 0
	}
	switch v := delivery.Headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// Requeue parks a failed delivery in the retry queue with an incremented
// retry counter, or moves it to the dead-letter queue once MaxRetries is
// reached.
func Requeue(ctx context.Context, channel *amqp.Channel, queueName string, delivery amqp.Delivery) error {
	retries := RetryCount(delivery) + 1

	target := queueName + "_retry"
	if retries > MaxRetries {
		target = queueName + "_dlq"
	}

	err := channel.PublishWithContext(ctx, "", target, false, false, amqp.Publishing{
		ContentType:  delivery.ContentType,
		DeliveryMode: amqp.Persistent,
		Body:         delivery.Body,
		Headers:      amqp.Table{"x-retries": int32(retries)},
	})
	if err != nil {
		return fmt.Errorf("failed to republish to %s: %w", target, err)
	}
	return nil
}
