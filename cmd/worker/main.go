package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"videorag/internal/app"
	"videorag/internal/queue"
	"videorag/internal/util"
	"videorag/pkg/logger"
	"videorag/pkg/logger/console"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resources, err := app.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load resources", "error", err)
	}
	defer resources.Close()

	conn, channel, err := queue.Init()
	if err != nil {
		logger.Fatal("Failed to connect to queue", "error", err)
	}
	defer conn.Close()
	defer channel.Close()

	if err := queue.SetupQueues(channel, queue.IndexQueue); err != nil {
		logger.Fatal("Failed to declare queues", "error", err)
	}

	// One unacked message at a time; indexing a video saturates the host.
	if err := channel.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set prefetch", "error", err)
	}

	deliveries, err := channel.Consume(queue.IndexQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("Failed to start consuming", "error", err)
	}

	logger.Info("Worker ready", "queue", queue.IndexQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker shutting down")
			return
		case delivery, ok := <-deliveries:
			if !ok {
				logger.Fatal("Delivery channel closed")
			}
			handleDelivery(ctx, resources, channel, delivery)
		}
	}
}

func handleDelivery(ctx context.Context, resources *app.Resources, channel *amqp.Channel, delivery amqp.Delivery) {
	var msg queue.IndexMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		logger.Error("Malformed index message, discarding", "error", err)
		_ = delivery.Ack(false)
		return
	}

	logger.Info("Processing indexing job",
		"job", msg.JobID, "video", msg.VideoID, "attempt", queue.RetryCount(delivery)+1)

	resources.AI.ResetMetrics()
	err := resources.Pipeline.RunForVideo(ctx, msg.JobID, msg.VideoID, msg.VideoPath)
	metrics := resources.AI.GetMetrics()
	logger.Info("Job model usage",
		"job", msg.JobID,
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"duration_ms", metrics.DurationMs,
	)

	if err != nil {
		if ctx.Err() != nil {
			// Shutting down: leave the message unacked for redelivery.
			_ = delivery.Nack(false, true)
			return
		}
		logger.Error("Indexing job failed", "job", msg.JobID, "error", err)
		if err := queue.Requeue(ctx, channel, queue.IndexQueue, delivery); err != nil {
			logger.Error("Failed to requeue job", "job", msg.JobID, "error", err)
			_ = delivery.Nack(false, true)
			return
		}
		_ = delivery.Ack(false)
		return
	}

	logger.Info("Indexing job completed", "job", msg.JobID, "video", msg.VideoID)
	_ = delivery.Ack(false)
}
