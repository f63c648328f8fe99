// Command weekum-listener consumes ledger events from RabbitMQ and keeps a
// running picture of every budget's balance in its log.
package main

import (
	"context"
	"errors"
	"os"

	"weekum/internal/amqp"
	"weekum/internal/cli"
	"weekum/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger("info", os.Stdout), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout).WithComponent(log.ComponentAMQP)

	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "AMQP_URL is required", errors.New("no broker configured"))
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	logger.Info("Starting weekum-listener",
		log.FieldOperation, log.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	m := newMirror(logger)
	if err := client.Consume(ctx, m.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}
	logger.Info("Listener stopped", log.FieldOperation, log.OpShutdown, log.FieldCount, m.Seen())
}
