package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/medtracker/config"
	"github.com/oksasatya/medtracker/pkg/helpers"
	"github.com/oksasatya/medtracker/pkg/mailer"
)

// outcome is what to do with a delivery once it has been handled.
type outcome int

const (
	ack     outcome = iota
	drop            // nack without requeue
	requeue         // nack with requeue
)

// process decodes and sends one queued email. Malformed or unrenderable jobs
// are dropped; send failures are requeued.
func process(ctx context.Context, s mailer.Sender, body []byte, logger *logrus.Logger) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.WithError(err).Warn("bad message")
		return drop
	}
	job.Normalize()

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	err := mailer.Deliver(c, s, job)
	switch {
	case err == nil:
		logger.WithField("template", job.Template).Debug("email sent")
		return ack
	case errors.Is(err, mailer.ErrRender):
		helpers.LogError(logger, "email dropped", err, logrus.Fields{"template": job.Template})
		return drop
	default:
		helpers.LogError(logger, "send failed", err, logrus.Fields{"template": job.Template})
		return requeue
	}
}

func settle(d amqp.Delivery, o outcome) {
	switch o {
	case ack:
		_ = d.Ack(false)
	case drop:
		_ = d.Nack(false, false)
	default:
		_ = d.Nack(false, true)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("amqp connect")
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries(cfg.AppName + "-email-worker")
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunAPIBase)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			settle(msg, process(ctx, mg, msg.Body, logger))
		}
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	select {
	case <-stop:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("shutting down")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
