package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/footyodds/stats-api/internal/logic"
	"github.com/footyodds/stats-api/internal/models"
)

// FeedbackApplier is the slice of the prediction engine the consumer needs.
type FeedbackApplier interface {
	ApplyFeedback(ctx context.Context, fb models.PredictionFeedback) (models.EnsembleWeights, error)
}

// ReconnectConfig controls the backoff used after the broker drops the
// connection. MaxRetries of 0 retries forever.
type ReconnectConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
	}
}

// FeedbackConsumerConfig configures the AMQP feedback consumer
type FeedbackConsumerConfig struct {
	URL           string
	Queue         string
	Prefetch      int
	HandleTimeout time.Duration
	Reconnect     ReconnectConfig
	Applier       FeedbackApplier
	Logger        *zap.Logger
}

// FeedbackConsumer reads PredictionFeedback messages from a durable queue and
// applies them to the ensemble weights. Messages are acked after they are
// applied; malformed messages are rejected without requeue.
type FeedbackConsumer struct {
	config    FeedbackConsumerConfig
	applier   FeedbackApplier
	validator *validator.Validate
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFeedbackConsumer(cfg FeedbackConsumerConfig) *FeedbackConsumer {
	if cfg.Queue == "" {
		cfg.Queue = "prediction_feedback"
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 50
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 5 * time.Second
	}
	if cfg.Reconnect.InitialDelay <= 0 {
		cfg.Reconnect = DefaultReconnectConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &FeedbackConsumer{
		config:    cfg,
		applier:   cfg.Applier,
		validator: validator.New(),
		logger:    cfg.Logger.Sugar(),
	}
}

// Start connects to the broker and begins consuming in the background. The
// initial connection failure is returned; later drops are retried.
func (c *FeedbackConsumer) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.connectAndConsume()
	if err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	c.wg.Add(1)
	go c.run(msgs)

	c.logger.Infow("Feedback consumer started", "queue", c.config.Queue, "prefetch", c.config.Prefetch)
	return nil
}

// Stop closes the channel and connection and waits for in-flight messages.
func (c *FeedbackConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConn()
	c.wg.Wait()
	c.logger.Info("Feedback consumer stopped")
}

func (c *FeedbackConsumer) connectAndConsume() (<-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := channel.Qos(c.config.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	if _, err := channel.QueueDeclare(
		c.config.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := channel.Consume(
		c.config.Queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil && c.ctx.Err() != nil {
		conn.Close()
		return nil, c.ctx.Err()
	}
	c.conn, c.channel = conn, channel
	return msgs, nil
}

func (c *FeedbackConsumer) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// run drains deliveries and reconnects with exponential backoff whenever the
// delivery channel closes before shutdown.
func (c *FeedbackConsumer) run(msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		c.consume(msgs)

		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn("Feedback delivery channel closed, reconnecting")

		next, ok := c.reconnect()
		if !ok {
			return
		}
		msgs = next
	}
}

func (c *FeedbackConsumer) consume(msgs <-chan amqp.Delivery) {
	for d := range msgs {
		c.handleDelivery(d)
	}
}

func (c *FeedbackConsumer) reconnect() (<-chan amqp.Delivery, bool) {
	cfg := c.config.Reconnect
	delay := cfg.InitialDelay

	for attempt := 1; cfg.MaxRetries == 0 || attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-c.ctx.Done():
			return nil, false
		case <-time.After(delay):
		}

		c.closeConn()
		msgs, err := c.connectAndConsume()
		if err == nil {
			c.logger.Infow("Feedback consumer reconnected", "attempt", attempt)
			return msgs, true
		}
		c.logger.Errorw("Feedback consumer reconnect failed", "attempt", attempt, "error", err)

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	c.logger.Errorw("Feedback consumer giving up", "retries", cfg.MaxRetries)
	return nil, false
}

// errPermanent marks messages that will never succeed on redelivery.
var errPermanent = errors.New("permanent feedback failure")

func (c *FeedbackConsumer) handleDelivery(d amqp.Delivery) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.HandleTimeout)
	defer cancel()

	err := c.handle(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Warnw("Failed to ack feedback", "error", ackErr)
		}
	case errors.Is(err, errPermanent):
		c.logger.Warnw("Rejecting feedback message", "error", err, "messageId", d.MessageId)
		if rejErr := d.Reject(false); rejErr != nil {
			c.logger.Warnw("Failed to reject feedback", "error", rejErr)
		}
	default:
		c.logger.Errorw("Feedback not applied, requeueing", "error", err, "messageId", d.MessageId)
		if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
			c.logger.Warnw("Failed to nack feedback", "error", nackErr)
		}
	}
}

func (c *FeedbackConsumer) handle(ctx context.Context, body []byte) error {
	var fb models.PredictionFeedback
	if err := json.Unmarshal(body, &fb); err != nil {
		return fmt.Errorf("%w: decode: %v", errPermanent, err)
	}
	if err := c.validator.Struct(fb); err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	weights, err := c.applier.ApplyFeedback(ctx, fb)
	if err != nil {
		if logic.IsValidation(err) {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		return err
	}

	c.logger.Infow("Applied model feedback",
		"predictionId", fb.PredictionID,
		"models", len(fb.ModelAccuracy),
		"weights", weights,
	)
	return nil
}
