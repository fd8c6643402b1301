package publisher

import (
	"context"
	"time"

	"github.com/learningneeds/shop/internal/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultBatchSize = 100
	defaultTick      = time.Second
)

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays order events written alongside orders to Kafka. Rows are
// marked processed only after the broker accepted them, so delivery is at least
// once and consumers must tolerate duplicates.
type OutboxPoller struct {
	repo      repository.OutboxRepository
	writer    MessageWriter
	logger    *zap.Logger
	tick      time.Duration
	batchSize int
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOutboxPoller(repo repository.OutboxRepository, writer MessageWriter, logger *zap.Logger) *OutboxPoller {
	return &OutboxPoller{
		repo:      repo,
		writer:    writer,
		logger:    logger,
		tick:      defaultTick,
		batchSize: defaultBatchSize,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	p.logger.Info("outbox poller started", zap.Duration("tick", p.tick), zap.Int("batch_size", p.batchSize))
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		}
	}
}

// processUnpublishedEvents publishes one batch and returns how many rows were
// marked processed.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.writer.WriteMessages(ctx, toMessage(event)); err != nil {
			p.logger.Warn("failed to publish outbox event",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			// keep per-aggregate ordering: later events wait for the next tick
			return published
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark outbox event processed",
				zap.String("event_id", event.ID), zap.Error(err))
			return published
		}
		published++
	}

	if published > 0 {
		p.logger.Debug("outbox events published", zap.Int("count", published))
	}
	return published
}

func toMessage(event *repository.OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(event.AggregateId),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
		Time: event.CreatedAt,
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}
