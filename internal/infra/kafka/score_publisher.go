package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/IBM/sarama"
)

// ScoreEvent is the message published for every saved score.
type ScoreEvent struct {
	ScoreID        string    `json:"score_id"`
	SubmitterID    string    `json:"submitter_id"`
	DisplayName    string    `json:"display_name,omitempty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// ScorePublisher writes score events to a Kafka topic, keyed by submitter.
type ScorePublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewScorePublisher connects a synchronous producer to brokers.
func NewScorePublisher(brokers []string, topic string, logger *slog.Logger) (*ScorePublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return NewScorePublisherWithProducer(producer, topic, logger), nil
}

// NewScorePublisherWithProducer wraps an existing producer (tests use sarama mocks).
func NewScorePublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *ScorePublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScorePublisher{producer: producer, topic: topic, logger: logger}
}

func (p *ScorePublisher) ScoreSubmitted(ctx context.Context, record domain.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ScoreEvent{
		ScoreID:        record.ID,
		SubmitterID:    record.SubmitterID,
		DisplayName:    record.DisplayName,
		Score:          record.Score,
		TotalQuestions: record.TotalQuestions,
		SubmittedAt:    record.SubmittedAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling score event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(record.SubmitterID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("sending score event: %w", err)
	}
	p.logger.Debug("score event published", "topic", p.topic, "partition", partition, "offset", offset)
	return nil
}

// Close flushes and closes the producer.
func (p *ScorePublisher) Close() error {
	return p.producer.Close()
}
