package repository

import (
	"context"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	pkgkafka "MacroPull/pkg/kafka"
)

// Producer is the subset of *pkgkafka.Producer the publisher needs.
type Producer interface {
	PublishWithHeaders(ctx context.Context, topic string, key []byte, value interface{}, headers map[string]string) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// FeatureRowEvent is the wire form of one feature row.
type FeatureRowEvent struct {
	RunID    string            `json:"run_id"`
	SeriesID string            `json:"series_id"`
	Symbol   string            `json:"symbol"`
	BuiltAt  time.Time         `json:"built_at"`
	Row      models.FeatureRow `json:"row"`
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer         Producer
	featuresTopic    string
	predictionsTopic string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer Producer, featuresTopic, predictionsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, featuresTopic: featuresTopic, predictionsTopic: predictionsTopic}
}

// PublishFeatureTable sends one message per row, keyed by series and symbol so
// a run stays ordered within its partition.
func (p *KafkaPublisher) PublishFeatureTable(ctx context.Context, t models.FeatureTable) error {
	if len(t.Rows) == 0 {
		return nil
	}
	key := []byte(t.SeriesID + ":" + t.Symbol)
	headers := map[string]string{pkgkafka.HeaderRunID: t.RunID}
	msgs := make([]pkgkafka.Message, len(t.Rows))
	for i, r := range t.Rows {
		msgs[i] = pkgkafka.Message{
			Key:     key,
			Headers: headers,
			Value: FeatureRowEvent{
				RunID:    t.RunID,
				SeriesID: t.SeriesID,
				Symbol:   t.Symbol,
				BuiltAt:  t.BuiltAt,
				Row:      r,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.featuresTopic, msgs)
}

func (p *KafkaPublisher) PublishPrediction(ctx context.Context, pr models.Prediction) error {
	return p.producer.PublishWithHeaders(ctx, p.predictionsTopic, []byte(pr.SeriesID), pr,
		map[string]string{pkgkafka.HeaderRunID: pr.RunID})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishFeatureTable(context.Context, models.FeatureTable) error { return nil }
func (NoopPublisher) PublishPrediction(context.Context, models.Prediction) error     { return nil }
func (NoopPublisher) Close() error                                                   { return nil }

var (
	_ repository.Publisher = (*KafkaPublisher)(nil)
	_ repository.Publisher = NoopPublisher{}
	_ Producer             = (*pkgkafka.Producer)(nil)
)
