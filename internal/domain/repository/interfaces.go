package repository

import (
	"context"

	"MacroPull/internal/domain/models"
)

// Publisher emits pipeline results to downstream consumers.
type Publisher interface {
	PublishFeatureTable(ctx context.Context, t models.FeatureTable) error
	PublishPrediction(ctx context.Context, p models.Prediction) error
	Close() error
}

type Metrics interface {
	RecordStage(stage string, rowsIn, rowsOut int)
	RecordSkipped(stage string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordPrediction(seriesID string, value float64)
}
