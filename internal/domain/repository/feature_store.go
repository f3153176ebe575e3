package repository

import (
	"context"
	"errors"

	"MacroPull/internal/domain/models"
)

var (
	ErrFeatureTableNotFound = errors.New("feature table not found")
	ErrModelNotFound        = errors.New("model not found")
)

// FeatureStore persists feature tables produced by pipeline runs.
type FeatureStore interface {
	SaveFeatureTable(ctx context.Context, t models.FeatureTable) error
	LatestFeatureTable(ctx context.Context, seriesID, symbol string) (models.FeatureTable, error)
}

// ModelStore persists fitted models by key.
type ModelStore interface {
	SaveModel(ctx context.Context, key string, m models.RegressionModel) error
	LoadModel(ctx context.Context, key string) (models.RegressionModel, error)
}

// Exporter writes a feature table to a flat artifact.
type Exporter interface {
	ExportFeatureTable(t models.FeatureTable) error
}
