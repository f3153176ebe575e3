package usecase

import (
	"context"
	"fmt"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/services/model"
	applogger "MacroPull/pkg/logger"
)

// Predictor scores fresh data with the stored model.
type Predictor struct {
	builder   *PipelineBuilder
	store     drepo.ModelStore
	pub       drepo.Publisher
	metrics   drepo.Metrics
	key       string
	threshold float64
	l         *applogger.Logger
}

func NewPredictor(builder *PipelineBuilder, store drepo.ModelStore, pub drepo.Publisher, metrics drepo.Metrics, key string, threshold float64) *Predictor {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Predictor{
		builder:   builder,
		store:     store,
		pub:       pub,
		metrics:   metrics,
		key:       key,
		threshold: threshold,
		l:         applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (p *Predictor) SetLogger(l *applogger.Logger) {
	if l != nil {
		p.l = l
	}
}

// Predict rebuilds the feature table and scores its most recent row.
func (p *Predictor) Predict(ctx context.Context, req BuildRequest) (models.Prediction, error) {
	m, err := p.store.LoadModel(ctx, p.key)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	table, _, err := p.builder.Features(ctx, req)
	if err != nil {
		return models.Prediction{}, err
	}
	latest, ok := table.Latest()
	if !ok {
		return models.Prediction{}, fmt.Errorf("predict: no feature rows for %s/%s", table.SeriesID, table.Symbol)
	}
	scores, err := model.ScoreRows(m, []models.FeatureRow{latest})
	if err != nil {
		p.metrics.RecordError("score")
		return models.Prediction{}, fmt.Errorf("predict: %w", err)
	}

	high, msg := model.Assess(scores[0], p.threshold)
	pred := models.Prediction{
		RunID:     table.RunID,
		SeriesID:  table.SeriesID,
		Symbol:    table.Symbol,
		Timestamp: latest.Timestamp,
		Value:     scores[0],
		Threshold: p.threshold,
		HighRisk:  high,
		Message:   msg,
	}
	p.metrics.RecordPrediction(pred.SeriesID, pred.Value)
	if p.pub != nil {
		if err := p.pub.PublishPrediction(ctx, pred); err != nil {
			p.metrics.RecordError("publish")
			return pred, fmt.Errorf("publish prediction: %w", err)
		}
	}
	p.l.Info("prediction scored",
		applogger.String("run_id", pred.RunID),
		applogger.String("series_id", pred.SeriesID),
		applogger.Time("date", pred.Timestamp),
		applogger.Float64("value", pred.Value),
		applogger.Bool("high_risk", pred.HighRisk),
	)
	return pred, nil
}

// Score applies the stored model to caller-supplied feature rows.
func (p *Predictor) Score(ctx context.Context, rows []map[string]float64) ([]float64, error) {
	m, err := p.store.LoadModel(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	out, err := model.Score(m, rows)
	if err != nil {
		p.metrics.RecordError("score")
		return nil, fmt.Errorf("score: %w", err)
	}
	return out, nil
}
