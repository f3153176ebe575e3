package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/services/model"
	applogger "MacroPull/pkg/logger"
)

// ErrTrainingInProgress is returned when another fit holds the model key.
var ErrTrainingInProgress = errors.New("training already in progress")

// Locker serializes writers of one model key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// TrainResult is the outcome of one training run.
type TrainResult struct {
	Key    string                 `json:"key"`
	Model  models.RegressionModel `json:"model"`
	Report BuildReport            `json:"build"`
}

// Trainer builds features, fits the regression and stores it.
type Trainer struct {
	builder *PipelineBuilder
	store   drepo.ModelStore
	locker  Locker
	metrics drepo.Metrics
	key     string
	fit     model.FitOptions
	lockTTL time.Duration
	l       *applogger.Logger
}

func NewTrainer(builder *PipelineBuilder, store drepo.ModelStore, locker Locker, metrics drepo.Metrics, key string, fit model.FitOptions) *Trainer {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Trainer{
		builder: builder,
		store:   store,
		locker:  locker,
		metrics: metrics,
		key:     key,
		fit:     fit,
		lockTTL: 5 * time.Minute,
		l:       applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (t *Trainer) SetLogger(l *applogger.Logger) {
	if l != nil {
		t.l = l
	}
}

// Key is the store key models are written under.
func (t *Trainer) Key() string { return t.key }

// Train runs the pipeline with persistence, fits a model on its rows and
// saves it under the configured key.
func (t *Trainer) Train(ctx context.Context, req BuildRequest) (TrainResult, error) {
	res := TrainResult{Key: t.key}
	if t.locker != nil {
		lockKey := t.key + ":lock"
		ok, err := t.locker.TryLock(ctx, lockKey, t.lockTTL)
		if err != nil {
			return res, fmt.Errorf("train lock: %w", err)
		}
		if !ok {
			return res, ErrTrainingInProgress
		}
		defer func() {
			if err := t.locker.Unlock(context.Background(), lockKey); err != nil {
				t.l.Warn("train unlock failed", applogger.String("key", lockKey), applogger.Error(err))
			}
		}()
	}

	table, report, err := t.builder.Run(ctx, req)
	res.Report = report
	if err != nil {
		return res, err
	}

	start := time.Now()
	m, err := model.Fit(table.Rows, t.fit)
	t.metrics.RecordLatency("fit", time.Since(start).Seconds())
	if err != nil {
		t.metrics.RecordError("fit")
		return res, fmt.Errorf("train: %w", err)
	}
	if err := t.store.SaveModel(ctx, t.key, m); err != nil {
		t.metrics.RecordError("model_store")
		return res, fmt.Errorf("train: %w", err)
	}
	res.Model = m

	t.l.Info("model trained",
		applogger.String("run_id", report.RunID),
		applogger.String("key", t.key),
		applogger.Int("train_rows", m.Report.TrainRows),
		applogger.Int("test_rows", m.Report.TestRows),
		applogger.Float64("train_score", m.Report.TrainScore),
		applogger.Float64("test_score", m.Report.TestScore),
	)
	return res, nil
}
