package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	domrepo "MacroPull/internal/domain/repository"
	"MacroPull/pkg/cache"
)

func TestCacheModelStore(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	s := NewCacheModelStore(mc)
	ctx := context.Background()

	_, err := s.LoadModel(ctx, "model:x")
	assert.ErrorIs(t, err, domrepo.ErrModelNotFound)

	m := models.RegressionModel{
		Name:         "crisis_ols",
		Features:     models.FeatureColumns(),
		Intercept:    1.5,
		Coefficients: map[string]float64{models.ColTargetLag1: 0.9, models.ColDriverPctChange: 12},
		TrainedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Report:       models.FitReport{TrainScore: 0.9, TestScore: 0.8, TrainRows: 8, TestRows: 2, Split: "random", Seed: 42},
	}
	require.NoError(t, s.SaveModel(ctx, "model:x", m))

	got, err := s.LoadModel(ctx, "model:x")
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestFileModelStoreSurvivesNewInstance(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	ctx := context.Background()

	_, err := NewFileModelStore(dir).LoadModel(ctx, "model:crisis_ols")
	assert.ErrorIs(t, err, domrepo.ErrModelNotFound)

	m := models.RegressionModel{
		Name:         "crisis_ols",
		Features:     models.FeatureColumns(),
		Intercept:    -3.25,
		Coefficients: map[string]float64{models.ColTargetLag1: 1.01, models.ColDriverPctChange: 40},
		TrainedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Report:       models.FitReport{TrainScore: 0.95, TestScore: 0.7, TrainRows: 40, TestRows: 10, Split: "random", Seed: 42},
	}
	first := NewFileModelStore(dir)
	require.NoError(t, first.SaveModel(ctx, "model:crisis_ols", m))
	assert.FileExists(t, filepath.Join(dir, "model_crisis_ols.json"))
	assert.NoFileExists(t, filepath.Join(dir, "model_crisis_ols.json.tmp"))

	got, err := NewFileModelStore(dir).LoadModel(ctx, "model:crisis_ols")
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestFileModelStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileModelStore(dir)
	require.NoError(t, os.WriteFile(s.Path("m"), []byte("{"), 0o644))

	_, err := s.LoadModel(context.Background(), "m")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domrepo.ErrModelNotFound)
}
