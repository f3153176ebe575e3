package repository

import (
	"context"
	"errors"
	"fmt"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	"MacroPull/pkg/cache"
)

// CacheModelStore keeps fitted models in a cache.Service (Redis or memory).
// Models never expire; a new fit under the same key replaces the old one.
type CacheModelStore struct {
	c cache.Service
}

func NewCacheModelStore(c cache.Service) *CacheModelStore {
	return &CacheModelStore{c: c}
}

func (s *CacheModelStore) SaveModel(ctx context.Context, key string, m models.RegressionModel) error {
	if err := s.c.Set(ctx, key, m, 0); err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	return nil
}

func (s *CacheModelStore) LoadModel(ctx context.Context, key string) (models.RegressionModel, error) {
	var m models.RegressionModel
	if err := s.c.Get(ctx, key, &m); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return m, fmt.Errorf("load model %s: %w", key, repository.ErrModelNotFound)
		}
		return m, fmt.Errorf("load model %s: %w", key, err)
	}
	return m, nil
}

var _ repository.ModelStore = (*CacheModelStore)(nil)
