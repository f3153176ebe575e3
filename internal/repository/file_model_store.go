package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	applogger "MacroPull/pkg/logger"
)

// FileModelStore keeps one JSON file per model key under dir.
type FileModelStore struct {
	dir string
	l   *applogger.Logger
}

func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

// SetLogger injects a structured logger.
func (s *FileModelStore) SetLogger(l *applogger.Logger) { s.l = l }

// Path returns the file a key is stored in.
func (s *FileModelStore) Path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}

func (s *FileModelStore) SaveModel(ctx context.Context, key string, m models.RegressionModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model %s: %w", key, err)
	}
	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save model %s: %w", key, err)
	}
	if s.l != nil {
		s.l.Info("model saved", applogger.String("key", key), applogger.String("path", path))
	}
	return nil
}

func (s *FileModelStore) LoadModel(ctx context.Context, key string) (models.RegressionModel, error) {
	var m models.RegressionModel
	if err := ctx.Err(); err != nil {
		return m, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, fmt.Errorf("load model %s: %w", key, repository.ErrModelNotFound)
		}
		return m, fmt.Errorf("load model %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode model %s: %w", key, err)
	}
	return m, nil
}

var _ repository.ModelStore = (*FileModelStore)(nil)
