package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	domrepo "MacroPull/internal/domain/repository"
	pkgch "MacroPull/pkg/clickhouse"
	applogger "MacroPull/pkg/logger"
)

// CHFeatureStore implements FeatureStore backed by ClickHouse.
type CHFeatureStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHFeatureStore(ch *pkgch.Client, table string) *CHFeatureStore {
	return &CHFeatureStore{db: ch.DB(), table: ch.Table(table)}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) { s.l = l }

// SaveFeatureTable inserts every row of t in one batch.
func (s *CHFeatureStore) SaveFeatureTable(ctx context.Context, t models.FeatureTable) error {
	if len(t.Rows) == 0 {
		return nil
	}
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin feature batch: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (run_id, series_id, symbol, built_at, date, target, target_lag1, driver_close, driver_pct_change, pass_through)`, s.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare feature batch: %w", err)
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		pass, err := json.Marshal(passThroughOrEmpty(r.PassThrough))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode pass-through: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			t.RunID, t.SeriesID, t.Symbol, t.BuiltAt,
			r.Timestamp, r.Target, r.TargetLag1, r.DriverClose, r.DriverPctChange, string(pass),
		); err != nil {
			_ = tx.Rollback()
			if s.l != nil {
				s.l.Error("clickhouse save_features exec error",
					applogger.String("table", s.table),
					applogger.String("run_id", t.RunID),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert feature row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feature batch: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse save_features ok",
			applogger.String("table", s.table),
			applogger.String("run_id", t.RunID),
			applogger.Int("rows", len(t.Rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// LatestFeatureTable loads the most recently built table for a series/symbol pair.
func (s *CHFeatureStore) LatestFeatureTable(ctx context.Context, seriesID, symbol string) (models.FeatureTable, error) {
	out := models.FeatureTable{SeriesID: seriesID, Symbol: symbol}

	q := fmt.Sprintf(`
        SELECT run_id, built_at
        FROM %s
        WHERE series_id = ? AND symbol = ?
        ORDER BY built_at DESC
        LIMIT 1
    `, s.table)
	err := s.db.QueryRowContext(ctx, q, seriesID, symbol).Scan(&out.RunID, &out.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return out, domrepo.ErrFeatureTableNotFound
	}
	if err != nil {
		return out, fmt.Errorf("latest run: %w", err)
	}

	q = fmt.Sprintf(`
        SELECT date, target, target_lag1, driver_close, driver_pct_change, pass_through
        FROM %s
        WHERE run_id = ?
        ORDER BY date ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, out.RunID)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_features query error",
				applogger.String("table", s.table),
				applogger.String("run_id", out.RunID),
				applogger.Error(err),
			)
		}
		return out, fmt.Errorf("get feature rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r    models.FeatureRow
			pass string
		)
		if err := rows.Scan(&r.Timestamp, &r.Target, &r.TargetLag1, &r.DriverClose, &r.DriverPctChange, &pass); err != nil {
			return out, fmt.Errorf("scan feature row: %w", err)
		}
		if pass != "" {
			if err := json.Unmarshal([]byte(pass), &r.PassThrough); err != nil {
				return out, fmt.Errorf("decode pass-through: %w", err)
			}
		}
		if len(r.PassThrough) == 0 {
			r.PassThrough = nil
		}
		r.Timestamp = r.Timestamp.UTC()
		out.Rows = append(out.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("rows: %w", err)
	}
	if len(out.Rows) == 0 {
		return out, domrepo.ErrFeatureTableNotFound
	}
	for _, nv := range out.Rows[0].PassThrough {
		out.PassThrough = append(out.PassThrough, nv.Name)
	}
	out.BuiltAt = out.BuiltAt.UTC()
	return out, nil
}

func passThroughOrEmpty(v []models.NamedValue) []models.NamedValue {
	if v == nil {
		return []models.NamedValue{}
	}
	return v
}

var _ domrepo.FeatureStore = (*CHFeatureStore)(nil)
