package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	applogger "MacroPull/pkg/logger"
)

// CSVExporter writes the processed feature table to a file.
type CSVExporter struct {
	path string
	l    *applogger.Logger
}

func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

// SetLogger injects a structured logger.
func (e *CSVExporter) SetLogger(l *applogger.Logger) { e.l = l }

// ExportFeatureTable replaces the file at the configured path. An empty path
// disables the export.
func (e *CSVExporter) ExportFeatureTable(t models.FeatureTable) error {
	if e.path == "" {
		return nil
	}
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	tmp := e.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteFeatureCSV(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	if e.l != nil {
		e.l.Info("feature table exported",
			applogger.String("path", e.path),
			applogger.String("run_id", t.RunID),
			applogger.Int("rows", len(t.Rows)),
		)
	}
	return nil
}

// WriteFeatureCSV encodes t with its header row. Floats use the shortest
// representation that round-trips.
func WriteFeatureCSV(w io.Writer, t models.FeatureTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, 0, 5+len(t.PassThrough))
	for i, r := range t.Rows {
		rec = rec[:0]
		rec = append(rec,
			r.Timestamp.Format("2006-01-02"),
			formatFloat(r.Target),
			formatFloat(r.TargetLag1),
			formatFloat(r.DriverClose),
			formatFloat(r.DriverPctChange),
		)
		for _, name := range t.PassThrough {
			rec = append(rec, passThroughCell(r.PassThrough, name))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func passThroughCell(vals []models.NamedValue, name string) string {
	for _, nv := range vals {
		if nv.Name == name {
			return formatFloat(nv.Value)
		}
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var _ repository.Exporter = (*CSVExporter)(nil)
