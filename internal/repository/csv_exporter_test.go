package repository

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
)

func TestWriteFeatureCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFeatureCSV(&buf, sampleTable()))

	want := "date,target,target_lag1,driver_close,driver_pct_change,Open\n" +
		"2024-01-31,110,100,56,0.12,55\n" +
		"2024-02-29,120,110,60,0.07142857142857142,57\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVExporterIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "processed_data.csv")
	e := NewCSVExporter(path)

	require.NoError(t, e.ExportFeatureTable(sampleTable()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, e.ExportFeatureTable(sampleTable()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCSVExporterDisabled(t *testing.T) {
	assert.NoError(t, NewCSVExporter("").ExportFeatureTable(models.FeatureTable{}))
}
