package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
fred:
  api_key: fred-key
stock:
  api_key: stock-key
`

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "GDPC1", c.Fred.SeriesID)
	assert.Equal(t, "https://api.stlouisfed.org", c.Fred.BaseURL)
	assert.Equal(t, "SPY", c.Stock.Symbol)
	assert.Equal(t, "full", c.Stock.OutputSize)
	assert.Equal(t, "monthly", c.Pipeline.Cadence)
	assert.Equal(t, 1, c.Pipeline.FillLimit)
	assert.Equal(t, []string{"Close"}, c.Pipeline.PriceColumns)
	assert.Equal(t, 0.2, c.Model.TestFraction)
	assert.Equal(t, int64(42), c.Model.Seed)
	assert.Equal(t, "random", c.Model.Split)
	assert.Equal(t, 18000.0, c.Model.CrisisThreshold)
	assert.Equal(t, "", c.Model.Store)
	assert.Equal(t, "data/models", c.Model.Dir)
	assert.Equal(t, "processed_data.csv", c.Export.CSVPath)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, "memory", c.Cache.Type)
	assert.Equal(t, "none", c.Storage.FeatureStore)
	assert.False(t, c.Pipeline.SnapLowFrequency)
}

func TestParseEnvOverrides(t *testing.T) {
	c, err := Parse([]byte(`
environment: test
kafka:
  enabled: true
`), envMap(map[string]string{
		"FRED_API_KEY":   "k1",
		"STOCK_API_KEY":  "k2",
		"FRED_SERIES_ID": "UNRATE",
		"STOCK_SYMBOL":   "QQQ",
		"KAFKA_BROKERS":  "a:9092,b:9092",
	}))
	require.NoError(t, err)
	assert.Equal(t, "k1", c.Fred.APIKey)
	assert.Equal(t, "k2", c.Stock.APIKey)
	assert.Equal(t, "UNRATE", c.Fred.SeriesID)
	assert.Equal(t, "QQQ", c.Stock.Symbol)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
}

func TestParseValidation(t *testing.T) {
	cases := map[string]string{
		"missing keys":  "environment: test\n",
		"bad cadence":   minimalYAML + "pipeline:\n  cadence: weekly\n",
		"bad split":     minimalYAML + "model:\n  split: kfold\n",
		"bad fraction":  minimalYAML + "model:\n  test_fraction: 1.5\n",
		"kafka brokers": minimalYAML + "kafka:\n  enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(cfgPath, []byte("environment: test\n"), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("FRED_API_KEY=from-dotenv\nSTOCK_API_KEY=stock-dotenv\n"), 0o600))

	t.Setenv("FRED_API_KEY", "")
	t.Setenv("STOCK_API_KEY", "")
	os.Unsetenv("FRED_API_KEY")
	os.Unsetenv("STOCK_API_KEY")

	c, err := LoadWithEnv(cfgPath, envPath, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.Fred.APIKey)
	assert.Equal(t, "stock-dotenv", c.Stock.APIKey)
}
