package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string         `yaml:"environment" default:"development" validate:"required"`
	Log         LogConfig      `yaml:"log"`
	Server      ServerConfig   `yaml:"server"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Fred        FredConfig     `yaml:"fred"`
	Stock       StockConfig    `yaml:"stock"`
	Pipeline    PipelineConfig `yaml:"pipeline"`
	Model       ModelConfig    `yaml:"model"`
	Export      ExportConfig   `yaml:"export"`
	Cache       CacheConfig    `yaml:"cache"`
	Storage     StorageConfig  `yaml:"storage"`
	ClickHouse  ClickHouse     `yaml:"clickhouse"`
	Kafka       KafkaConfig    `yaml:"kafka"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       struct {
		RPS   float64 `yaml:"rps" default:"5" validate:"gte=0"`
		Burst int     `yaml:"burst" default:"10" validate:"gte=0"`
	} `yaml:"rate_limit"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" default:"/metrics"`
}

// FredConfig addresses the FRED observations API.
type FredConfig struct {
	APIKey            string        `yaml:"api_key" validate:"required"`
	BaseURL           string        `yaml:"base_url" default:"https://api.stlouisfed.org" validate:"url"`
	SeriesID          string        `yaml:"series_id" default:"GDPC1" validate:"required"`
	ObservationStart  string        `yaml:"observation_start"`
	ObservationEnd    string        `yaml:"observation_end"`
	Timeout           time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"120" validate:"gte=0"`
}

// StockConfig addresses the Alpha Vantage daily series API.
type StockConfig struct {
	APIKey            string        `yaml:"api_key" validate:"required"`
	BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co" validate:"url"`
	Symbol            string        `yaml:"symbol" default:"SPY" validate:"required"`
	OutputSize        string        `yaml:"output_size" default:"full" validate:"oneof=compact full"`
	Timeout           time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"5" validate:"gte=0"`
}

type PipelineConfig struct {
	Cadence          string        `yaml:"cadence" default:"monthly" validate:"oneof=monthly quarterly annual"`
	SnapLowFrequency bool          `yaml:"snap_low_frequency"`
	FillLimit        int           `yaml:"fill_limit" default:"1"`
	DriverColumn     string        `yaml:"driver_column" default:"Close" validate:"required"`
	PriceColumns     []string      `yaml:"price_columns" default:"[\"Close\"]" validate:"min=1"`
	RawCacheTTL      time.Duration `yaml:"raw_cache_ttl" default:"6h"`
}

type ModelConfig struct {
	Key             string  `yaml:"key" default:"model:crisis_ols" validate:"required"`
	Store           string  `yaml:"store" validate:"omitempty,oneof=file cache"`
	Dir             string  `yaml:"dir" default:"data/models"`
	TestFraction    float64 `yaml:"test_fraction" default:"0.2" validate:"gte=0,lt=1"`
	Seed            int64   `yaml:"seed" default:"42"`
	Split           string  `yaml:"split" default:"random" validate:"oneof=random chronological"`
	CrisisThreshold float64 `yaml:"crisis_threshold" default:"18000"`
}

type ExportConfig struct {
	CSVPath string `yaml:"csv_path" default:"processed_data.csv"`
}

type CacheConfig struct {
	Type  string `yaml:"type" default:"memory" validate:"oneof=memory redis"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"macropull"`
	} `yaml:"redis"`
	MemoryMaxSize int `yaml:"memory_max_size" default:"1000"`
}

// StorageConfig selects where feature tables are persisted.
type StorageConfig struct {
	FeatureStore string `yaml:"feature_store" default:"none" validate:"oneof=none clickhouse"`
	Table        string `yaml:"table" default:"feature_rows"`
}

type ClickHouse struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"macropull"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers" validate:"required_if=Enabled true"`
	RequiredAcks int      `yaml:"required_acks" default:"1"`
	Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	Topics       struct {
		Features    string `yaml:"features" default:"macropull.features"`
		Predictions string `yaml:"predictions" default:"macropull.predictions"`
		Runs        string `yaml:"runs" default:"macropull.runs"`
	} `yaml:"topics"`
	Producer struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"macropull-runner"`
		Workers    int           `yaml:"workers" default:"1" validate:"gte=1"`
		BufferSize int           `yaml:"buffer_size" default:"16"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, fills defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, nil)
}

// LoadWithEnv loads .env files (missing ones are ignored), then the YAML file,
// then applies environment overrides.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, os.LookupEnv)
}

// Parse decodes YAML, applies overrides from lookup (may be nil), fills
// defaults and validates the result.
func Parse(b []byte, lookup func(string) (string, bool)) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if lookup != nil {
		c.applyEnv(lookup)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("FRED_API_KEY", &c.Fred.APIKey)
	str("FRED_SERIES_ID", &c.Fred.SeriesID)
	str("STOCK_API_KEY", &c.Stock.APIKey)
	str("STOCK_SYMBOL", &c.Stock.Symbol)
	str("LOG_LEVEL", &c.Log.Level)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Storage.FeatureStore == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when storage.feature_store is clickhouse")
	}
	return nil
}
