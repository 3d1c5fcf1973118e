package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"junction/infra/logger"
)

// Config holds every setting of the server. Load reads the YAML file,
// then lets JUNCTION_* environment variables (optionally from a .env file)
// override it, then validates.
type Config struct {
	App struct {
		Name string `yaml:"name"`
	} `yaml:"app"`

	GRPC struct {
		Addr string `yaml:"addr"`

		// RatePerSecond limits calls per identity; 0 disables.
		RatePerSecond float64 `yaml:"rate_per_second"`
		RateBurst     int     `yaml:"rate_burst"`
	} `yaml:"grpc"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Store struct {
		Engine string `yaml:"engine"` // pebble or badger
		Dir    string `yaml:"dir"`
		Sync   bool   `yaml:"sync"`
	} `yaml:"store"`

	Journal struct {
		Dir             string        `yaml:"dir"`
		SegmentSize     int64         `yaml:"segment_size"`
		SegmentDuration time.Duration `yaml:"segment_duration"`
		SyncEveryAppend bool          `yaml:"sync_every_append"`
	} `yaml:"journal"`

	Kafka struct {
		Enabled         bool          `yaml:"enabled"`
		Client          string        `yaml:"client"` // sarama or kafka-go
		Brokers         []string      `yaml:"brokers"`
		EventsTopic     string        `yaml:"events_topic"`
		SettlementTopic string        `yaml:"settlement_topic"`
		DepositsTopic   string        `yaml:"deposits_topic"`
		GroupID         string        `yaml:"group_id"`
		PollInterval    time.Duration `yaml:"poll_interval"`
	} `yaml:"kafka"`

	History struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"history"`

	Snapshot struct {
		Dir string `yaml:"dir"`
	} `yaml:"snapshot"`

	Expiry struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"expiry"`

	Checkpoint struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"checkpoint"`

	Bitcoin struct {
		Network string `yaml:"network"` // mainnet, testnet3, regtest, signet
	} `yaml:"bitcoin"`

	Assets []Asset `yaml:"assets"`

	Logging logger.Config `yaml:"logging"`
}

// Asset is one catalog entry.
type Asset struct {
	Symbol   string `yaml:"symbol"`
	Chain    string `yaml:"chain"`
	Decimals int32  `yaml:"decimals"`
	Name     string `yaml:"name"`
}

// ConfigError names the offending setting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Err: errors.Newf(format, args...)}
}

// Default returns a configuration that runs a single local node without
// Kafka.
func Default() *Config {
	var c Config
	c.App.Name = "junction"
	c.GRPC.Addr = ":9090"
	c.GRPC.RatePerSecond = 50
	c.GRPC.RateBurst = 100
	c.HTTP.Addr = ":8080"
	c.Store.Engine = "pebble"
	c.Store.Dir = "data/state"
	c.Store.Sync = true
	c.Journal.Dir = "data/journal"
	c.Journal.SegmentSize = 64 << 20
	c.Journal.SegmentDuration = time.Hour
	c.Kafka.Client = "sarama"
	c.Kafka.EventsTopic = "junction.events"
	c.Kafka.SettlementTopic = "junction.settlement"
	c.Kafka.DepositsTopic = "junction.deposits"
	c.Kafka.GroupID = "junction"
	c.Kafka.PollInterval = 250 * time.Millisecond
	c.History.Path = "data/history.db"
	c.Snapshot.Dir = "data/snapshots"
	c.Expiry.Interval = 10 * time.Second
	c.Checkpoint.Interval = 5 * time.Minute
	c.Bitcoin.Network = "mainnet"
	c.Logging.Level = "info"
	c.Logging.Format = "text"
	c.Logging.MaxSizeMB = 100
	c.Logging.MaxBackups = 5
	c.Logging.MaxAgeDays = 14
	return &c
}

// Load reads path over the defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GRPC.Addr == "" {
		return invalid("grpc.addr", "must be set")
	}
	if c.GRPC.RatePerSecond < 0 || c.GRPC.RateBurst < 0 {
		return invalid("grpc.rate_per_second", "must not be negative")
	}
	if c.Store.Engine != "pebble" && c.Store.Engine != "badger" {
		return invalid("store.engine", "unknown engine %q", c.Store.Engine)
	}
	if c.Store.Dir == "" {
		return invalid("store.dir", "must be set")
	}
	if c.Journal.Dir == "" {
		return invalid("journal.dir", "must be set")
	}
	if c.Journal.SegmentSize <= 0 {
		return invalid("journal.segment_size", "must be positive")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return invalid("kafka.brokers", "at least one broker is required")
		}
		if c.Kafka.Client != "sarama" && c.Kafka.Client != "kafka-go" {
			return invalid("kafka.client", "unknown client %q", c.Kafka.Client)
		}
		if c.Kafka.EventsTopic == "" || c.Kafka.SettlementTopic == "" {
			return invalid("kafka.topics", "events and settlement topics are required")
		}
	}
	if c.History.Enabled && c.History.Path == "" {
		return invalid("history.path", "must be set when history is enabled")
	}
	if c.Expiry.Interval < 0 || c.Checkpoint.Interval < 0 {
		return invalid("intervals", "must not be negative")
	}

	seen := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		field := fmt.Sprintf("assets[%d]", i)
		if a.Symbol == "" {
			return invalid(field, "symbol is required")
		}
		if seen[a.Symbol] {
			return invalid(field, "duplicate symbol %s", a.Symbol)
		}
		seen[a.Symbol] = true
		if a.Decimals < 0 || a.Decimals > 18 {
			return invalid(field, "decimals %d out of range", a.Decimals)
		}
	}
	return nil
}

func overrideWithEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("JUNCTION_GRPC_ADDR", &c.GRPC.Addr)
	str("JUNCTION_HTTP_ADDR", &c.HTTP.Addr)
	str("JUNCTION_STORE_ENGINE", &c.Store.Engine)
	str("JUNCTION_STORE_DIR", &c.Store.Dir)
	str("JUNCTION_JOURNAL_DIR", &c.Journal.Dir)
	str("JUNCTION_KAFKA_CLIENT", &c.Kafka.Client)
	str("JUNCTION_HISTORY_PATH", &c.History.Path)
	str("JUNCTION_LOG_LEVEL", &c.Logging.Level)
	str("JUNCTION_BITCOIN_NETWORK", &c.Bitcoin.Network)

	if v := os.Getenv("JUNCTION_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("JUNCTION_KAFKA_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: "JUNCTION_KAFKA_ENABLED", Err: err}
		}
		c.Kafka.Enabled = b
	}
	return nil
}
