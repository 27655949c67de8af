package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		StatesTopic  string   `yaml:"states_topic"`
		RecordsTopic string   `yaml:"records_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		StatesTable      string        `yaml:"states_table"`
		RecordsTable     string        `yaml:"records_table"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	HomeAssistant struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		RESTURL        string        `yaml:"rest_url"`
		AccessToken    string        `yaml:"access_token"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		BackfillWindow time.Duration `yaml:"backfill_window"`
	} `yaml:"home_assistant"`
	Entities struct {
		IndoorTemp  string `yaml:"indoor_temp"`
		OutdoorTemp string `yaml:"outdoor_temp"`
		Climate     string `yaml:"climate"`
		GasMeter    string `yaml:"gas_meter"`
	} `yaml:"entities"`
	Analysis struct {
		Timezone string `yaml:"timezone"`

		SetbackSearchBegin   string `yaml:"setback_search_begin"`
		SetbackSearchEnd     string `yaml:"setback_search_end"`
		RecoverySearchBegin  string `yaml:"recovery_search_begin"`
		RecoverySearchEnd    string `yaml:"recovery_search_end"`
		MaxRecoverySearchEnd string `yaml:"max_recovery_search_end"`

		SignificantDropC  float64 `yaml:"significant_setpoint_drop_c"`
		SignificantRiseC  float64 `yaml:"significant_setpoint_rise_c"`
		TypicalSetbackMin float64 `yaml:"typical_setback_min_c"`
		TypicalSetbackMax float64 `yaml:"typical_setback_max_c"`
		TypicalDaytimeMin float64 `yaml:"typical_daytime_min_c"`

		RecoveryToleranceC float64       `yaml:"recovery_temp_tolerance_c"`
		MinIdleForRecovery time.Duration `yaml:"min_idle_for_recovery_end"`

		HistoryDays   int     `yaml:"history_days"`
		VeryColdMaxC  float64 `yaml:"very_cold_max_c"`
		ColdMaxC      float64 `yaml:"cold_max_c"`
		MinDataPoints int     `yaml:"min_data_points"`
	} `yaml:"analysis"`
	Schedule struct {
		RunAt string `yaml:"run_at"`
	} `yaml:"schedule"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Pipeline struct {
		MinInterval time.Duration `yaml:"min_interval"`
		BufferSize  int           `yaml:"buffer_size"`
	} `yaml:"pipeline"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("HASS_ACCESS_TOKEN"); v != "" {
		c.HomeAssistant.AccessToken = v
	}
	if v := os.Getenv("HASS_WEBSOCKET_URL"); v != "" {
		c.HomeAssistant.WebSocketURL = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_STATES_TOPIC"); v != "" {
		c.Kafka.StatesTopic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

// WatchedEntities lists every configured entity id, skipping the unset ones.
func (c *Config) WatchedEntities() []string {
	out := make([]string, 0, 4)
	for _, e := range []string{
		c.Entities.IndoorTemp,
		c.Entities.OutdoorTemp,
		c.Entities.Climate,
		c.Entities.GasMeter,
	} {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.HomeAssistant.WebSocketURL == "" {
		return fmt.Errorf("home_assistant.websocket_url is required")
	}
	if c.HomeAssistant.AccessToken == "" {
		return fmt.Errorf("home_assistant.access_token is required")
	}
	if c.Entities.Climate == "" || c.Entities.IndoorTemp == "" {
		return fmt.Errorf("entities.climate and entities.indoor_temp are required")
	}
	return nil
}
