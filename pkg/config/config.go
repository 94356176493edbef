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
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		MaxAttempts  int           `yaml:"max_attempts"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
	} `yaml:"clickhouse"`
	Market struct {
		Providers      []ProviderConfig `yaml:"providers"`
		Timeout        time.Duration    `yaml:"timeout"`
		StreamEnabled  bool             `yaml:"stream_enabled"`
		StreamURL      string           `yaml:"stream_url"`
		ReconnectDelay time.Duration    `yaml:"reconnect_delay"`
		PingInterval   time.Duration    `yaml:"ping_interval"`
		Symbols        []string         `yaml:"symbols"`
	} `yaml:"market"`
	AI struct {
		Models  []ModelConfig `yaml:"models"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ai"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Webhook struct {
		Secret     string        `yaml:"secret"`
		ConfirmTTL time.Duration `yaml:"confirm_ttl"`
	} `yaml:"webhook"`
	Engine struct {
		ScanInterval    time.Duration `yaml:"scan_interval"`
		MonitorInterval time.Duration `yaml:"monitor_interval"`
		InitialBalance  float64       `yaml:"initial_balance"`
		Leverage        float64       `yaml:"leverage"`
		BaseRiskPct     float64       `yaml:"base_risk_pct"`
		MaxTrades       int           `yaml:"max_trades"`
		EquityPoints    int           `yaml:"equity_points"`
		RequireConfirm  bool          `yaml:"require_confirm"`
	} `yaml:"engine"`
	Optimizer struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"optimizer"`
}

// ProviderConfig is one market data REST endpoint; providers are tried in order.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// ModelConfig is one AI model endpoint speaking the chat-completions protocol.
type ModelConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
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

	c.applyDefaults()

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

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 5 * time.Second
	}
	if c.Kafka.Enabled && c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 45 * time.Second
	}
	if c.Webhook.ConfirmTTL <= 0 {
		c.Webhook.ConfirmTTL = 30 * time.Minute
	}
	if c.Engine.ScanInterval <= 0 {
		c.Engine.ScanInterval = 15 * time.Minute
	}
	if c.Engine.MonitorInterval <= 0 {
		c.Engine.MonitorInterval = time.Minute
	}
	if c.Engine.InitialBalance <= 0 {
		c.Engine.InitialBalance = 10_000
	}
	if c.Engine.Leverage <= 0 {
		c.Engine.Leverage = 10
	}
	if c.Engine.BaseRiskPct <= 0 {
		c.Engine.BaseRiskPct = 1.0
	}
	if c.Engine.MaxTrades <= 0 {
		c.Engine.MaxTrades = 200
	}
	if c.Engine.EquityPoints <= 0 {
		c.Engine.EquityPoints = 500
	}
	if c.Optimizer.Interval <= 0 {
		c.Optimizer.Interval = 12 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if len(c.Market.Providers) == 0 {
		return fmt.Errorf("market.providers cannot be empty")
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret is required")
	}
	return nil
}
