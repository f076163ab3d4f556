package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Feed   FeedConfig   `mapstructure:"feed"`
	Logger LoggerConfig `mapstructure:"logger"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

// FeedConfig is fixed at startup; nothing here is hot-reloaded.
type FeedConfig struct {
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	Volatility        float64       `mapstructure:"volatility"`
	AlertThreshold    float64       `mapstructure:"alert_threshold"` // percent move from open
	HistoryLimit      int           `mapstructure:"history_limit"`
	AlertCapacity     int           `mapstructure:"alert_capacity"`
	WarmupTicks       int           `mapstructure:"warmup_ticks"`
	SubscriberBuffer  int           `mapstructure:"subscriber_buffer"`
	InstrumentsFile   string        `mapstructure:"instruments_file"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // "json" or "console"
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type KafkaConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
	AlertTopic string   `mapstructure:"alert_topic"`
}

// LoadConfig reads configuration from .env file, an optional config file,
// environment variables, and defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Load .env into the process environment so APP_PORT etc. are real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// "feed.tick_interval" -> "FEED_TICK_INTERVAL"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Flat env vars only reach nested structs through explicit binds
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "feed.tick_interval", "feed.heartbeat_interval", "feed.volatility", "feed.alert_threshold",
		"feed.history_limit", "feed.alert_capacity", "feed.warmup_ticks", "feed.subscriber_buffer",
		"feed.instruments_file")
	bindEnv(v, "logger.level", "logger.encoding")
	bindEnv(v, "redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.ttl")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.alert_topic")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration LoadConfig produces with no file and no env overrides.
func Default() *Config {
	return &Config{
		App: AppConfig{Port: ":3000", Env: "local"},
		Feed: FeedConfig{
			TickInterval:      time.Second,
			HeartbeatInterval: 15 * time.Second,
			Volatility:        0.012,
			AlertThreshold:    3,
			HistoryLimit:      60,
			AlertCapacity:     30,
			WarmupTicks:       10,
			SubscriberBuffer:  64,
		},
		Logger: LoggerConfig{Level: "info", Encoding: "json"},
		Redis:  RedisConfig{Addr: "localhost:6379", TTL: time.Hour},
		Kafka: KafkaConfig{
			Brokers:    []string{"localhost:9092"},
			Topic:      "market_ticks",
			AlertTopic: "market_alerts",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("app.port", d.App.Port)
	v.SetDefault("app.env", d.App.Env)

	v.SetDefault("feed.tick_interval", d.Feed.TickInterval)
	v.SetDefault("feed.heartbeat_interval", d.Feed.HeartbeatInterval)
	v.SetDefault("feed.volatility", d.Feed.Volatility)
	v.SetDefault("feed.alert_threshold", d.Feed.AlertThreshold)
	v.SetDefault("feed.history_limit", d.Feed.HistoryLimit)
	v.SetDefault("feed.alert_capacity", d.Feed.AlertCapacity)
	v.SetDefault("feed.warmup_ticks", d.Feed.WarmupTicks)
	v.SetDefault("feed.subscriber_buffer", d.Feed.SubscriberBuffer)
	v.SetDefault("feed.instruments_file", "")

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.encoding", d.Logger.Encoding)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.alert_topic", d.Kafka.AlertTopic)
}

// Validate checks the values the engine cannot run without.
func (c *Config) Validate() error {
	if c.Feed.TickInterval <= 0 {
		return fmt.Errorf("feed.tick_interval must be positive")
	}
	if c.Feed.HeartbeatInterval < 0 {
		return fmt.Errorf("feed.heartbeat_interval cannot be negative")
	}
	if c.Feed.Volatility < 0 {
		return fmt.Errorf("feed.volatility cannot be negative")
	}
	if c.Feed.AlertThreshold <= 0 {
		return fmt.Errorf("feed.alert_threshold must be positive")
	}
	if c.Feed.HistoryLimit <= 0 {
		return fmt.Errorf("feed.history_limit must be positive")
	}
	if c.Feed.AlertCapacity <= 0 {
		return fmt.Errorf("feed.alert_capacity must be positive")
	}
	if c.Feed.WarmupTicks < 0 {
		return fmt.Errorf("feed.warmup_ticks cannot be negative")
	}
	if c.Feed.SubscriberBuffer <= 0 {
		return fmt.Errorf("feed.subscriber_buffer must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	return nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
