package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	MaxCustomers int `mapstructure:"max_customers"`
	MaxTables    int `mapstructure:"max_tables"`
	NumWaiters   int `mapstructure:"num_waiters"`
	NumCooks     int `mapstructure:"num_cooks"`
	QueueSize    int `mapstructure:"queue_size"`

	// shared region layout
	RegionWords     int `mapstructure:"region_words"`
	WaiterAreaStart int `mapstructure:"waiter_area_start"`
	WaiterAreaSize  int `mapstructure:"waiter_area_size"`
	CookQueueStart  int `mapstructure:"cook_queue_start"`

	// simulated minutes
	CloseAt             int64 `mapstructure:"close_at"`
	EatMinutes          int64 `mapstructure:"eat_minutes"`
	OrderMinutes        int64 `mapstructure:"order_minutes"`
	CookMinutesPerGuest int64 `mapstructure:"cook_minutes_per_guest"`

	// MinuteScale is the wall-clock pause for one simulated minute.
	MinuteScale  time.Duration `mapstructure:"minute_scale"`
	PollInterval time.Duration `mapstructure:"poll_interval"`

	IPCPath        string `mapstructure:"ipc_path"`
	IPCProjID      int    `mapstructure:"ipc_proj_id"`
	ArrivalsFile   string `mapstructure:"arrivals_file"`
	ArrivalPattern string `mapstructure:"arrival_pattern"`
	Seed           int64  `mapstructure:"seed"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	Progress       bool   `mapstructure:"progress"`

	OutputDestination string             `mapstructure:"output_destination"` // local or cloud
	OutputFormat      string             `mapstructure:"output_format"`      // console, json, csv, parquet
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	KafkaEnabled      bool               `mapstructure:"kafka_enabled"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix  string             `mapstructure:"kafka_topic_prefix"`
	SessionTimeoutMs  int                `mapstructure:"session_timeout_ms"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	Database          DatabaseConfig     `mapstructure:"database"`
}

// SetDefaults registers the default session parameters on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("max_customers", 200)
	v.SetDefault("max_tables", 10)
	v.SetDefault("num_waiters", 5)
	v.SetDefault("num_cooks", 2)
	v.SetDefault("queue_size", 100)
	v.SetDefault("region_words", 2000)
	v.SetDefault("waiter_area_start", 100)
	v.SetDefault("waiter_area_size", 200)
	v.SetDefault("cook_queue_start", 1100)
	v.SetDefault("close_at", 180)
	v.SetDefault("eat_minutes", 30)
	v.SetDefault("order_minutes", 1)
	v.SetDefault("cook_minutes_per_guest", 5)
	v.SetDefault("minute_scale", "100ms")
	v.SetDefault("poll_interval", "10ms")
	v.SetDefault("ipc_path", "/tmp")
	v.SetDefault("ipc_proj_id", 42)
	v.SetDefault("arrivals_file", "customers.txt")
	v.SetDefault("arrival_pattern", "steady")
	v.SetDefault("seed", 42)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_destination", "local")
	v.SetDefault("output_format", "console")
	v.SetDefault("output_folder", "events")
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic_prefix", "dinesim.")
	v.SetDefault("cloud_storage.provider", "s3")
}

// LoadConfig reads the configuration through v. A missing config file is not
// an error unless cfgFile names it explicitly.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Default config location
		v.AddConfigPath(".")
		v.SetConfigName("dinesim")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("dinesim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // Read in environment variables that match
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns the defaults without reading any file or environment.
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	config, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("models: decoding defaults: %v", err))
	}
	return config
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &config, nil
}

func (cfg *Config) Validate() error {
	checks := []struct {
		name  string
		value int64
	}{
		{"max_customers", int64(cfg.MaxCustomers)},
		{"max_tables", int64(cfg.MaxTables)},
		{"num_waiters", int64(cfg.NumWaiters)},
		{"num_cooks", int64(cfg.NumCooks)},
		{"queue_size", int64(cfg.QueueSize)},
		{"region_words", int64(cfg.RegionWords)},
		{"close_at", cfg.CloseAt},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("invalid config: %s must be positive, got %d", c.name, c.value)
		}
	}
	if cfg.EatMinutes < 0 || cfg.OrderMinutes < 0 || cfg.CookMinutesPerGuest < 0 {
		return fmt.Errorf("invalid config: durations must not be negative")
	}
	if cfg.MinuteScale < 0 {
		return fmt.Errorf("invalid config: minute_scale must not be negative, got %s", cfg.MinuteScale)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("invalid config: poll_interval must be positive, got %s", cfg.PollInterval)
	}
	if err := cfg.Layout().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Layout is the shared-region layout described by cfg.
func (cfg *Config) Layout() ipc.Layout {
	return ipc.Layout{
		Words:           cfg.RegionWords,
		NumWaiters:      cfg.NumWaiters,
		QueueSize:       cfg.QueueSize,
		WaiterAreaStart: cfg.WaiterAreaStart,
		WaiterAreaSize:  cfg.WaiterAreaSize,
		CookQueueStart:  cfg.CookQueueStart,
	}
}
