package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vsinha/dough/pkg/domain/entities"
)

// Config holds application configuration.
type Config struct {
	Log    LogConfig       `mapstructure:"log"`
	HTTP   HTTPConfig      `mapstructure:"http"`
	Tick   TickConfig      `mapstructure:"tick"`
	Seed   SeedConfig      `mapstructure:"seed"`
	IDs    IDConfig        `mapstructure:"ids"`
	Policy entities.Policy `mapstructure:"policy"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type TickConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SeedConfig points at a batches CSV; empty means the built-in sample inventory
type SeedConfig struct {
	File string `mapstructure:"file"`
}

type IDConfig struct {
	Strategy string `mapstructure:"strategy"`
	Node     int64  `mapstructure:"node"`
}

// Load reads dough.yml and DOUGH_* environment variables on top of the defaults.
// An explicit path must exist; otherwise a missing config file falls back to defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dough")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dough")
	}

	v.SetEnvPrefix("DOUGH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Tick:   TickConfig{Interval: time.Second},
		IDs:    IDConfig{Strategy: "sequence", Node: 1},
		Policy: entities.DefaultPolicy(),
	}
}

func (c Config) Validate() error {
	if c.Tick.Interval <= 0 {
		return fmt.Errorf("tick.interval must be positive, got %v", c.Tick.Interval)
	}
	return c.Policy.Validate()
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("tick.interval", d.Tick.Interval)
	v.SetDefault("seed.file", d.Seed.File)
	v.SetDefault("ids.strategy", d.IDs.Strategy)
	v.SetDefault("ids.node", d.IDs.Node)

	v.SetDefault("policy.tray_capacity", d.Policy.TrayCapacity)
	v.SetDefault("policy.box_size", d.Policy.BoxSize)
	v.SetDefault("policy.defrost_hours", d.Policy.DefrostHours)
	v.SetDefault("policy.min_prove_hours", d.Policy.MinProveHours)
	v.SetDefault("policy.warn_hours", d.Policy.WarnHours)
	v.SetDefault("policy.expire_hours", d.Policy.ExpireHours)
	v.SetDefault("policy.strict_frozen_stock", d.Policy.StrictFrozenStock)
	v.SetDefault("policy.enforce_defrost_complete", d.Policy.EnforceDefrostComplete)
	v.SetDefault("policy.strict_validation", d.Policy.StrictValidation)
}
