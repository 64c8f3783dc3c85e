package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WhatsAppConfig carries the Graph API credentials. Token, PhoneNumberID and
// VerifyToken have no defaults and must come from the config file or the
// environment (STICKERBOT_WHATSAPP_TOKEN and friends). AppSecret is optional;
// when set, inbound webhook payloads are checked against X-Hub-Signature-256.
type WhatsAppConfig struct {
	Token         string        `mapstructure:"token"`
	PhoneNumberID string        `mapstructure:"phone_number_id"`
	VerifyToken   string        `mapstructure:"verify_token"`
	AppSecret     string        `mapstructure:"app_secret"`
	APIVersion    string        `mapstructure:"api_version"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type PipelineConfig struct {
	Workers        int    `mapstructure:"workers"`
	QueueSize      int    `mapstructure:"queue_size"`
	TempDir        string `mapstructure:"temp_dir"`
	WebpmuxPath    string `mapstructure:"webpmux_path"`
	NotifyFailures bool   `mapstructure:"notify_failures"`
}

type MemoryConfig struct {
	Driver       string       `mapstructure:"driver"`
	SQLite       SQLiteConfig `mapstructure:"sqlite"`
	ContextLimit int          `mapstructure:"context_limit"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stickerbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/stickerbot")
	}

	setDefaults(v)

	v.SetEnvPrefix("STICKERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The credential keys have no defaults, so AutomaticEnv alone never
	// surfaces them through Unmarshal; bind them explicitly.
	for _, key := range []string{
		"whatsapp.token",
		"whatsapp.phone_number_id",
		"whatsapp.verify_token",
		"whatsapp.app_secret",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WhatsApp.Token == "" {
		return fmt.Errorf("whatsapp.token is required")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		return fmt.Errorf("whatsapp.phone_number_id is required")
	}
	if c.WhatsApp.VerifyToken == "" {
		return fmt.Errorf("whatsapp.verify_token is required")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("whatsapp.api_version", "v21.0")
	v.SetDefault("whatsapp.base_url", "https://graph.facebook.com")
	v.SetDefault("whatsapp.timeout", 30*time.Second)

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.queue_size", 64)
	v.SetDefault("pipeline.temp_dir", "./data/stickers")
	v.SetDefault("pipeline.webpmux_path", "webpmux")
	v.SetDefault("pipeline.notify_failures", false)

	v.SetDefault("memory.driver", "sqlite")
	v.SetDefault("memory.sqlite.path", "./data/stickerbot.db")
	v.SetDefault("memory.context_limit", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
