package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Postgres struct {
	// DSN пустой — сервис работает только на волатильном fallback-store.
	DSN string `yaml:"dsn"`
}

type Store struct {
	PrimaryTimeout string `yaml:"primaryTimeout"` // например "3s"
}

type WS struct {
	PingEvery string `yaml:"pingEvery"` // например "15s"
	ReadLimit int64  `yaml:"readLimit"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // meeting-backend
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type AI struct {
	Provider string `yaml:"provider"` // disabled|http
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Timeout  string `yaml:"timeout"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Postgres Postgres `yaml:"postgres"`
	Store    Store    `yaml:"store"`
	WS       WS       `yaml:"ws"`
	Logging  Logging  `yaml:"logging"`
	AI       AI       `yaml:"ai"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "meeting-backend"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "disabled"
	}
	if c.AI.Provider == "http" && c.AI.Endpoint == "" {
		return errors.New("ai.endpoint is required for the http provider")
	}
	return nil
}

func (c *Config) PrimaryTimeout() time.Duration {
	return parseDurationOr(3*time.Second, c.Store.PrimaryTimeout)
}

func (c *Config) PingEvery() time.Duration {
	return parseDurationOr(15*time.Second, c.WS.PingEvery)
}

func (c *Config) AITimeout() time.Duration {
	return parseDurationOr(30*time.Second, c.AI.Timeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
