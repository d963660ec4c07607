package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	LogLevel       string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat      string        `yaml:"log-format" env:"LOG_FORMAT" env-default:"json"`
	HTTPPort       string        `yaml:"http-port" env:"PORT" env-default:"5000"`
	ClientOrigin   string        `yaml:"client-origin" env:"CLIENT_ORIGIN" env-default:"*"`
	HandlerTimeout time.Duration `yaml:"handler-timeout" env:"HANDLER_TIMEOUT" env-default:"10s"`
	Storage        Storage       `yaml:"storage"`
	Redis          Redis         `yaml:"redis"`
	Game           Game          `yaml:"game"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./data/gomoku.db"`
}

type Redis struct {
	Host   string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port   string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	DB     int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"gomoku:match:1"`
}

type Game struct {
	// StrictTurns rejects out-of-turn moves and moves after a win.
	StrictTurns bool `yaml:"strict-turns" env:"STRICT_TURNS" env-default:"false"`
}

// Load reads the YAML file at path when it exists, otherwise the environment
// alone. Environment variables override file values either way.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.HandlerTimeout <= 0 {
		return errors.New("handler timeout must be positive")
	}
	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
