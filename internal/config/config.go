package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		Driver       string `yaml:"driver"` // postgres, mysql, sqlite
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	Redis struct {
		URL string `yaml:"url"` // empty disables the Redis queue and event publishing
	} `yaml:"redis"`

	Matching struct {
		QueueDriver         string  `yaml:"queue_driver"` // redis, inline
		QueueKey            string  `yaml:"queue_key"`
		EventsChannel       string  `yaml:"events_channel"`
		WorkerRatePerSecond float64 `yaml:"worker_rate_per_second"`
		WorkerBurst         int     `yaml:"worker_burst"`
		ScoringConcurrency  int     `yaml:"scoring_concurrency"`
		RescoreSchedule     string  `yaml:"rescore_schedule"` // cron spec, e.g. "@every 6h"; empty disables
	} `yaml:"matching"`
}

var AppConfig *Config

// LoadConfig reads an optional .env, then the YAML file at CONFIG_PATH
// (default config/config.yaml), then applies environment overrides and defaults.
// A missing YAML file is fine when DATABASE_URL is set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv("DATABASE_URL") != "":
		log.Printf("Config file %s not found, using environment only", configPath)
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MATCH_QUEUE_DRIVER"); v != "" {
		cfg.Matching.QueueDriver = v
	}
	if v, ok := os.LookupEnv("RESCORE_SCHEDULE"); ok {
		cfg.Matching.RescoreSchedule = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Matching.QueueDriver == "" {
		if cfg.Redis.URL != "" {
			cfg.Matching.QueueDriver = "redis"
		} else {
			cfg.Matching.QueueDriver = "inline"
		}
	}
	if cfg.Matching.QueueKey == "" {
		cfg.Matching.QueueKey = "matching:tasks"
	}
	if cfg.Matching.EventsChannel == "" {
		cfg.Matching.EventsChannel = "matching:events"
	}
	if cfg.Matching.WorkerRatePerSecond == 0 {
		cfg.Matching.WorkerRatePerSecond = 5
	}
	if cfg.Matching.WorkerBurst == 0 {
		cfg.Matching.WorkerBurst = 1
	}
	if cfg.Matching.ScoringConcurrency == 0 {
		cfg.Matching.ScoringConcurrency = 4
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		if _, err := LoadConfig(); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	return AppConfig
}
