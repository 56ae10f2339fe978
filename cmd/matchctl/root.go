package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"interview_backend/internal/database"
	"interview_backend/internal/logger"
	"interview_backend/internal/repositories"
	"interview_backend/internal/services"
	"interview_backend/internal/workers"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const app = "matchctl"

type Config struct {
	Database struct {
		Driver string `mapstructure:"driver"`
		URL    string `mapstructure:"url"`
	} `mapstructure:"database"`
	Redis struct {
		URL           string `mapstructure:"url"`
		EventsChannel string `mapstructure:"events-channel"`
	} `mapstructure:"redis"`
	Concurrency int  `mapstructure:"concurrency"`
	Debug       bool `mapstructure:"debug"`
	JSON        bool `mapstructure:"json"`
}

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "matchctl runs candidate/job matching batches against the matching database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is matchctl.yaml in current directory)")
	flags.String("db-driver", "postgres", "database driver: postgres, mysql or sqlite")
	flags.String("db-url", "", "database DSN")
	flags.String("redis-url", "", "publish EVENT_MATCHES_UPDATED to this Redis when set")
	flags.Int("concurrency", 4, "scoring goroutines per batch")
	flags.BoolP("debug", "d", false, "verbose/debug output")
	flags.BoolP("json", "j", false, "json format for logging")

	mustBind := func(key, flag string) {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("binding flag %s: %v", flag, err)
		}
	}
	mustBind("database.driver", "db-driver")
	mustBind("database.url", "db-url")
	mustBind("redis.url", "redis-url")
	mustBind("concurrency", "concurrency")
	mustBind("debug", "debug")
	mustBind("json", "json")

	for key, env := range map[string]string{
		"database.driver": "DATABASE_DRIVER",
		"database.url":    "DATABASE_URL",
		"redis.url":       "REDIS_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}
	viper.SetDefault("redis.events-channel", "matching:events")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional; flags and env are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (--db-url or DATABASE_URL)")
	}
	return &config, nil
}

// env is everything a command needs to run a batch.
type env struct {
	cfg      *Config
	log      *zap.Logger
	db       *gorm.DB
	matching services.MatchingService
	close    func()
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}

	zl, err := newLogger(cfg.JSON, cfg.Debug)
	if err != nil {
		return nil, err
	}

	// Service internals log through slog; keep them quiet unless debugging
	if cfg.Debug {
		logger.Init("development")
	} else {
		logger.Init("production")
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := database.Open(dbCtx, database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.URL,
		MaxOpenConns: cfg.Concurrency + 1,
	})
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { database.Close(db) }}

	var publisher services.EventPublisher = services.NopPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err := workers.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			database.Close(db)
			return nil, err
		}
		publisher = workers.NewRedisEventPublisher(rdb, cfg.Redis.EventsChannel)
		closers = append(closers, func() { rdb.Close() })
		zl.Debug("publishing match events", zap.String("channel", cfg.Redis.EventsChannel))
	}

	matching := services.NewMatchingService(
		repositories.NewCandidateRepository(),
		repositories.NewJobRepository(),
		repositories.NewMatchRepository(),
		nil, publisher, cfg.Concurrency,
	)

	return &env{
		cfg:      cfg,
		log:      zl,
		db:       db,
		matching: matching,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			_ = zl.Sync()
		},
	}, nil
}
