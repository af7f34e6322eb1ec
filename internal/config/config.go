package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Provider struct {
		APIKey  string        `mapstructure:"api_key"`
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"` // per-request HTTP timeout
	} `mapstructure:"provider"`

	Index struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"index"`

	Ingest struct {
		VideoDir string `mapstructure:"video_dir"`
	} `mapstructure:"ingest"`

	Registry struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"registry"`

	Polling struct {
		Interval         time.Duration `mapstructure:"interval"`
		MaxWait          time.Duration `mapstructure:"max_wait"`
		TransientRetries int           `mapstructure:"transient_retries"`
	} `mapstructure:"polling"`

	Search struct {
		DefaultLimit int    `mapstructure:"default_limit"`
		Threshold    string `mapstructure:"threshold"` // minimum confidence tier requested from the provider
	} `mapstructure:"search"`

	Cost struct {
		LedgerPath     string  `mapstructure:"ledger_path"`
		VideoPerMinute float64 `mapstructure:"video_per_minute"`
		SearchPerQuery float64 `mapstructure:"search_per_query"`
		BudgetUSD      float64 `mapstructure:"budget_usd"`
	} `mapstructure:"cost"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`
}

func LoadConfig() (*Config, error) {
	// Pick up a local .env first so TWELVE_LABS_API_KEY can live there during
	// development. Missing file is fine.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	// The provider key is conventionally set via env var rather than checked
	// into config.yaml.
	viper.BindEnv("provider.api_key", "TWELVE_LABS_API_KEY")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars plus defaults are enough to run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("provider.base_url", "https://api.twelvelabs.io/v1.3")
	viper.SetDefault("provider.timeout", "60s")
	viper.SetDefault("index.name", "clipseek")
	viper.SetDefault("ingest.video_dir", "data/videos")
	viper.SetDefault("registry.path", "registry.json")
	viper.SetDefault("polling.interval", "5s")
	viper.SetDefault("polling.max_wait", "10m")
	viper.SetDefault("polling.transient_retries", 3)
	viper.SetDefault("search.default_limit", 5)
	viper.SetDefault("search.threshold", "medium")
	viper.SetDefault("cost.ledger_path", "cost_log.json")
	viper.SetDefault("cost.video_per_minute", 0.0015)
	viper.SetDefault("cost.search_per_query", 0.001)
	viper.SetDefault("cost.budget_usd", 100.0)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("worker.concurrency", 4)
	viper.SetDefault("worker.queues", map[string]int{"ingest": 1})
}
