package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Cron    CronConfig    `mapstructure:"cron"`
	DataAPI DataAPIConfig `mapstructure:"data_api"`
	Gamma   GammaConfig   `mapstructure:"gamma"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Watcher WatcherConfig `mapstructure:"watcher"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	BearerToken string `mapstructure:"bearer_token"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// StorageConfig points every JSON document store at a directory.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type CronConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	PoliticalScan string `mapstructure:"political_scan"`
}

type DataAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type GammaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScanConfig tunes the cron-driven political market scan.
type ScanConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MarketLimit int  `mapstructure:"market_limit"`
	TradeLimit  int  `mapstructure:"trade_limit"`
}

type WatcherConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	LargeTradeUSD   float64       `mapstructure:"large_trade_usd"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.bearer_token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.political_scan", "@every 30m")
	v.SetDefault("data_api.base_url", "https://data-api.polymarket.com")
	v.SetDefault("data_api.timeout", "15s")
	v.SetDefault("gamma.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("gamma.timeout", "15s")

	// The periodic scan and the live watcher stay off until opted in.
	v.SetDefault("scan.enabled", false)
	v.SetDefault("scan.market_limit", 10)
	v.SetDefault("scan.trade_limit", 100)
	v.SetDefault("watcher.enabled", false)
	v.SetDefault("watcher.url", "")
	v.SetDefault("watcher.refresh_interval", "30s")
	v.SetDefault("watcher.large_trade_usd", 1000)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
