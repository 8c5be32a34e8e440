package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`

	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Market       MarketConfig       `mapstructure:"market"`
	News         NewsConfig         `mapstructure:"news"`
	Decision     DecisionConfig     `mapstructure:"decision"`
	Broker       BrokerConfig       `mapstructure:"broker"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CycleInterval     time.Duration `mapstructure:"cycle_interval"`
	ReconcileInterval string        `mapstructure:"reconcile_interval"`
	NewsRefresh       string        `mapstructure:"news_refresh"`
}

type OrchestratorConfig struct {
	// MinConfidence below which buy/sell decisions are treated as hold.
	MinConfidence float64 `mapstructure:"min_confidence"`
	// MaxErrors is the consecutive-failure count that forces an agent
	// into paused status.
	MaxErrors int `mapstructure:"max_errors"`
}

type MarketConfig struct {
	DataBaseURL string        `mapstructure:"data_base_url"`
	APIKey      string        `mapstructure:"api_key"`
	APISecret   string        `mapstructure:"api_secret"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second against the data API.
	RateLimit float64 `mapstructure:"rate_limit"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	Stream MarketStreamConfig `mapstructure:"stream"`
}

type MarketStreamConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type NewsConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
}

type DecisionConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type BrokerConfig struct {
	PaperBaseURL string        `mapstructure:"paper_base_url"`
	LiveBaseURL  string        `mapstructure:"live_base_url"`
	APIKey       string        `mapstructure:"api_key"`
	APISecret    string        `mapstructure:"api_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRADEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.cycle_interval", "30s")
	v.SetDefault("scheduler.reconcile_interval", "@every 30s")
	v.SetDefault("scheduler.news_refresh", "@every 10m")

	v.SetDefault("orchestrator.min_confidence", 70)
	v.SetDefault("orchestrator.max_errors", 5)

	v.SetDefault("market.data_base_url", "https://data.alpaca.markets")
	v.SetDefault("market.timeout", "10s")
	v.SetDefault("market.rate_limit", 3)
	v.SetDefault("market.cache_ttl", "5s")
	v.SetDefault("market.stream.enabled", false)
	v.SetDefault("market.stream.url", "wss://stream.data.alpaca.markets/v2/iex")

	v.SetDefault("news.base_url", "https://newsapi.org/v2")
	v.SetDefault("news.timeout", "15s")
	v.SetDefault("news.page_size", 20)

	v.SetDefault("decision.model", "claude-sonnet-4-20250514")
	v.SetDefault("decision.max_tokens", 1024)
	v.SetDefault("decision.timeout", "60s")

	v.SetDefault("broker.paper_base_url", "https://paper-api.alpaca.markets")
	v.SetDefault("broker.live_base_url", "https://api.alpaca.markets")
	v.SetDefault("broker.timeout", "15s")

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
