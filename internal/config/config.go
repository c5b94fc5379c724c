package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"pool-yield-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Meteora   MeteoraConfig   `mapstructure:"meteora"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Triggers  TriggersConfig  `mapstructure:"triggers"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	State     StateConfig     `mapstructure:"state"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates optional PostgreSQL connectivity.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs scan cadence for the run command.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToStart    bool          `mapstructure:"align_to_start"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	RunOnStart      bool          `mapstructure:"run_on_start"`
}

// MeteoraConfig captures DLMM API connectivity.
type MeteoraConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	SnapshotTimeout time.Duration `mapstructure:"snapshot_timeout"`
	DetailTimeout   time.Duration `mapstructure:"detail_timeout"`
	SnapshotRetries int           `mapstructure:"snapshot_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// TokensConfig governs the token list cache.
type TokensConfig struct {
	ListURL  string        `mapstructure:"list_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ScanConfig sets ranking and portfolio assumptions.
type ScanConfig struct {
	TopN          int     `mapstructure:"top_n"`
	MinTVL        float64 `mapstructure:"min_tvl"`
	InvestUSD     float64 `mapstructure:"invest_usd"`
	Window        string  `mapstructure:"window"`
	EnrichDetails bool    `mapstructure:"enrich_details"`
	Focus         string  `mapstructure:"focus"`
	IncludeRanked bool    `mapstructure:"include_ranked"`
}

// TriggersConfig tunes the optional trigger predicates.
type TriggersConfig struct {
	FeeTVLWindowMin float64 `mapstructure:"fee_tvl_window_min"`
	ScoreTopK       int     `mapstructure:"score_top_k"`
	ExcludeBluechip bool    `mapstructure:"exclude_bluechip"`
}

// AlertingConfig defines cooldown and routing.
type AlertingConfig struct {
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// StateConfig locates the local watch state file.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DLMMWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dlmmwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.align_to_start", false)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x646c6d6d))
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.run_on_start", true)

	v.SetDefault("meteora.base_url", "https://dlmm-api.meteora.ag")
	v.SetDefault("meteora.snapshot_timeout", "45s")
	v.SetDefault("meteora.detail_timeout", "20s")
	v.SetDefault("meteora.snapshot_retries", 3)
	v.SetDefault("meteora.retry_backoff", "800ms")
	v.SetDefault("meteora.user_agent", "dlmmwatch/1.0")

	v.SetDefault("tokens.list_url", "https://token.jup.ag/all")
	v.SetDefault("tokens.cache_ttl", "12h")

	v.SetDefault("scan.top_n", 50)
	v.SetDefault("scan.min_tvl", 1000000.0)
	v.SetDefault("scan.invest_usd", 10000.0)
	v.SetDefault("scan.window", "24h")
	v.SetDefault("scan.enrich_details", true)
	v.SetDefault("scan.focus", "all")
	v.SetDefault("scan.include_ranked", false)

	v.SetDefault("triggers.fee_tvl_window_min", 0.0)
	v.SetDefault("triggers.score_top_k", 0)
	v.SetDefault("triggers.exclude_bluechip", false)

	v.SetDefault("alerting.cooldown", "15m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("state.path", "state/watch_state.json")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scan.TopN <= 0 {
		return fmt.Errorf("scan.top_n must be greater than zero")
	}
	if c.Scan.MinTVL < 0 {
		return fmt.Errorf("scan.min_tvl cannot be negative")
	}
	if c.Scan.InvestUSD <= 0 {
		return fmt.Errorf("scan.invest_usd must be greater than zero")
	}
	if c.Scan.Focus != "all" && c.Scan.Focus != "meme" {
		return fmt.Errorf("scan.focus must be \"all\" or \"meme\"")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Alerting.Cooldown < 0 {
		return fmt.Errorf("alerting.cooldown cannot be negative")
	}
	if c.Triggers.FeeTVLWindowMin < 0 {
		return fmt.Errorf("triggers.fee_tvl_window_min cannot be negative")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 必须配置")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveWindow returns either the CLI override or config default.
func (c *Config) ResolveWindow(override string) string {
	if override != "" {
		return override
	}
	return c.Scan.Window
}

// ResolveTopN returns either the CLI override or config default.
func (c *Config) ResolveTopN(override int) int {
	if override > 0 {
		return override
	}
	return c.Scan.TopN
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
