package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"bond-lifecycle-demo/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Demo     DemoConfig     `mapstructure:"demo"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the audit trail.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EngineConfig covers bond engine connectivity.
type EngineConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// OracleConfig selects and parameterises the external price feed.
type OracleConfig struct {
	Source            string        `mapstructure:"source"`
	RPCURL            string        `mapstructure:"rpc_url"`
	AggregatorAddress string        `mapstructure:"aggregator_address"`
	Decimals          int32         `mapstructure:"decimals"`
	Currency          string        `mapstructure:"currency"`
	ChainLabel        string        `mapstructure:"chain_label"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// Oracle sources.
const (
	OracleSourceEngine = "engine"
	OracleSourceChain  = "chain"
)

// PollerConfig governs the event refresh cadence.
type PollerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// DemoConfig carries the scripted issuance inputs and pacing.
type DemoConfig struct {
	Principal       float64       `mapstructure:"principal"`
	Currency        string        `mapstructure:"currency"`
	CouponRate      float64       `mapstructure:"coupon_rate"`
	MaturityYears   int           `mapstructure:"maturity_years"`
	ConversionPrice float64       `mapstructure:"conversion_price"`
	ConversionRatio int64         `mapstructure:"conversion_ratio"`
	StepPause       time.Duration `mapstructure:"step_pause"`
}

// AlertingConfig defines conversion-trigger alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BONDDEMO")
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
	v.SetDefault("app.name", "bonddemo")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("engine.base_url", "http://localhost:3001/api")
	v.SetDefault("engine.request_timeout", "10s")
	v.SetDefault("engine.user_agent", "bonddemo/1.0")

	v.SetDefault("oracle.source", OracleSourceEngine)
	v.SetDefault("oracle.decimals", 8)
	v.SetDefault("oracle.currency", "USD")
	v.SetDefault("oracle.chain_label", "Ethereum Mainnet")
	v.SetDefault("oracle.request_timeout", "10s")

	v.SetDefault("poller.interval", "2s")
	v.SetDefault("poller.startup_delay", "0s")

	v.SetDefault("demo.principal", 1000000.0)
	v.SetDefault("demo.currency", "USD")
	v.SetDefault("demo.coupon_rate", 0.05)
	v.SetDefault("demo.maturity_years", 5)
	v.SetDefault("demo.conversion_price", 100.0)
	v.SetDefault("demo.conversion_ratio", int64(10))
	v.SetDefault("demo.step_pause", "2s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

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
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be greater than zero")
	}
	if c.Demo.Principal <= 0 {
		return fmt.Errorf("demo.principal must be greater than zero")
	}
	if c.Demo.CouponRate < 0 {
		return fmt.Errorf("demo.coupon_rate cannot be negative")
	}
	if c.Demo.MaturityYears <= 0 {
		return fmt.Errorf("demo.maturity_years must be greater than zero")
	}
	if c.Demo.ConversionPrice <= 0 {
		return fmt.Errorf("demo.conversion_price must be greater than zero")
	}
	if c.Demo.ConversionRatio <= 0 {
		return fmt.Errorf("demo.conversion_ratio must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	switch c.Oracle.Source {
	case OracleSourceEngine:
	case OracleSourceChain:
		if c.Oracle.RPCURL == "" {
			return fmt.Errorf("oracle.rpc_url is required when oracle.source is %q", OracleSourceChain)
		}
		if c.Oracle.AggregatorAddress == "" {
			return fmt.Errorf("oracle.aggregator_address is required when oracle.source is %q", OracleSourceChain)
		}
	default:
		return fmt.Errorf("oracle.source must be %q or %q", OracleSourceEngine, OracleSourceChain)
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
