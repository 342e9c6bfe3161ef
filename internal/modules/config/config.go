package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	envPrefix         = "MACRO"
)

// Config: всё, что читается из configs/*.yaml и MACRO_* переменных.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Service  ServiceConfig  `mapstructure:"service"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Price    PriceConfig    `mapstructure:"price"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug | info
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	HealthAddr  string `mapstructure:"health_addr"`
	ControlAddr string `mapstructure:"control_addr"`
}

type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"`
	ChatID      int64  `mapstructure:"chat_id"`
	Trigger     string `mapstructure:"trigger"` // символ, на который реагируем (точное совпадение)
	PollTimeout int    `mapstructure:"poll_timeout"`
}

type BrowserConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RemoteURL string        `mapstructure:"remote_url"` // ws://127.0.0.1:9222 — подключиться к уже открытому Chrome
	StartURL  string        `mapstructure:"start_url"`
	Headless  bool          `mapstructure:"headless"`
	EventPoll time.Duration `mapstructure:"event_poll"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // file | postgres | sqlite
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type ExitConfig struct {
	Type             string    `mapstructure:"type"` // simple | trailing | split
	SimpleTp         float64   `mapstructure:"simple_tp"`
	TrailingDistance float64   `mapstructure:"trailing_distance"`
	SplitTp          []float64 `mapstructure:"split_tp"`
}

type TradingConfig struct {
	Leverage    float64   `mapstructure:"leverage"`
	PositionPct float64   `mapstructure:"position_pct"`
	SplitEntry  bool      `mapstructure:"split_entry"`
	Positions   []float64 `mapstructure:"positions"` // доли входа частями, %
	StopLossPct float64   `mapstructure:"stop_loss_pct"`

	Exit ExitConfig `mapstructure:"exit"`

	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	MinTradeInterval  time.Duration `mapstructure:"min_trade_interval"`
	MaxExecutionTime  time.Duration `mapstructure:"max_execution_time"`
	WatchdogSchedule  string        `mapstructure:"watchdog_schedule"`
	ExitSchedule      string        `mapstructure:"exit_schedule"`
	ExitGrace         time.Duration `mapstructure:"exit_grace"`
	FallbackDetection bool          `mapstructure:"fallback_detection"`
}

type PriceConfig struct {
	Source  string `mapstructure:"source"` // dom | okx_ws
	InstID  string `mapstructure:"inst_id"`
	WSURL   string `mapstructure:"ws_url"`
	RestURL string `mapstructure:"rest_url"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Host       string  `mapstructure:"host"`
	Port       int     `mapstructure:"port"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("service.name", "macro_trader")
	v.SetDefault("service.health_addr", ":8081")
	v.SetDefault("service.control_addr", ":8080")

	v.SetDefault("telegram.poll_timeout", 30)

	v.SetDefault("browser.event_poll", "150ms")
	v.SetDefault("browser.timeout", "10s")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "data/macros.json")

	v.SetDefault("trading.leverage", 1)
	v.SetDefault("trading.position_pct", 100)
	v.SetDefault("trading.positions", []float64{100, 0, 0})
	v.SetDefault("trading.stop_loss_pct", 2)
	v.SetDefault("trading.exit.type", "simple")
	v.SetDefault("trading.exit.simple_tp", 2)
	v.SetDefault("trading.exit.split_tp", []float64{0, 0, 0})
	v.SetDefault("trading.settle_delay", "200ms")
	v.SetDefault("trading.min_trade_interval", "3s")
	v.SetDefault("trading.max_execution_time", "60s")
	v.SetDefault("trading.watchdog_schedule", "*/5 * * * * *")
	v.SetDefault("trading.exit_schedule", "* * * * * *")
	v.SetDefault("trading.exit_grace", "1s")

	v.SetDefault("price.source", "dom")
	v.SetDefault("price.ws_url", "wss://ws.okx.com:8443/ws/v5/public")
	v.SetDefault("price.rest_url", "https://www.okx.com")

	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
}

// NewConfig: .env -> configs/$CONFIG_FILE -> MACRO_* переменные.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	name := os.Getenv(configFilePathENV)
	if name == "" {
		name = "values_local.yaml"
	}
	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = "configs"
	}
	return Load(dir + "/" + name)
}

// Load читает конкретный файл; отсутствующий файл — не ошибка, работают дефолты и env.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal: %w", err)
	}

	// старые переменные, как раньше
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate: то, без чего дальше ехать нельзя.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required for postgres")
	}
	switch c.Trading.Exit.Type {
	case "simple", "trailing", "split":
	default:
		return fmt.Errorf("config: unknown trading.exit.type %q", c.Trading.Exit.Type)
	}
	if len(c.Trading.Positions) > 3 || len(c.Trading.Exit.SplitTp) > 3 {
		return fmt.Errorf("config: at most 3 split levels")
	}
	switch c.Price.Source {
	case "dom":
	case "okx_ws":
		if c.Price.InstID == "" {
			return fmt.Errorf("config: price.inst_id is required for okx_ws")
		}
	default:
		return fmt.Errorf("config: unknown price.source %q", c.Price.Source)
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("config: telegram.token and telegram.chat_id are required")
	}
	return nil
}
