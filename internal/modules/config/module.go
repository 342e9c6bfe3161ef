package config

import "go.uber.org/fx"

// Module: *Config и его секции как отдельные провайдеры.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
			func(c *Config) TradingConfig { return c.Trading },
			func(c *Config) TelegramConfig { return c.Telegram },
			func(c *Config) BrowserConfig { return c.Browser },
			func(c *Config) StorageConfig { return c.Storage },
			func(c *Config) PriceConfig { return c.Price },
			func(c *Config) ServiceConfig { return c.Service },
			func(c *Config) TracingConfig { return c.Tracing },
		),
	)
}
