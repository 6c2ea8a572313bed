package marketmaker

import "github.com/erain9/tickbook/config"

// ConfigFrom builds a generator config from the synthetic feed settings
func ConfigFrom(sc config.SyntheticConfig, tickSize string) Config {
	cfg := DefaultConfig()
	cfg.Seed = sc.Seed
	cfg.TickSize = tickSize
	cfg.Mid = sc.Mid
	cfg.Levels = sc.Levels
	cfg.HalfSpread = sc.HalfSpread
	cfg.Step = sc.Step
	cfg.OrderSize = sc.OrderSize
	cfg.Volatility = sc.Volatility
	cfg.TakerRate = sc.TakerRate
	return cfg
}
