package config

import "time"

// SetDefaults fills in any missing configuration values
func SetDefaults(cfg *Config) {
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "printforge.db"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = time.Hour
	}

	if cfg.Planning.HorizonDays == 0 {
		cfg.Planning.HorizonDays = 90
	}
	if cfg.Planning.MakeOrBuyDefault == "" {
		cfg.Planning.MakeOrBuyDefault = "make"
	}
	if cfg.Planning.TriggerMinInterval == 0 {
		cfg.Planning.TriggerMinInterval = 30 * time.Second
	}

	if cfg.UOM.RoundingScale == 0 {
		cfg.UOM.RoundingScale = 6
	}

	if cfg.Events.URL == "" {
		cfg.Events.URL = "nats://localhost:4222"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "printforge"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
