package config

import "time"

// InventoryConfig holds the deployment-level inventory policy
type InventoryConfig struct {
	// AllowNegativeOnHand permits flagged adjustments to push on-hand below zero
	AllowNegativeOnHand bool `mapstructure:"allow_negative_on_hand"`
	// AllowOversell permits reserved quantity to exceed on-hand
	AllowOversell bool `mapstructure:"allow_oversell"`
}

// PlanningConfig holds the planning engine settings
type PlanningConfig struct {
	// HorizonDays bounds how far ahead demand is planned
	HorizonDays int `mapstructure:"horizon_days" validate:"min=1"`
	// IncludeSafetyStock plans safety-stock deficits as immediate demand
	IncludeSafetyStock bool `mapstructure:"include_safety_stock"`
	// CascadeSubAssemblies offsets component need dates by parent lead times
	CascadeSubAssemblies bool `mapstructure:"cascade_sub_assemblies"`
	// MakeOrBuyDefault resolves make_or_buy items: "make" or "buy"
	MakeOrBuyDefault string `mapstructure:"make_or_buy_default" validate:"oneof=make buy"`
	// TriggerMinInterval is the floor between event-triggered planning runs
	TriggerMinInterval time.Duration `mapstructure:"trigger_min_interval"`
}

// ProductionConfig holds the production lifecycle policy
type ProductionConfig struct {
	// AutoReadyToShipOnCompletion flips a pegged sales order to ready_to_ship
	// after a QC pass once every line is coverable from stock
	AutoReadyToShipOnCompletion bool `mapstructure:"auto_ready_to_ship_on_completion"`
}

// UOMConfig holds the unit-conversion settings
type UOMConfig struct {
	// RoundingScale is the banker's-rounding scale for unit conversions
	RoundingScale int `mapstructure:"rounding_scale" validate:"min=1,max=12"`
}

// EventsConfig holds the NATS event bus settings
type EventsConfig struct {
	// Enabled wires the NATS publisher; when false events are dropped
	Enabled bool `mapstructure:"enabled"`
	// URL is the NATS server address
	URL string `mapstructure:"url"`
	// SubjectPrefix prefixes every published subject
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// MetricsConfig holds the Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}
