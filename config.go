package dihelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golobby/config/v3"
)

// ConfigSection is the key the container configuration lives under in
// YAML, TOML and JSON files.
const ConfigSection = "dihelper"

const defaultHistoryLimit = 20

// Config tunes the provider. Every field has a usable default so an empty
// config is valid.
//
// Example YAML:
//
//	dihelper:
//	  shutdownTimeout: 10s
//	  historyLimit: 50
//	  historyRetention: 1h
//	  beans:
//	    sum:
//	      run:
//	        delay: 5
//	        repetitionPeriod: 60
//	        timeUnit: seconds
type Config struct {
	// ShutdownTimeout bounds how long Shutdown waits for in-flight run
	// actions. Zero selects the default.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" toml:"shutdown_timeout" json:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gte=0"`

	// AllowOverlappingRuns lets a recurring run action start while its
	// previous invocation is still going.
	AllowOverlappingRuns bool `yaml:"allowOverlappingRuns" toml:"allow_overlapping_runs" json:"allowOverlappingRuns" env:"ALLOW_OVERLAPPING_RUNS"`

	// HistoryLimit is the number of run executions kept per bean. Nil
	// selects the default; 0 keeps nothing.
	HistoryLimit *int `yaml:"historyLimit" toml:"history_limit" json:"historyLimit" env:"HISTORY_LIMIT" default:"20" validate:"omitnil,gte=0"`

	// HistoryRetention drops finished run executions older than this after
	// every run. Zero keeps them until HistoryLimit evicts them.
	HistoryRetention time.Duration `yaml:"historyRetention" toml:"history_retention" json:"historyRetention" env:"HISTORY_RETENTION" validate:"gte=0"`

	// Beans overrides the lifecycle settings of registered beans by name.
	Beans map[string]BeanOverride `yaml:"beans" toml:"beans" json:"beans" validate:"dive"`
}

// BeanOverride replaces parts of a bean's lifecycle settings. Nil sections
// and nil fields keep what the bean was declared with.
type BeanOverride struct {
	Init  *PhaseOverride `yaml:"init" toml:"init" json:"init"`
	Run   *RunOverride   `yaml:"run" toml:"run" json:"run"`
	Close *PhaseOverride `yaml:"close" toml:"close" json:"close"`
}

// PhaseOverride overrides an init or close config.
type PhaseOverride struct {
	Enabled *bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	Order   *int  `yaml:"order" toml:"order" json:"order"`
}

// RunOverride overrides a run config.
type RunOverride struct {
	Enabled          *bool     `yaml:"enabled" toml:"enabled" json:"enabled"`
	Delay            *int64    `yaml:"delay" toml:"delay" json:"delay" validate:"omitnil,gte=0"`
	RepetitionPeriod *int64    `yaml:"repetitionPeriod" toml:"repetition_period" json:"repetitionPeriod" validate:"omitnil,gte=0"`
	TimeUnit         *TimeUnit `yaml:"timeUnit" toml:"time_unit" json:"timeUnit"`
}

func (o BeanOverride) apply(s *beanSettings) {
	if o.Init != nil {
		o.Init.apply(&s.init.Enabled, &s.init.Order)
	}
	if o.Close != nil {
		o.Close.apply(&s.close.Enabled, &s.close.Order)
	}
	if r := o.Run; r != nil {
		if r.Enabled != nil {
			s.run.Enabled = *r.Enabled
		}
		if r.Delay != nil {
			s.run.Delay = *r.Delay
		}
		if r.RepetitionPeriod != nil {
			s.run.RepetitionPeriod = *r.RepetitionPeriod
		}
		if r.TimeUnit != nil {
			s.run.TimeUnit = *r.TimeUnit
		}
	}
}

func (o *PhaseOverride) apply(enabled *bool, order *int) {
	if o.Enabled != nil {
		*enabled = *o.Enabled
	}
	if o.Order != nil {
		*order = *o.Order
	}
}

// Validate checks what struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	for name, o := range c.Beans {
		if o.Run != nil && o.Run.TimeUnit != nil && !o.Run.TimeUnit.Valid() {
			errs = append(errs, fmt.Errorf("bean %q: %w: %d", name, ErrInvalidTimeUnit, int(*o.Run.TimeUnit)))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) historyLimit() int {
	if c.HistoryLimit == nil {
		return defaultHistoryLimit
	}
	return *c.HistoryLimit
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	// The defaults are constants; they always parse.
	_ = ProcessConfigDefaults(cfg)
	return cfg
}

// Feeder aliases
type Feeder = config.Feeder

// ComplexFeeder is a feeder that can populate a single section of a source.
type ComplexFeeder interface {
	Feeder
	FeedKey(string, any) error
}

// ConfigBuilder combines feeders and fills every registered section from
// them, in feeder order, before applying defaults and validating.
type ConfigBuilder struct {
	*config.Config
	StructKeys map[string]any
}

// NewConfigBuilder creates an empty builder.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		Config:     config.New(),
		StructKeys: make(map[string]any),
	}
}

// AddStructKey registers target to be filled from the section named key.
func (c *ConfigBuilder) AddStructKey(key string, target any) *ConfigBuilder {
	c.StructKeys[key] = target
	return c
}

// Feed runs every feeder, then applies defaults and validates each section.
func (c *ConfigBuilder) Feed() error {
	if err := c.Config.Feed(); err != nil {
		return fmt.Errorf("config feed error: %w", err)
	}

	for key, target := range c.StructKeys {
		for _, f := range c.Feeders {
			cf, ok := f.(ComplexFeeder)
			if !ok {
				continue
			}

			if err := cf.FeedKey(key, target); err != nil {
				return fmt.Errorf("%w: section %s: %w", ErrConfigFeederError, key, err)
			}
		}

		if err := ValidateConfig(target); err != nil {
			return fmt.Errorf("config validation error for %s: %w", key, err)
		}
	}

	return nil
}

// LoadConfig reads the container configuration from the given feeders. Later
// feeders override earlier ones.
func LoadConfig(feeders ...Feeder) (*Config, error) {
	cfg := &Config{}

	builder := NewConfigBuilder()
	builder.AddFeeder(feeders...)
	builder.AddStructKey(ConfigSection, cfg)

	if err := builder.Feed(); err != nil {
		return nil, err
	}
	return cfg, nil
}
