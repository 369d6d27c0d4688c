package intake

import (
	"fmt"
	"time"

	"lead-intake/internal/common/config"
)

type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FilenamePrefix string        `mapstructure:"filename_prefix"`
	DeferredUpdate bool          `mapstructure:"deferred_update"`
	DeferredDelay  time.Duration `mapstructure:"deferred_delay"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		RequestTimeout: 30 * time.Second,
		FilenamePrefix: "discovery-call",
		DeferredUpdate: false,
		DeferredDelay:  2 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.FilenamePrefix == "" {
		return fmt.Errorf("filename_prefix is required")
	}
	if c.DeferredUpdate && c.DeferredDelay <= 0 {
		return fmt.Errorf("deferred_delay must be positive when deferred_update is enabled")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		cfg.Enabled = appConfig.Intake.Enabled
		if appConfig.Intake.RequestTimeout > 0 {
			cfg.RequestTimeout = config.GetDuration(appConfig.Intake.RequestTimeout)
		}
		if appConfig.Intake.FilenamePrefix != "" {
			cfg.FilenamePrefix = appConfig.Intake.FilenamePrefix
		}
		cfg.DeferredUpdate = appConfig.Intake.DeferredUpdate
		if appConfig.Intake.DeferredDelay > 0 {
			cfg.DeferredDelay = config.GetDuration(appConfig.Intake.DeferredDelay)
		}
	}

	return cfg
}
