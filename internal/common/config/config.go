// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	HubSpot       HubSpotConfig      `mapstructure:"hubspot"`
	Intake        IntakeConfig       `mapstructure:"intake"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// HubSpotConfig holds settings for the downstream CRM API. The access token
// is the one required secret; a missing token is surfaced at request time,
// not at startup, so the service can boot without it.
type HubSpotConfig struct {
	AccessToken       string `mapstructure:"access_token"`
	BaseURL           string `mapstructure:"base_url"`
	RequestTimeout    int    `mapstructure:"request_timeout"` // milliseconds, per outbound call
	AssociationTypeID int    `mapstructure:"association_type_id"`
	UploadFolderPath  string `mapstructure:"upload_folder_path"`
}

// IntakeConfig holds settings for the discovery-call intake handler.
type IntakeConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds, whole submission
	FilenamePrefix string `mapstructure:"filename_prefix"`
	DeferredUpdate bool   `mapstructure:"deferred_update"`
	DeferredDelay  int    `mapstructure:"deferred_delay"` // milliseconds
	DedupeTTL      int    `mapstructure:"dedupe_ttl"`     // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether an audit database is configured at all.
func (p PostgresConfig) Enabled() bool {
	return p.Host != "" && p.Database != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether the dedupe cache is configured at all.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// NotificationConfig holds settings for the internal sales notification.
type NotificationConfig struct {
	Email struct {
		Enabled    bool   `mapstructure:"enabled"`
		Region     string `mapstructure:"region"`
		FromEmail  string `mapstructure:"from_email"`
		SalesEmail string `mapstructure:"sales_email"`
	} `mapstructure:"email"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
