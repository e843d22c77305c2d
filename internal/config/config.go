package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Events   EventsConfig   `mapstructure:"events"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// DispatchConfig holds dispatch loop configuration
type DispatchConfig struct {
	// Interval between periodic dispatch passes
	Interval time.Duration `mapstructure:"interval"`
	// DefaultPause is the delay between sends for campaigns without their
	// own pause_between_emails value
	DefaultPause time.Duration `mapstructure:"default_pause"`
	// Jitter is the fraction applied around each pause, e.g. 0.2 for +/-20%
	Jitter float64 `mapstructure:"jitter"`
}

// OAuthConfig holds the OAuth client credentials used to refresh stored
// sender tokens
type OAuthConfig struct {
	Google    ClientCredentials `mapstructure:"google"`
	Microsoft ClientCredentials `mapstructure:"microsoft"`
}

// ClientCredentials is one OAuth application registration
type ClientCredentials struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// SMTPConfig holds transport-level SMTP settings shared by all SMTP senders
type SMTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries bounds re-attempts on transient errors (timeouts,
	// disconnects). Applies to the SMTP transport only.
	MaxRetries int `mapstructure:"max_retries"`
}

// EventsConfig holds the optional send-outcome event publisher settings.
// An empty AMQPURL disables publishing.
type EventsConfig struct {
	AMQPURL string `mapstructure:"amqp_url"`
	Queue   string `mapstructure:"queue"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mailramp")

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MAILRAMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mailramp")
	v.SetDefault("database.user", "mailramp")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)

	v.SetDefault("dispatch.interval", time.Minute)
	v.SetDefault("dispatch.default_pause", 5*time.Minute)
	v.SetDefault("dispatch.jitter", 0.2)

	v.SetDefault("smtp.timeout", 30*time.Second)
	v.SetDefault("smtp.max_retries", 3)

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.queue", "campaign_events")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
