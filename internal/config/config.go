// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the quote relay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultMaxBodySize is 10 MB in bytes, matching the upload limit the
// marketing site's form enforces client-side.
const defaultMaxBodySize = 10485760

// defaultSMTPPort is the implicit-TLS submission port.
const defaultSMTPPort = 465

// defaultSendTimeoutSeconds bounds a single mail send.
const defaultSendTimeoutSeconds = 30

// Config holds the complete application configuration.
type Config struct {
	Provider string        `yaml:"provider"`
	HTTP     HTTPConfig    `yaml:"http"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	SES      SESConfig     `yaml:"ses"`
	Mail     MailConfig    `yaml:"mail"`
	TLS      TLSConfig     `yaml:"tls"`
	Logging  LoggingConfig `yaml:"logging"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Listen      string `yaml:"listen"`
	MaxBodySize int64  `yaml:"max_body_size"`
	CORSOrigin  string `yaml:"cors_origin"`
}

// SMTPConfig holds the outbound SMTP submission credentials.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SESConfig holds AWS SES v2 configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// MailConfig holds the addressing for the two outbound emails.
type MailConfig struct {
	// Sender is the From address. Defaults to the SMTP username.
	Sender string `yaml:"sender"`

	// Receiver is the owner notification destination. Always configuration,
	// never a hardcoded literal.
	Receiver string `yaml:"receiver"`

	// SendTimeoutSeconds bounds each individual mail send.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`
}

// TLSConfig holds TLS certificate file paths for the HTTPS endpoint.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	cfg.finalize()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()
	cfg.finalize()

	return cfg, nil
}

// SMTPConfigured returns true if the SMTP transport has enough settings to dial.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" &&
		c.SMTP.Username != "" &&
		c.SMTP.Password != ""
}

// SESConfigured returns true if the SES transport is usable.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// SendTimeout returns the per-send timeout as a duration.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Mail.SendTimeoutSeconds) * time.Second
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":8080"
	c.HTTP.MaxBodySize = defaultMaxBodySize
	c.SMTP.Port = defaultSMTPPort
	c.Mail.SendTimeoutSeconds = defaultSendTimeoutSeconds
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.HTTP.MaxBodySize = size
		}
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		c.HTTP.CORSOrigin = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.Mail.Sender = v
	}
	if v := os.Getenv("RECEIVER_EMAIL"); v != "" {
		c.Mail.Receiver = v
	}
	if v := os.Getenv("SEND_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			c.Mail.SendTimeoutSeconds = seconds
		}
	}

	if v := os.Getenv("TLS_ENABLED"); v != "" {
		c.TLS.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// finalize resolves cross-field defaults after both layers applied.
func (c *Config) finalize() {
	if c.Mail.Sender == "" {
		c.Mail.Sender = c.SMTP.Username
	}
}
