package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Extraction ExtractionConfig
	Server     ServerConfig
	Export     ExportConfig
	Log        LogConfig
}

// ExtractionConfig points at the remote extraction service
type ExtractionConfig struct {
	ServerURL string
	APIKey    string
	Timeout   time.Duration
}

// ServerConfig holds web UI related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// ExportConfig holds export related configuration
type ExportConfig struct {
	Format string
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			ServerURL: strings.TrimRight(getEnv("SERVER_URL", ""), "/"),
			APIKey:    getEnv("API_KEY", ""),
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", 5*time.Minute),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":9090"),
			SessionTTL:     getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 64<<20),
		},
		Export: ExportConfig{
			Format: strings.ToLower(getEnv("EXPORT_FORMAT", "csv")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("SERVER_URL", c.Extraction.ServerURL, Required, HTTPURL).
		Field("API_KEY", c.Extraction.APIKey, Required).
		Field("EXPORT_FORMAT", c.Export.Format, OneOf("csv", "xlsx"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// ValidateServer additionally checks the settings only the web UI needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
