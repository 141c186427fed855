package app

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Constants
const (
	DateLayout = "2006-01-02"

	// The displayed window: 24 months starting at April of the fiscal year.
	WindowMonths     = 24
	FiscalStartMonth = 4

	// Deadline type tags as emitted by the scrape pipeline
	TypeSubmission   = "submission"
	TypeNotification = "notification"
	TypeCameraReady  = "camera_ready"
	TypeConference   = "conference"

	// Error messages
	ErrDataUnavailable  = "Conference data unavailable"
	ErrUnknownConf      = "Unknown conference"
	ErrInvalidFormat    = "Invalid format"
	ErrInternalServer   = "Internal server error"
	ErrFailedToGenerate = "Failed to generate export"

	// ICS constants
	ICSProductID = "-//CFP-Kalender//Conference Deadlines//EN"
	ICSTimezone  = "Asia/Tokyo"
)

// Config defines the service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Store  StoreConfig  `yaml:"store"`
	Auth   AuthConfig   `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig names the feed sources. Primary and Fallback may each be an
// http(s) URL or a local file path.
type DataConfig struct {
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	File string `yaml:"file"`
}

// LoadConfig reads configuration from an optional YAML file and CFPKAL_*
// environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Data: DataConfig{
			Primary:  "conferences_with_cfp.json",
			Fallback: "conferences_base.json",
		},
		Store: StoreConfig{
			Path: "cfp-kalender.db",
		},
	}

	if path := os.Getenv("CFPKAL_CONFIG_PATH"); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CFPKAL_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CFPKAL_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CFPKAL_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if primary := os.Getenv("CFPKAL_DATA_PRIMARY"); primary != "" {
		cfg.Data.Primary = primary
	}
	if fallback := os.Getenv("CFPKAL_DATA_FALLBACK"); fallback != "" {
		cfg.Data.Fallback = fallback
	}
	if storePath := os.Getenv("CFPKAL_STORE_PATH"); storePath != "" {
		cfg.Store.Path = storePath
	}
	if authFile := os.Getenv("CFPKAL_AUTH_FILE"); authFile != "" {
		cfg.Auth.File = authFile
	}

	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
