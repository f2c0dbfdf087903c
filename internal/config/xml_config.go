// Package config provides XML-based configuration for the design review server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "DesignReview.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"DesignReview"`

	Server   ServerConfig   `xml:"Server"`
	Storage  StorageConfig  `xml:"Storage"`
	Upload   UploadConfig   `xml:"Upload"`
	Sessions SessionsConfig `xml:"Sessions"`
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig selects where projects are persisted
type StorageConfig struct {
	// Backend is one of memory, file, sqlite or duckdb.
	Backend       string `xml:"Backend"`
	DataDirectory string `xml:"DataDirectory"`
}

// UploadConfig tunes the simulated progress tracker
type UploadConfig struct {
	// PresetScale multiplies every tick and delay. 1 keeps the stock pacing.
	PresetScale            float64 `xml:"PresetScale"`
	RetainCompletedMinutes int     `xml:"RetainCompletedMinutes"`
}

// SessionsConfig contains chat session limits
type SessionsConfig struct {
	MaxSessions            int `xml:"MaxSessions"`
	IdleTimeoutMinutes     int `xml:"IdleTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	// ReplyDelayMs overrides every surface's reply delay when >= 0.
	ReplyDelayMs int `xml:"ReplyDelayMs"`
}

// AdvancedConfig contains logging and tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	ShowErrorDetails     bool   `xml:"ShowErrorDetails"`
	EnableCompression    bool   `xml:"EnableCompression"`
	CompressionLevel     int    `xml:"CompressionLevel"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "200M",
		},
		Storage: StorageConfig{
			Backend:       "file",
			DataDirectory: "./data",
		},
		Upload: UploadConfig{
			PresetScale:            1,
			RetainCompletedMinutes: 60,
		},
		Sessions: SessionsConfig{
			MaxSessions:            100,
			IdleTimeoutMinutes:     30,
			CleanupIntervalMinutes: 5,
			ReplyDelayMs:           -1,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
	}
}

// LoadConfig loads configuration from an XML file, writing the defaults
// there first if it does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Design Review Server Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects values the server cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "sqlite", "duckdb":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Upload.PresetScale <= 0 {
		return fmt.Errorf("preset scale must be positive, got %v", c.Upload.PresetScale)
	}
	if _, err := zapcore.ParseLevel(c.Advanced.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}
	if backend := os.Getenv("PROJECT_BACKEND"); backend != "" {
		c.Storage.Backend = strings.ToLower(backend)
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetAllowOrigins splits the comma separated origin list. Empty means the
// middleware falls back to its development origins.
func (c *AppConfig) GetAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ReplyDelay returns the configured reply delay override and whether one is set.
func (c *AppConfig) ReplyDelay() (time.Duration, bool) {
	if c.Sessions.ReplyDelayMs < 0 {
		return 0, false
	}
	return time.Duration(c.Sessions.ReplyDelayMs) * time.Millisecond, true
}

// EnsureDirectories creates the data directory
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.DataDirectory, err)
	}
	return nil
}
