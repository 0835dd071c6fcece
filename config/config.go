// Package config loads and validates the server configuration from JSON,
// with environment variables taking highest priority.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents the agent tool server configuration.
type Config struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description"`
	Server      Server      `json:"server"`
	Transports  []Transport `json:"transports"`
	Logging     Logging     `json:"logging"`
	Editor      Editor      `json:"editor"`
	Edit        Edit        `json:"edit"`
	Trace       Trace       `json:"trace"`
}

// Server represents server configuration
type Server struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Debug bool   `json:"debug"`
}

// Transport represents a transport configuration
type Transport struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// Logging represents logging configuration
type Logging struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// Editor describes the Godot project the server edits.
type Editor struct {
	ProjectRoot    string   `json:"project_root"`
	DefaultScene   string   `json:"default_scene"`
	FileExtensions []string `json:"file_extensions"`
}

// Edit configures the AI edit pipeline.
type Edit struct {
	PredictionEndpoint string `json:"prediction_endpoint"`
	ContextLines       int    `json:"context_lines"`
	MaxDiffBytes       int    `json:"max_diff_bytes"`
}

// Trace bounds trace and watch sessions.
type Trace struct {
	DefaultMaxEvents int `json:"default_max_events"`
	MaxMaxEvents     int `json:"max_max_events"`
	MaxSessions      int `json:"max_sessions"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return &Config{
		Name:        "godot-agent-tools",
		Version:     "0.1.0",
		Description: "Go-based agent command router for Godot scene editing",
		Server: Server{
			Host:  "localhost",
			Port:  9080,
			Debug: false,
		},
		Transports: []Transport{
			{Type: "stdio", Enabled: true},
			{Type: "http", Enabled: true},
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Path:   filepath.Join(home, ".godot-agent-tools", "logs", "server.log"),
		},
		Editor: Editor{
			ProjectRoot:    "",
			DefaultScene:   "",
			FileExtensions: []string{".tscn", ".gd", ".tres"},
		},
		Edit: Edit{
			PredictionEndpoint: "http://localhost:8000/predict",
			ContextLines:       3,
			MaxDiffBytes:       100000,
		},
		Trace: Trace{
			DefaultMaxEvents: 256,
			MaxMaxEvents:     4096,
			MaxSessions:      16,
		},
	}
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Override with environment variables (highest priority).
	applyEnvOverrides(cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if portStr := os.Getenv("GODOT_TOOLS_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("warning: ignoring invalid GODOT_TOOLS_PORT value %q: %v", portStr, err)
		}
	}

	if host := os.Getenv("GODOT_TOOLS_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if debug := os.Getenv("GODOT_TOOLS_DEBUG"); debug != "" {
		if parsed, err := strconv.ParseBool(debug); err == nil {
			cfg.Server.Debug = parsed
		} else {
			log.Printf("warning: ignoring invalid GODOT_TOOLS_DEBUG value %q: %v", debug, err)
		}
	}

	if logLevel := os.Getenv("GODOT_TOOLS_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if logPath := os.Getenv("GODOT_TOOLS_LOG_PATH"); logPath != "" {
		cfg.Logging.Path = logPath
	}

	if projectRoot := os.Getenv("GODOT_PROJECT_ROOT"); projectRoot != "" {
		cfg.Editor.ProjectRoot = projectRoot
	}

	if defaultScene := os.Getenv("GODOT_TOOLS_DEFAULT_SCENE"); defaultScene != "" {
		cfg.Editor.DefaultScene = defaultScene
	}

	if extensions := os.Getenv("GODOT_TOOLS_FILE_EXTENSIONS"); extensions != "" {
		cfg.Editor.FileExtensions = parseCSV(extensions)
	}

	if endpoint := os.Getenv("GODOT_TOOLS_PREDICTION_ENDPOINT"); endpoint != "" {
		cfg.Edit.PredictionEndpoint = endpoint
	}

	if maxEvents := os.Getenv("GODOT_TOOLS_TRACE_MAX_EVENTS"); maxEvents != "" {
		if parsed, err := strconv.Atoi(maxEvents); err == nil {
			cfg.Trace.DefaultMaxEvents = parsed
		} else {
			log.Printf("warning: ignoring invalid GODOT_TOOLS_TRACE_MAX_EVENTS value %q: %v", maxEvents, err)
		}
	}

	if maxSessions := os.Getenv("GODOT_TOOLS_TRACE_MAX_SESSIONS"); maxSessions != "" {
		if parsed, err := strconv.Atoi(maxSessions); err == nil {
			cfg.Trace.MaxSessions = parsed
		} else {
			log.Printf("warning: ignoring invalid GODOT_TOOLS_TRACE_MAX_SESSIONS value %q: %v", maxSessions, err)
		}
	}
}

// Normalize canonicalizes config values so downstream validation and runtime
// logic operate on stable representations.
func (c *Config) Normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	c.Editor.ProjectRoot = strings.TrimSpace(c.Editor.ProjectRoot)
	c.Editor.DefaultScene = strings.TrimSpace(c.Editor.DefaultScene)
	c.Edit.PredictionEndpoint = strings.TrimSpace(c.Edit.PredictionEndpoint)

	exts := make([]string, 0, len(c.Editor.FileExtensions))
	for _, ext := range c.Editor.FileExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Editor.FileExtensions = exts

	if c.Edit.ContextLines <= 0 {
		c.Edit.ContextLines = 3
	}
	if c.Edit.MaxDiffBytes <= 0 {
		c.Edit.MaxDiffBytes = 100000
	}
	if c.Trace.DefaultMaxEvents <= 0 {
		c.Trace.DefaultMaxEvents = 256
	}
	if c.Trace.MaxMaxEvents <= 0 {
		c.Trace.MaxMaxEvents = 4096
	}
	if c.Trace.MaxSessions <= 0 {
		c.Trace.MaxSessions = 16
	}
	for i := range c.Transports {
		c.Transports[i].Type = strings.ToLower(strings.TrimSpace(c.Transports[i].Type))
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid port number")
	}

	if c.Server.Host == "" {
		return errors.New("host cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return errors.New("invalid log level")
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return errors.New("invalid log format")
	}

	if c.Logging.Path == "" {
		return errors.New("log path cannot be empty")
	}

	if len(c.Transports) == 0 {
		return errors.New("at least one transport must be enabled")
	}

	validTransportTypes := map[string]bool{
		"stdio": true,
		"http":  true,
	}

	enabledTransports := 0
	for _, t := range c.Transports {
		if !validTransportTypes[t.Type] {
			return fmt.Errorf("invalid transport type: %s", t.Type)
		}
		if t.Enabled {
			enabledTransports++
		}
	}

	if enabledTransports == 0 {
		return errors.New("at least one transport must be enabled")
	}

	if c.Trace.DefaultMaxEvents > c.Trace.MaxMaxEvents {
		return fmt.Errorf(
			"invalid trace event caps: default %d exceeds maximum %d",
			c.Trace.DefaultMaxEvents, c.Trace.MaxMaxEvents,
		)
	}

	if c.Trace.MaxSessions < 1 || c.Trace.MaxSessions > 256 {
		return fmt.Errorf("invalid trace max sessions %d: expected range 1..256", c.Trace.MaxSessions)
	}

	return nil
}

// ResolveConfigPath returns the path that should be used for configuration.
func ResolveConfigPath() (string, error) {
	// First check environment variable
	if path := strings.TrimSpace(os.Getenv("GODOT_TOOLS_CONFIG_PATH")); path != "" {
		return path, nil
	}

	// Then check config/tools_config.json in current directory
	if _, err := os.Stat("config/tools_config.json"); err == nil {
		return "config/tools_config.json", nil
	}

	// Finally check home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".godot-agent-tools", "config", "tools_config.json"), nil
}

// EnsureDefaultConfig creates a default config file if one does not exist.
func EnsureDefaultConfig(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path cannot be empty")
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := NewConfig()
	defaultConfig.Normalize()
	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
