// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/markforge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete markforge configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Catalog configuration
	Catalog CatalogConfig `toml:"catalog" json:"catalog"`

	// Registry configuration
	Registry RegistryConfig `toml:"registry" json:"registry"`

	// Audit configuration (AU-2/AU-9)
	Audit AuditConfig `toml:"audit" json:"audit"`

	// Server configuration
	Server ServerConfig `toml:"server" json:"server"`

	// Export configuration (SC-28)
	Export ExportConfig `toml:"export" json:"export"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// CatalogConfig controls the country/group catalog overlay.
type CatalogConfig struct {
	// OverlayPath is the user catalog overlay (empty = ~/.markforge/catalog.yaml)
	OverlayPath string `toml:"overlay_path" json:"overlay_path"`
	// Watch reloads the overlay live when it changes
	Watch bool `toml:"watch" json:"watch"`
	// WatchDebounceMS is the quiet period before a reload fires
	WatchDebounceMS int `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// RegistryConfig controls the finalized-marking registry.
type RegistryConfig struct {
	// Enabled persists finalized markings for later aggregation
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the registry database (empty = ~/.markforge/registry.db)
	Path string `toml:"path" json:"path"`
}

// AuditConfig controls the marking decision log.
type AuditConfig struct {
	// Enabled turns decision logging on
	Enabled bool `toml:"enabled" json:"enabled"`
	// LogPath is the audit log file (empty = ~/.markforge/audit.log)
	LogPath string `toml:"log_path" json:"log_path"`
	// MaxSizeMB rotates the log when it grows past this size
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb"`
	// ChainEnabled signs each record over the previous one (AU-9)
	ChainEnabled bool `toml:"chain_enabled" json:"chain_enabled"`
}

// ServerConfig controls the loopback marking service.
type ServerConfig struct {
	// Host to bind; loopback only by default
	Host string `toml:"host" json:"host"`
	// Port to listen on
	Port int `toml:"port" json:"port"`
	// RateLimitRPS caps request throughput per second (0 = unlimited)
	RateLimitRPS float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	// RateLimitBurst is the token bucket depth
	RateLimitBurst int `toml:"rate_limit_burst" json:"rate_limit_burst"`
	// RequestTimeoutSecs bounds handler time per request
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// ExportConfig controls encrypted registry export.
type ExportConfig struct {
	// PBKDF2Iterations for the export key derivation.
	// OWASP 2023 recommendation for PBKDF2-SHA256 is 600,000.
	PBKDF2Iterations int `toml:"pbkdf2_iterations" json:"pbkdf2_iterations"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is the color theme: "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// ShowPreview renders the live banner/portion preview in the dialog
	ShowPreview bool `toml:"show_preview" json:"show_preview"`
	// CompactMode trims dialog chrome for small terminals
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Catalog: CatalogConfig{
			OverlayPath:     "",
			Watch:           true,
			WatchDebounceMS: 500,
		},

		Registry: RegistryConfig{
			Enabled: true,
			Path:    "",
		},

		Audit: AuditConfig{
			Enabled:      true,
			LogPath:      "",
			MaxSizeMB:    10,
			ChainEnabled: true, // AU-9: tamper-evident by default
		},

		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8247,
			RateLimitRPS:       20,
			RateLimitBurst:     40,
			RequestTimeoutSecs: 10,
		},

		Export: ExportConfig{
			PBKDF2Iterations: 600000,
		},

		UI: UIConfig{
			Theme:       "dark",
			ShowPreview: true,
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the markforge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".markforge"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir creates the configuration directory if absent.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// defaultPath joins name onto the config directory, tolerating a missing
// home by returning name bare.
func defaultPath(name string) string {
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// CatalogOverlayPath resolves the catalog overlay location.
func (c *Config) CatalogOverlayPath() string {
	return c.resolvePath(c.Catalog.OverlayPath, "catalog.yaml")
}

// RegistryPath resolves the registry database location.
func (c *Config) RegistryPath() string {
	return c.resolvePath(c.Registry.Path, "registry.db")
}

// AuditLogPath resolves the audit log location.
func (c *Config) AuditLogPath() string {
	return c.resolvePath(c.Audit.LogPath, "audit.log")
}

func (c *Config) resolvePath(configured, name string) string {
	if configured == "" {
		return defaultPath(name)
	}
	expanded, err := util.ExpandPath(configured)
	if err != nil {
		return configured
	}
	return expanded
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from disk, preferring TOML over JSON, and
// falls back to defaults when no file exists. Environment overrides,
// defaults, and validation apply on every path.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err := finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads TOML configuration from path into cfg.
func LoadTOML(cfg *Config, path string) error {
	// SECURITY: Check and fix file permissions if needed
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// LoadJSON loads JSON configuration from path into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// LoadFromPath loads configuration from an explicit file, dispatching on
// the extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = LoadTOML(cfg, path)
	case ".json":
		err = LoadJSON(cfg, path)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return nil, err
	}
	return finishLoad(cfg)
}

// ensureSecurePermissions tightens config file permissions to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default TOML location.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# markforge configuration file")
	fmt.Fprintln(file, "# Generated by markforge - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULT FILLING AND VALIDATION
// =============================================================================

// SetDefaults fills zero values that a partial config file left unset.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Catalog.WatchDebounceMS == 0 {
		c.Catalog.WatchDebounceMS = d.Catalog.WatchDebounceMS
	}
	if c.Audit.MaxSizeMB == 0 {
		c.Audit.MaxSizeMB = d.Audit.MaxSizeMB
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = d.Server.RequestTimeoutSecs
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = d.Server.RateLimitBurst
	}
	if c.Export.PBKDF2Iterations == 0 {
		c.Export.PBKDF2Iterations = d.Export.PBKDF2Iterations
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Catalog.WatchDebounceMS < 0 {
		errs = append(errs, ValidationError{
			Field:   "catalog.watch_debounce_ms",
			Message: "debounce cannot be negative",
		})
	}

	if c.Audit.MaxSizeMB <= 0 {
		errs = append(errs, ValidationError{
			Field:   "audit.max_size_mb",
			Message: "rotation size must be positive",
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("invalid port %d, must be 1-65535", c.Server.Port),
		})
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_rps",
			Message: "rate limit cannot be negative",
		})
	}
	if c.Server.RateLimitBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_burst",
			Message: "burst cannot be negative",
		})
	}
	if c.Server.RequestTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: "timeout must be at least 1 second",
		})
	}

	// OWASP minimum for PBKDF2-SHA256; lower values weaken export keys.
	if c.Export.PBKDF2Iterations < 210000 {
		errs = append(errs, ValidationError{
			Field:   "export.pbkdf2_iterations",
			Message: fmt.Sprintf("%d iterations is below the 210000 floor", c.Export.PBKDF2Iterations),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies MARKFORGE_* environment variables over the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	// MARKFORGE_CATALOG
	if path := os.Getenv("MARKFORGE_CATALOG"); path != "" {
		c.Catalog.OverlayPath = path
	}

	// MARKFORGE_CATALOG_WATCH
	if watch := os.Getenv("MARKFORGE_CATALOG_WATCH"); watch != "" {
		c.Catalog.Watch = envBool(watch)
	}

	// MARKFORGE_REGISTRY
	if path := os.Getenv("MARKFORGE_REGISTRY"); path != "" {
		c.Registry.Path = path
	}

	// MARKFORGE_AUDIT (path) and MARKFORGE_NO_AUDIT (kill switch)
	if path := os.Getenv("MARKFORGE_AUDIT"); path != "" {
		c.Audit.LogPath = path
	}
	if off := os.Getenv("MARKFORGE_NO_AUDIT"); off != "" {
		c.Audit.Enabled = !envBool(off)
	}

	// MARKFORGE_HOST / MARKFORGE_PORT
	if host := os.Getenv("MARKFORGE_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("MARKFORGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// MARKFORGE_THEME
	if theme := os.Getenv("MARKFORGE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

func envBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// UTILITIES
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// String renders the configuration as TOML for display.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Sprintf("config encode error: %v", err)
	}
	return sb.String()
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	// Consume the once so a later Global() cannot overwrite this.
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
