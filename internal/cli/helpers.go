// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared wiring for CLI commands: configuration, catalog,
// audit trail, and registry access.

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/markforge/internal/audit"
	"github.com/jeranaias/markforge/internal/catalog"
	"github.com/jeranaias/markforge/internal/config"
	"github.com/jeranaias/markforge/internal/registry"
)

// loadConfig loads the effective configuration. A broken config file is
// fatal for commands that depend on it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapError(err, "failed to load configuration")
	}
	return cfg, nil
}

// openCatalog returns the built-in catalog merged with the configured
// overlay, if one exists.
func openCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogOverlayPath())
	if err != nil {
		return nil, WrapError(err, "failed to load catalog overlay")
	}
	return cat, nil
}

// openAudit returns the configured audit logger, or the disabled logger
// when auditing is off. Chain verification keys are only loaded when
// chaining is enabled.
func openAudit(cfg *config.Config) (*audit.Logger, error) {
	if !cfg.Audit.Enabled {
		return audit.Disabled(), nil
	}

	logger, err := audit.NewLogger(cfg.AuditLogPath())
	if err != nil {
		return nil, WrapError(err, "failed to open audit trail")
	}
	if cfg.Audit.MaxSizeMB > 0 {
		logger.SetMaxSize(int64(cfg.Audit.MaxSizeMB) * 1024 * 1024)
	}

	if cfg.Audit.ChainEnabled {
		dir, err := config.ConfigDir()
		if err != nil {
			logger.Close()
			return nil, err
		}
		key, _, err := audit.LoadKey(dir)
		if err != nil {
			logger.Close()
			return nil, WrapError(err, "audit chaining enabled but no key available")
		}
		if err := logger.EnableChain(key); err != nil {
			logger.Close()
			return nil, err
		}
	}

	return logger, nil
}

// openRegistry opens the configured registry database.
func openRegistry(cfg *config.Config, cat *catalog.Catalog) (*registry.Registry, error) {
	if !cfg.Registry.Enabled {
		return nil, fmt.Errorf("registry is disabled in configuration")
	}
	reg, err := registry.Open(cfg.RegistryPath(), cat.Groups)
	if err != nil {
		return nil, WrapError(err, "failed to open registry")
	}
	return reg, nil
}

// warnStderr prints a warning without disturbing stdout output.
func warnStderr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("[WARN]"), fmt.Sprintf(format, args...))
}
