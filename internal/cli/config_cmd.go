// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - "config" command: show, set, init, path.

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/markforge/internal/config"
)

// RunConfig dispatches config subcommands.
func RunConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "set":
		return configSet(args)
	case "init":
		return configInit(args)
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return ErrInvalidValue("subcommand", args.Subcommand,
			"expected show, set, init, or path")
	}
}

func configShow(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, _ := config.ConfigPathTOML()

	return OutputJSON(args.JSON, "config show", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(TitleStyle.Render("Configuration"))
			fmt.Println(RenderLabel("Config file") + DimStyle.Render(path))

			fmt.Println(SectionStyle.Render("Catalog"))
			fmt.Println(RenderLabel("  overlay_path") + ValueStyle.Render(cfg.CatalogOverlayPath()))
			fmt.Println(RenderLabel("  watch") + ValueStyle.Render(strconv.FormatBool(cfg.Catalog.Watch)))

			fmt.Println(SectionStyle.Render("Registry"))
			fmt.Println(RenderLabel("  enabled") + ValueStyle.Render(strconv.FormatBool(cfg.Registry.Enabled)))
			fmt.Println(RenderLabel("  path") + ValueStyle.Render(cfg.RegistryPath()))

			fmt.Println(SectionStyle.Render("Audit"))
			fmt.Println(RenderLabel("  enabled") + ValueStyle.Render(strconv.FormatBool(cfg.Audit.Enabled)))
			fmt.Println(RenderLabel("  chain_enabled") + ValueStyle.Render(strconv.FormatBool(cfg.Audit.ChainEnabled)))
			fmt.Println(RenderLabel("  log_path") + ValueStyle.Render(cfg.AuditLogPath()))
			fmt.Println(RenderLabel("  max_size_mb") + ValueStyle.Render(strconv.Itoa(cfg.Audit.MaxSizeMB)))

			fmt.Println(SectionStyle.Render("Server"))
			fmt.Println(RenderLabel("  host") + ValueStyle.Render(cfg.Server.Host))
			fmt.Println(RenderLabel("  port") + ValueStyle.Render(strconv.Itoa(cfg.Server.Port)))
			fmt.Println(RenderLabel("  rate_limit_rps") + ValueStyle.Render(fmt.Sprintf("%.0f", cfg.Server.RateLimitRPS)))

			fmt.Println(SectionStyle.Render("UI"))
			fmt.Println(RenderLabel("  theme") + ValueStyle.Render(cfg.UI.Theme))
			fmt.Println(RenderLabel("  show_preview") + ValueStyle.Render(strconv.FormatBool(cfg.UI.ShowPreview)))
		}
		return cfg, nil
	})
}

func configSet(args Args) error {
	fields := strings.Fields(args.Query)
	if len(fields) < 2 {
		return ErrMissingArgument("key/value", "markforge config set server.port 8247")
	}
	key, value := fields[0], strings.Join(fields[1:], " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyConfigKey(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return WrapError(err, "rejected: the change breaks validation")
	}
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "failed to save configuration")
	}
	config.SetGlobal(cfg)

	if !args.JSON {
		fmt.Printf("%s %s = %s\n", RenderStatus("ok"), key, value)
	}
	return nil
}

// applyConfigKey maps a dotted key to its config field.
func applyConfigKey(cfg *config.Config, key, value string) error {
	setBool := func(dst *bool) error {
		b, err := ParseBoolString(value)
		if err != nil {
			return ErrInvalidValue(key, value, "expected a boolean")
		}
		*dst = b
		return nil
	}
	setInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return ErrInvalidValue(key, value, "expected an integer")
		}
		*dst = n
		return nil
	}

	switch strings.ToLower(key) {
	case "catalog.overlay_path":
		cfg.Catalog.OverlayPath = value
	case "catalog.watch":
		return setBool(&cfg.Catalog.Watch)
	case "catalog.watch_debounce_ms":
		return setInt(&cfg.Catalog.WatchDebounceMS)
	case "registry.enabled":
		return setBool(&cfg.Registry.Enabled)
	case "registry.path":
		cfg.Registry.Path = value
	case "audit.enabled":
		return setBool(&cfg.Audit.Enabled)
	case "audit.chain_enabled":
		return setBool(&cfg.Audit.ChainEnabled)
	case "audit.log_path":
		cfg.Audit.LogPath = value
	case "audit.max_size_mb":
		return setInt(&cfg.Audit.MaxSizeMB)
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		return setInt(&cfg.Server.Port)
	case "server.rate_limit_rps":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ErrInvalidValue(key, value, "expected a number")
		}
		cfg.Server.RateLimitRPS = f
	case "server.rate_limit_burst":
		return setInt(&cfg.Server.RateLimitBurst)
	case "server.request_timeout_secs":
		return setInt(&cfg.Server.RequestTimeoutSecs)
	case "export.pbkdf2_iterations":
		return setInt(&cfg.Export.PBKDF2Iterations)
	case "ui.theme":
		if value != "dark" && value != "light" {
			return ErrInvalidValue(key, value, "expected dark or light")
		}
		cfg.UI.Theme = value
	case "ui.show_preview":
		return setBool(&cfg.UI.ShowPreview)
	case "ui.compact_mode":
		return setBool(&cfg.UI.CompactMode)
	default:
		return ErrInvalidValue("key", key, "unknown configuration key")
	}
	return nil
}

// configInit writes the default config file if none exists.
func configInit(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return ErrInvalidValue("config", path, "config file already exists")
	}

	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return WrapError(err, "failed to write configuration")
	}
	if !args.JSON {
		fmt.Printf("%s wrote default configuration to %s\n", RenderStatus("ok"), path)
	}
	return nil
}
