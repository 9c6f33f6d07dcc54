// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - "serve" command: local HTTP marking service.
//
// Wires the configured catalog (with live overlay reload), the audit
// trail, and the rate-limited loopback server together, then runs until
// interrupted.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/markforge/internal/catalog"
	"github.com/jeranaias/markforge/internal/server"
)

// RunServe starts the HTTP marking service.
func RunServe(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	logger, err := openAudit(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	p := NewArgParser(args.Raw)
	host := p.FlagOrDefault("host", cfg.Server.Host)
	port := p.FlagIntOrDefault("port", cfg.Server.Port)

	srv := server.NewServer(port).
		WithHost(host).
		WithCatalog(cat).
		WithAudit(logger).
		WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst).
		WithTimeout(time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second)

	// Overlay edits reach the running server without a restart.
	var watcher catalog.Watcher
	if cfg.Catalog.Watch {
		overlay := cfg.CatalogOverlayPath()
		debounce := time.Duration(cfg.Catalog.WatchDebounceMS) * time.Millisecond
		watcher, err = catalog.NewWatcher(overlay, debounce, func(c *catalog.Catalog) {
			srv.WithCatalog(c)
			logger.LogCatalogReload(overlay)
			if args.Verbose {
				warnStderr("catalog overlay reloaded from %s", overlay)
			}
		})
		if err != nil {
			warnStderr("catalog watcher unavailable: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if !args.Quiet {
		fmt.Printf("%s markforge service listening on %s\n", RenderStatus("ok"), srv.Addr())
		fmt.Println(DimStyle.Render("  POST /v1/markings/render     POST /v1/markings/aggregate"))
		fmt.Println(DimStyle.Render("  GET  /v1/catalog/countries   GET  /v1/catalog/groups"))
		fmt.Println(DimStyle.Render("  ctrl-c to stop"))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "start", "server failed", err)
		}
		return nil
	case sig := <-sigCh:
		if !args.Quiet {
			StderrPrintln(fmt.Sprintf("received %s, shutting down", sig))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return NewCommandError("serve", "shutdown", "graceful shutdown failed", err)
	}
	return nil
}
