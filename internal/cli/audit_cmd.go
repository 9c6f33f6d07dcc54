// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - "audit" command: trail inspection and chain management.

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/markforge/internal/audit"
	"github.com/jeranaias/markforge/internal/config"
)

// RunAudit dispatches audit subcommands.
func RunAudit(args Args) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch args.Subcommand {
	case "", "show":
		return auditShow(args, cfg)
	case "verify":
		return auditVerify(args, cfg)
	case "key":
		return auditKey(args)
	case "rotate":
		return auditRotate(args, cfg)
	case "path":
		fmt.Println(cfg.AuditLogPath())
		return nil
	default:
		return ErrInvalidValue("subcommand", args.Subcommand,
			"expected show, verify, key, rotate, or path")
	}
}

// auditShow prints the most recent trail entries.
func auditShow(args Args, cfg *config.Config) error {
	path := cfg.AuditLogPath()
	lines := NewArgParser(args.Raw).FlagIntOrDefault("lines", 50)

	events, err := readTrail(path, lines)
	if err != nil {
		return err
	}

	return OutputJSON(args.JSON, "audit show", func() (interface{}, error) {
		if !args.JSON {
			if len(events) == 0 {
				fmt.Println(DimStyle.Render("audit trail is empty"))
				return nil, nil
			}
			fmt.Println(TitleStyle.Render("Audit Trail"))
			for _, e := range events {
				line := fmt.Sprintf("  %s %-18s %s",
					DimStyle.Render(e.Timestamp.Format("2006-01-02 15:04:05")),
					ValueStyle.Render(e.Action),
					MarkingStyle.Render(e.Banner))
				fmt.Println(strings.TrimRight(line, " "))
			}
		}
		entries := make([]interface{}, len(events))
		for i, e := range events {
			entries[i] = e
		}
		return AuditShowData{Path: path, Entries: entries}, nil
	})
}

// readTrail reads the last n events from a JSON-lines trail file. Lines
// that fail to parse are kept as a count rather than aborting the read;
// a damaged line is exactly what an operator runs this command to find.
func readTrail(path string, n int) ([]audit.Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(err, "failed to open audit trail")
	}
	defer f.Close()

	var events []audit.Event
	damaged := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e audit.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			damaged++
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, WrapError(err, "failed to read audit trail")
	}
	if damaged > 0 {
		warnStderr("%d unparseable entries in %s", damaged, path)
	}

	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// auditVerify checks the HMAC chain over the trail.
func auditVerify(args Args, cfg *config.Config) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	key, source, err := audit.LoadKey(dir)
	if err != nil {
		return WrapError(err, "cannot verify without the chain key")
	}

	report, err := audit.VerifyFile(cfg.AuditLogPath(), key)
	if err != nil {
		return err
	}

	return OutputJSON(args.JSON, "audit verify", func() (interface{}, error) {
		if !args.JSON {
			status := "ok"
			if !report.Verified {
				status = "fail"
			}
			fmt.Printf("%s %d entries checked (key source: %s)\n", RenderStatus(status), report.Entries, source)
			for _, issue := range report.Issues {
				fmt.Println("  " + ErrorStyle.Render(issue))
			}
		}
		if !report.Verified {
			return report, fmt.Errorf("audit chain verification failed")
		}
		return report, nil
	})
}

// auditKey manages the chain signing key.
func auditKey(args Args) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	keyPath := filepath.Join(dir, audit.KeyFileName)

	sub := ""
	if fields := strings.Fields(args.Query); len(fields) > 0 {
		sub = fields[0]
	}

	switch sub {
	case "init":
		if _, err := os.Stat(keyPath); err == nil {
			return ErrInvalidValue("key", keyPath, "key file already exists; remove it first to rotate")
		}
		if err := audit.GenerateAndSaveKey(keyPath); err != nil {
			return WrapError(err, "failed to generate chain key")
		}
		key, _, err := audit.LoadKey(dir)
		if err != nil {
			return err
		}
		fmt.Printf("%s chain key written to %s (fingerprint %s)\n",
			RenderStatus("ok"), keyPath, audit.Fingerprint(key))
		return nil

	case "", "show":
		key, source, err := audit.LoadKey(dir)
		if err != nil {
			return WrapError(err, "no chain key configured")
		}
		fmt.Println(RenderLabel("Source") + ValueStyle.Render(string(source)))
		fmt.Println(RenderLabel("Fingerprint") + ValueStyle.Render(audit.Fingerprint(key)))
		return nil

	default:
		return ErrInvalidValue("subcommand", sub, "expected init or show")
	}
}

// auditRotate forces a trail rotation.
func auditRotate(args Args, cfg *config.Config) error {
	logger, err := openAudit(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	if !logger.IsEnabled() {
		return fmt.Errorf("audit trail is disabled in configuration")
	}
	if err := logger.Rotate(); err != nil {
		return WrapError(err, "rotation failed")
	}
	if !args.JSON {
		fmt.Printf("%s trail rotated; new chain started at %s\n", RenderStatus("ok"), logger.Path())
	}
	return nil
}
