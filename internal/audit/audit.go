// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit provides an append-only JSON-lines trail of marking
// decisions with HMAC chaining for tamper evidence (NIST 800-53 AU-9).
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the default max file size before rotation (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Actions recorded by the trail.
const (
	ActionRender         = "marking.render"
	ActionAggregate      = "marking.aggregate"
	ActionRegistrySave   = "registry.save"
	ActionRegistryDelete = "registry.delete"
	ActionCatalogReload  = "catalog.reload"
	ActionServerStart    = "server.start"
	ActionServerStop     = "server.stop"
)

// =============================================================================
// EVENT
// =============================================================================

// Event is a single audit trail entry. Prev and Chain form a hash chain
// over the file: Chain is the HMAC-SHA256 of the entry serialized with an
// empty Chain field, and Prev repeats the Chain of the preceding entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Banner    string            `json:"banner,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	Prev      string            `json:"prev,omitempty"`
	Chain     string            `json:"chain,omitempty"`
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger appends events to a JSON-lines file with size-based rotation.
// All methods are safe for concurrent use.
type Logger struct {
	path    string
	file    *os.File
	mu      sync.Mutex
	enabled bool
	maxSize int64
	key     []byte // chain signing key; nil disables chaining
	last    string // chain hash of the most recent entry
}

// NewLogger opens (or creates) the audit trail at path. An empty path
// falls back to DefaultPath.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}

	return &Logger{
		path:    path,
		file:    file,
		enabled: true,
		maxSize: DefaultMaxFileSize,
	}, nil
}

// Disabled returns a logger that drops every event. Used when auditing is
// switched off in the configuration, so callers never need a nil check.
func Disabled() *Logger {
	return &Logger{}
}

// EnableChain turns on HMAC chaining with the given key. The chain resumes
// from the last entry already in the file, so a restart does not break
// verification of the running file.
func (l *Logger) EnableChain(key []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(key) < MinKeyLength {
		return ErrInvalidKey
	}
	l.key = key
	l.last = ""

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read audit trail: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(lines[i]), &e); err == nil {
			l.last = e.Chain
		}
		break
	}
	return nil
}

// =============================================================================
// LOGGING
// =============================================================================

// Log appends an event to the trail. The timestamp is filled in if unset.
// Writes are synced to disk before returning. An enabled trail with no
// open file (closed or failed) returns an error rather than dropping the
// event, so callers can refuse to serve an unrecorded decision.
func (l *Logger) Log(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return nil
	}
	if l.file == nil {
		return errors.New("audit trail is not open")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if err := l.checkRotationLocked(); err != nil {
		return fmt.Errorf("audit rotation failed: %w", err)
	}

	if l.key != nil {
		e.Prev = l.last
		e.Chain = ""
		unsigned, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}
		e.Chain = computeChain(unsigned, l.key)
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if _, err := fmt.Fprintln(l.file, string(line)); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit trail: %w", err)
	}

	if l.key != nil {
		l.last = e.Chain
	}
	return nil
}

// LogRender records a finalized single-portion marking.
func (l *Logger) LogRender(banner string) error {
	return l.Log(Event{Action: ActionRender, Banner: banner})
}

// LogAggregate records a banner computed across portions.
func (l *Logger) LogAggregate(banner string, portions int) error {
	return l.Log(Event{
		Action: ActionAggregate,
		Banner: banner,
		Detail: map[string]string{"portions": strconv.Itoa(portions)},
	})
}

// LogRegistrySave records a marking stored in the registry.
func (l *Logger) LogRegistrySave(documentID, banner string) error {
	return l.Log(Event{
		Action: ActionRegistrySave,
		Banner: banner,
		Detail: map[string]string{"document_id": documentID},
	})
}

// LogRegistryDelete records a registry deletion.
func (l *Logger) LogRegistryDelete(documentID string) error {
	return l.Log(Event{
		Action: ActionRegistryDelete,
		Detail: map[string]string{"document_id": documentID},
	})
}

// LogCatalogReload records a live reload of the country catalog.
func (l *Logger) LogCatalogReload(path string) error {
	return l.Log(Event{
		Action: ActionCatalogReload,
		Detail: map[string]string{"path": path},
	})
}

// LogServerStart records the HTTP service coming up.
func (l *Logger) LogServerStart(addr string) error {
	return l.Log(Event{
		Action: ActionServerStart,
		Detail: map[string]string{"addr": addr},
	})
}

// LogServerStop records the HTTP service shutting down.
func (l *Logger) LogServerStop(addr string) error {
	return l.Log(Event{
		Action: ActionServerStop,
		Detail: map[string]string{"addr": addr},
	})
}

// =============================================================================
// FILE ROTATION
// =============================================================================

// Rotate renames the current file with a timestamp suffix and starts a
// fresh one. A fresh file starts a fresh chain, so rotated files verify
// independently.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rotateLocked()
}

func (l *Logger) rotateLocked() error {
	if l.file == nil {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit trail for rotation: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	rotatedPath := fmt.Sprintf("%s_%s%s", base, timestamp, ext)

	if err := os.Rename(l.path, rotatedPath); err != nil {
		// Reopen the original so logging can continue.
		l.file, _ = os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		return fmt.Errorf("failed to rotate audit trail: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create audit trail after rotation: %w", err)
	}
	l.file = file
	l.last = ""

	return nil
}

// checkRotationLocked rotates when the file has reached the size limit.
func (l *Logger) checkRotationLocked() error {
	if l.maxSize <= 0 {
		return nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return nil
	}
	if info.Size() >= l.maxSize {
		return l.rotateLocked()
	}
	return nil
}

// SetMaxSize sets the maximum file size before rotation.
func (l *Logger) SetMaxSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetEnabled enables or disables logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled returns whether logging is enabled.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Path returns the audit trail file path.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// =============================================================================
// CLEANUP
// =============================================================================

// Close closes the audit trail file and zeros the chain key.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.key != nil {
		zeroBytes(l.key)
		l.key = nil
	}
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Sync flushes the audit trail to disk.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	return l.file.Sync()
}

// =============================================================================
// HELPERS
// =============================================================================

// DefaultPath returns the default audit trail path (~/.markforge/audit.log).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".markforge", "audit.log")
}

// computeChain computes the hex-encoded HMAC-SHA256 of data under key.
func computeChain(data, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
