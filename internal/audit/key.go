// key.go - NIST 800-53 AU-9: audit HMAC key management
//
// Loads the chain signing key from the environment or from a
// permission-checked key file. There is no fallback key: chaining with an
// unconfigured key is refused rather than silently weakened.
//
// Key source priority:
//  1. MARKFORGE_AUDIT_HMAC_KEY (hex-encoded, preferred for production)
//  2. File named by MARKFORGE_AUDIT_HMAC_KEY_FILE
//  3. Default key file in the markforge data directory
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jeranaias/markforge/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// KeyEnvVar is the environment variable holding a hex-encoded HMAC key.
const KeyEnvVar = "MARKFORGE_AUDIT_HMAC_KEY"

// KeyFileEnvVar is the environment variable naming a key file path.
const KeyFileEnvVar = "MARKFORGE_AUDIT_HMAC_KEY_FILE"

// MinKeyLength is the minimum key length in bytes (256 bits).
const MinKeyLength = 32

// KeyFileName is the default key file name.
const KeyFileName = ".audit_hmac_key"

// KeySource identifies where the HMAC key was loaded from.
type KeySource string

const (
	// KeySourceEnv indicates the key came from the environment variable.
	KeySourceEnv KeySource = "environment"
	// KeySourceFile indicates the key came from a file.
	KeySourceFile KeySource = "file"
	// KeySourceNone indicates no key was found.
	KeySourceNone KeySource = "none"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoKeyConfigured is returned when no HMAC key is available.
var ErrNoKeyConfigured = fmt.Errorf("no audit HMAC key configured - set %s or provide a key file", KeyEnvVar)

// ErrInvalidKey is returned when the key is too short or malformed.
var ErrInvalidKey = fmt.Errorf("invalid HMAC key: must be at least %d bytes", MinKeyLength)

// ErrKeyFilePermissions is returned when the key file is readable by others.
var ErrKeyFilePermissions = errors.New("key file has insecure permissions - must be 0600 or more restrictive")

// =============================================================================
// KEY LOADING
// =============================================================================

// LoadKey loads the HMAC key from the configured sources in priority
// order. keyDir is where the default key file lives. No key is ever
// generated here; missing configuration returns ErrNoKeyConfigured.
func LoadKey(keyDir string) ([]byte, KeySource, error) {
	// A set but invalid environment key fails immediately instead of
	// falling through to weaker sources.
	if key, err := loadKeyFromEnv(); err == nil {
		return key, KeySourceEnv, nil
	} else if os.Getenv(KeyEnvVar) != "" {
		return nil, KeySourceNone, err
	}

	if path := os.Getenv(KeyFileEnvVar); path != "" {
		key, err := loadKeyFromFile(path)
		if err != nil {
			return nil, KeySourceNone, fmt.Errorf("failed to load key from %s: %w", path, err)
		}
		return key, KeySourceFile, nil
	}

	defaultFile := filepath.Join(keyDir, KeyFileName)
	if key, err := loadKeyFromFile(defaultFile); err == nil {
		return key, KeySourceFile, nil
	}

	return nil, KeySourceNone, ErrNoKeyConfigured
}

// loadKeyFromEnv reads the key from the environment variable. Only
// hex-encoded keys are accepted, so a weak passphrase cannot be pasted in
// as raw bytes.
func loadKeyFromEnv() ([]byte, error) {
	keyStr := os.Getenv(KeyEnvVar)
	if keyStr == "" {
		return nil, fmt.Errorf("environment variable %s not set", KeyEnvVar)
	}

	key, err := hex.DecodeString(keyStr)
	if err != nil {
		return nil, fmt.Errorf("HMAC key must be hex-encoded (64+ hex characters for 256+ bits): %w", err)
	}
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("HMAC key must be at least %d bytes (256 bits), got %d bytes", MinKeyLength, len(key))
	}
	return key, nil
}

// loadKeyFromFile reads a raw key file after checking its permissions.
func loadKeyFromFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("key file not found: %w", err)
	}

	if err := checkKeyFilePermissions(info, path); err != nil {
		return nil, err
	}

	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}
	return key, nil
}

// checkKeyFilePermissions verifies the key file is not accessible beyond
// its owner. On Windows this requires an ACL walk instead of mode bits.
func checkKeyFilePermissions(info os.FileInfo, path string) error {
	if runtime.GOOS == "windows" {
		if err := verifyWindowsACL(path); err != nil {
			return fmt.Errorf("key file has insecure permissions: %w", err)
		}
		return nil
	}

	// 0600 or 0400 only. Any group or world bits are insecure.
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf("%w: file %s has mode %o, should be 0600 or 0400", ErrKeyFilePermissions, path, mode)
	}
	return nil
}

// =============================================================================
// KEY GENERATION
// =============================================================================

// GenerateKey generates a new random 256-bit HMAC key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, MinKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateAndSaveKey generates a new key and writes it to path with 0600
// permissions. Meant for first-run setup; LoadKey never calls it.
func GenerateAndSaveKey(path string) error {
	key, err := GenerateKey()
	if err != nil {
		return err
	}
	defer zeroBytes(key)

	if err := util.AtomicWriteFileWithDir(path, key, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "[AU-9 INFO] Generated new audit HMAC key at %s\n", path)
	fmt.Fprintf(os.Stderr, "[AU-9 INFO] Key fingerprint: %s\n", Fingerprint(key))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Fingerprint derives a short identifier from a key without exposing any
// key bytes.
func Fingerprint(key []byte) string {
	h := sha256.Sum256(key)
	return hex.EncodeToString(h[:4])
}

// zeroBytes overwrites sensitive byte slices before release.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
