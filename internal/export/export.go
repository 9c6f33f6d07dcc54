// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export moves registry contents between machines as a single
// passphrase-encrypted file (NIST 800-53 SC-28):
//
//   - AES-256-GCM authenticated encryption
//   - PBKDF2-SHA-256 key derivation
//
// The envelope is one line of text. Salt and iteration count travel
// inside it, so a file written on one machine opens on any other with
// nothing but the passphrase:
//
//	ENC:PBKDF2:v1:<iterations>:<base64 salt>:<base64 nonce|ciphertext|tag>
package export

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/markforge/internal/util"
)

// =============================================================================
// SECURITY HELPER FUNCTIONS
// =============================================================================

// ZeroBytes securely zeros sensitive byte slices to prevent memory disclosure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks an encrypted export envelope.
const EncryptedPrefix = "ENC:PBKDF2:"

// FormatVersion is the current envelope version tag.
const FormatVersion = "v1"

// NonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits).
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes / 256 bits).
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes).
const SaltSize = 32

// MaxIterations caps the iteration count accepted from an envelope, so a
// crafted file cannot stall decryption.
const MaxIterations = 10_000_000

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidFormat indicates the input is not a markforge export envelope.
	ErrInvalidFormat = errors.New("invalid export format")
	// ErrUnsupportedVersion indicates an envelope from a newer format version.
	ErrUnsupportedVersion = errors.New("unsupported export format version")
	// ErrDecryptionFailed indicates a wrong passphrase or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed: wrong passphrase or tampered data")
)

// =============================================================================
// KEY DERIVATION
// =============================================================================

// GenerateSalt generates a cryptographically secure random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives an encryption key from a passphrase and salt using
// PBKDF2-SHA-256 (NIST SP 800-132).
func DeriveKey(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha256.New)
}

// =============================================================================
// ENVELOPE OPERATIONS
// =============================================================================

// Seal encrypts plaintext under a passphrase and returns the one-line
// envelope. The iteration count comes from configuration; the config layer
// enforces the production floor.
func Seal(passphrase string, iterations int, plaintext []byte) (string, error) {
	if iterations <= 0 {
		return "", fmt.Errorf("invalid iteration count %d", iterations)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}

	key := DeriveKey(passphrase, salt, iterations)
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	body := gcm.Seal(nonce, nonce, plaintext, nil)

	return EncryptedPrefix + FormatVersion + ":" +
		strconv.Itoa(iterations) + ":" +
		base64.StdEncoding.EncodeToString(salt) + ":" +
		base64.StdEncoding.EncodeToString(body), nil
}

// Open decrypts an envelope produced by Seal.
func Open(passphrase, envelope string) ([]byte, error) {
	envelope = strings.TrimSpace(envelope)
	if !strings.HasPrefix(envelope, EncryptedPrefix) {
		return nil, ErrInvalidFormat
	}

	parts := strings.Split(strings.TrimPrefix(envelope, EncryptedPrefix), ":")
	if len(parts) != 4 {
		return nil, ErrInvalidFormat
	}
	if parts[0] != FormatVersion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, parts[0])
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > MaxIterations {
		return nil, fmt.Errorf("%w: bad iteration count", ErrInvalidFormat)
	}

	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: bad salt encoding", ErrInvalidFormat)
	}
	body, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: bad body encoding", ErrInvalidFormat)
	}
	if len(body) < NonceSize {
		return nil, ErrInvalidFormat
	}

	key := DeriveKey(passphrase, salt, iterations)
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := body[:NonceSize]
	plaintext, err := gcm.Open(nil, nonce, body[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// IsEncrypted checks whether a value carries the export envelope prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), EncryptedPrefix)
}

// newGCM initializes AES-256-GCM with the given key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}

// =============================================================================
// FILE OPERATIONS
// =============================================================================

// WriteFile seals plaintext and writes the envelope to path with 0600
// permissions.
func WriteFile(path, passphrase string, iterations int, plaintext []byte) error {
	envelope, err := Seal(passphrase, iterations, plaintext)
	if err != nil {
		return err
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(envelope+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// ReadFile opens an envelope file written by WriteFile.
func ReadFile(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	return Open(passphrase, string(data))
}
