// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jeranaias/markforge/internal/marking"
	"github.com/jeranaias/markforge/internal/registry"
)

// testIterations keeps PBKDF2 cheap in tests. Production floors are
// enforced by config validation, not here.
const testIterations = 4096

func TestSealOpen_Roundtrip(t *testing.T) {
	plaintext := []byte(`{"documents":[{"title":"INTSUM"}]}`)

	envelope, err := Seal("correct horse", testIterations, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !strings.HasPrefix(envelope, EncryptedPrefix) {
		t.Errorf("envelope missing prefix: %q", envelope[:20])
	}
	if !IsEncrypted(envelope) {
		t.Error("IsEncrypted = false for sealed envelope")
	}
	if strings.Contains(envelope, "INTSUM") {
		t.Error("plaintext leaked into envelope")
	}

	got, err := Open("correct horse", envelope)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open = %q, want %q", got, plaintext)
	}
}

func TestOpen_WrongPassphrase(t *testing.T) {
	envelope, err := Seal("right", testIterations, []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open("wrong", envelope); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestOpen_BadEnvelopes(t *testing.T) {
	valid, err := Seal("pw", testIterations, []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	tests := []struct {
		name     string
		envelope string
		wantErr  error
	}{
		{"empty", "", ErrInvalidFormat},
		{"not an envelope", "just some text", ErrInvalidFormat},
		{"legacy prefix only", "ENC:abcdef", ErrInvalidFormat},
		{"missing fields", EncryptedPrefix + "v1:4096:onlythree", ErrInvalidFormat},
		{"future version", strings.Replace(valid, ":v1:", ":v9:", 1), ErrUnsupportedVersion},
		{"zero iterations", strings.Replace(valid, ":4096:", ":0:", 1), ErrInvalidFormat},
		{"absurd iterations", strings.Replace(valid, ":4096:", ":99999999999:", 1), ErrInvalidFormat},
		{"bad salt encoding", EncryptedPrefix + "v1:4096:!!!:aGVsbG8=", ErrInvalidFormat},
		{"truncated body", EncryptedPrefix + "v1:4096:" + strings.Split(strings.TrimPrefix(valid, EncryptedPrefix), ":")[2] + ":aGVsbG8=", ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open("pw", tt.envelope); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_TamperedBody(t *testing.T) {
	envelope, err := Seal("pw", testIterations, []byte("payload of some length"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	// Flip one character near the end of the base64 body.
	tampered := []byte(envelope)
	i := len(tampered) - 5
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	if _, err := Open("pw", string(tampered)); err == nil {
		t.Error("tampered envelope opened without error")
	}
}

func TestSeal_SaltVaries(t *testing.T) {
	a, err := Seal("pw", testIterations, []byte("same payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, err := Seal("pw", testIterations, []byte("same payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if a == b {
		t.Error("two seals of the same payload produced identical envelopes")
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markings.export")
	payload := []byte(`{"version":1}`)

	if err := WriteFile(path, "pw", testIterations, payload); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("export file mode = %o, want 0600", perm)
		}
	}

	got, err := ReadFile(path, "pw")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadFile = %q, want %q", got, payload)
	}
}

// =============================================================================
// REGISTRY ROUNDTRIP
// =============================================================================

func TestExportImportRegistry(t *testing.T) {
	dir := t.TempDir()

	src, err := registry.Open(filepath.Join(dir, "src.db"), nil)
	if err != nil {
		t.Fatalf("Open src: %v", err)
	}
	defer src.Close()

	doc, err := src.CreateDocument("OPORD 25-03")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	for _, m := range []marking.FinalizedMarking{
		{PortionMarking: "(S//NF)", BannerMarking: "SECRET//NOFORN", DerivedFrom: "ACME SCG v3", DeclassifyOn: "20451231"},
		{PortionMarking: "(U)", BannerMarking: "UNCLASSIFIED", DerivedFrom: "ACME SCG v3"},
	} {
		if _, err := src.AddPortion(doc.ID, m); err != nil {
			t.Fatalf("AddPortion: %v", err)
		}
	}
	if _, err := src.CreateDocument("Empty Annex"); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	path := filepath.Join(dir, "markings.export")
	a, err := ExportRegistry(src, path, "pw", testIterations)
	if err != nil {
		t.Fatalf("ExportRegistry: %v", err)
	}
	if len(a.Documents) != 2 {
		t.Fatalf("archive documents = %d, want 2", len(a.Documents))
	}

	dst, err := registry.Open(filepath.Join(dir, "dst.db"), nil)
	if err != nil {
		t.Fatalf("Open dst: %v", err)
	}
	defer dst.Close()

	docs, portions, err := ImportRegistry(dst, path, "pw")
	if err != nil {
		t.Fatalf("ImportRegistry: %v", err)
	}
	if docs != 2 || portions != 2 {
		t.Errorf("restored %d docs, %d portions, want 2, 2", docs, portions)
	}

	restored, err := dst.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	var withPortions *registry.Document
	for i := range restored {
		if restored[i].Title == "OPORD 25-03" {
			withPortions = &restored[i]
		}
	}
	if withPortions == nil {
		t.Fatal("restored registry missing OPORD 25-03")
	}

	banner, err := dst.DocumentBanner(withPortions.ID)
	if err != nil {
		t.Fatalf("DocumentBanner: %v", err)
	}
	if want := "SECRET//NOFORN"; banner != want {
		t.Errorf("DocumentBanner = %q, want %q", banner, want)
	}

	// Wrong passphrase never touches the destination registry.
	if _, _, err := ImportRegistry(dst, path, "wrong"); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}
