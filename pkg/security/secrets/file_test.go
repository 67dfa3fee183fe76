package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, dir, name, value string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(value), perm); err != nil {
		t.Fatal(err)
	}
	// WriteFile is subject to umask.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatal(err)
	}
}

func TestFileProvider_GetSecret(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecret(t, tmpDir, "keystore-password", "changeit\n", 0600)
	writeSecret(t, tmpDir, "read-only", "ro", 0400)

	provider, err := NewFileProvider(tmpDir)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	value, err := provider.GetSecret(context.Background(), "keystore-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(value) != "changeit" {
		t.Errorf("expected trimmed value 'changeit', got %q", value.Bytes())
	}

	if _, err := provider.GetSecret(context.Background(), "read-only"); err != nil {
		t.Errorf("0400 secret rejected: %v", err)
	}
}

func TestFileProvider_InsecurePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecret(t, tmpDir, "loose", "value", 0644)

	provider, err := NewFileProvider(tmpDir)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	_, err = provider.GetSecret(context.Background(), "loose")
	if err == nil || !strings.Contains(err.Error(), "insecure permissions") {
		t.Errorf("expected insecure permissions error, got %v", err)
	}
}

func TestFileProvider_DirectoryTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, "secrets")
	if err := os.Mkdir(base, 0700); err != nil {
		t.Fatal(err)
	}
	writeSecret(t, tmpDir, "outside", "value", 0600)

	provider, err := NewFileProvider(base)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	_, err = provider.GetSecret(context.Background(), "../outside")
	if err == nil || !strings.Contains(err.Error(), "directory traversal") {
		t.Errorf("expected traversal error, got %v", err)
	}
	if provider.Supports("../outside") {
		t.Error("Supports() should reject paths outside the base directory")
	}
}

func TestFileProvider_NotFound(t *testing.T) {
	provider, err := NewFileProvider(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if _, err := provider.GetSecret(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing secret")
	}
	if provider.Supports("missing") {
		t.Error("Supports() should be false for a missing file")
	}
}

func TestNewFileProvider_InvalidBase(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileProvider(file); err == nil {
		t.Error("expected error when base path is a file")
	}
	if _, err := NewFileProvider(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("expected error when base path does not exist")
	}
}

func TestFileProvider_ListSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecret(t, tmpDir, "a", "1", 0600)
	writeSecret(t, tmpDir, "b", "2", 0600)
	if err := os.Mkdir(filepath.Join(tmpDir, "dir"), 0700); err != nil {
		t.Fatal(err)
	}

	provider, err := NewFileProvider(tmpDir)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	names, err := provider.ListSecrets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 secrets, got %v", names)
	}
}
