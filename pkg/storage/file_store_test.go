package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStorePutIsWriteOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploaded_backups")
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	if err := fs.Put(ctx, "performance_backup_20250501_101500.xlsx", strings.NewReader("first"), 5, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	err = fs.Put(ctx, "performance_backup_20250501_101500.xlsx", strings.NewReader("second"), 6, "")
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	data, err := os.ReadFile(fs.Path("performance_backup_20250501_101500.xlsx"))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("archive overwritten: %q", data)
	}
}

func TestFileStoreKeepsKeysInsideBase(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := fs.Put(context.Background(), "../../escape.csv", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.csv")); err != nil {
		t.Fatalf("expected file inside base dir: %v", err)
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
