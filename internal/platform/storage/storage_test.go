package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxBytes int64) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestSaveReturnsMetadata(t *testing.T) {
	s := newTestStore(t, 1024)

	info, err := s.Save(context.Background(), "scan.png", "image/png", strings.NewReader("pngbytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if info.Name != "scan.png" || info.Mime != "image/png" || info.Size != 8 {
		t.Errorf("unexpected metadata: %+v", info)
	}
	if !strings.HasPrefix(info.URL, "/uploads/") || !strings.HasSuffix(info.URL, ".png") {
		t.Errorf("unexpected url: %s", info.URL)
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	s := newTestStore(t, 4)

	_, err := s.Save(context.Background(), "big.pdf", "application/pdf", strings.NewReader("way too big"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}

	// No partial file left behind.
	entries, readErr := os.ReadDir(s.dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("found %d leftover files", len(entries))
	}
}

func TestSaveRejectsDisallowedMime(t *testing.T) {
	s := newTestStore(t, 1024)
	_, err := s.Save(context.Background(), "run.exe", "application/x-msdownload", strings.NewReader("mz"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Errorf("err = %v, want ErrInvalidContentType", err)
	}
}

func TestSaveStripsPathComponents(t *testing.T) {
	s := newTestStore(t, 1024)

	info, err := s.Save(context.Background(), "../../etc/passwd.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if info.Name != "passwd.txt" {
		t.Errorf("name = %s, want path stripped", info.Name)
	}

	// Stored file stays inside the upload dir.
	entries, readErr := os.ReadDir(s.dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 1 {
		t.Fatalf("found %d files, want 1", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".txt" {
		t.Errorf("stored name %s lost its extension", entries[0].Name())
	}
}
