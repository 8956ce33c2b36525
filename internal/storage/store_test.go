package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spazaafy/platform/internal/shared/config"
)

func TestIntakeKey(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	key := IntakeKey(now, "affidavit.pdf")

	if !strings.HasPrefix(key, "legal_intake/2025/03/") {
		t.Errorf("key %q missing year/month partition", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Errorf("key %q lost file extension", key)
	}

	other := IntakeKey(now, "affidavit.pdf")
	if key == other {
		t.Error("keys for identical uploads must not collide")
	}
}

func TestDiskStorePutAndRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(config.StorageConfig{Root: root, BaseURL: "http://localhost/files/"})
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	obj, err := store.Put(context.Background(), "legal_intake/2025/03/doc.pdf", strings.NewReader("contents"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.Size != int64(len("contents")) {
		t.Errorf("size = %d, want %d", obj.Size, len("contents"))
	}
	if obj.Checksum == "" {
		t.Error("checksum not computed")
	}
	if obj.URL != "http://localhost/files/legal_intake/2025/03/doc.pdf" {
		t.Errorf("unexpected URL %q", obj.URL)
	}

	path := filepath.Join(root, "legal_intake", "2025", "03", "doc.pdf")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("object not on disk: %v", err)
	}

	if err := store.Remove(context.Background(), obj.Key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("object still on disk after Remove")
	}

	// removing again is not an error
	if err := store.Remove(context.Background(), obj.Key); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(config.StorageConfig{Root: t.TempDir(), BaseURL: "http://localhost/files"})
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	for _, key := range []string{"../escape.txt", "/abs.txt", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Errorf("key %q accepted, want error", key)
		}
	}
}
