package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spazaafy/platform/internal/shared/config"
)

// Object describes a stored file.
type Object struct {
	Key      string
	URL      string
	Checksum string
	Size     int64
}

// Store persists uploaded documents.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (Object, error)
	Remove(ctx context.Context, key string) error
}

// IntakeKey builds the storage key for a legal intake upload. Keys are
// partitioned by year and month so the backing directory stays browsable.
func IntakeKey(now time.Time, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("legal_intake/%d/%02d/%s%s", now.Year(), int(now.Month()), uuid.New().String(), ext)
}

// ShopDocumentKey builds the storage key for a shop compliance document.
func ShopDocumentKey(shopID string, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("shop_documents/%s/%s%s", shopID, uuid.New().String(), ext)
}

// DiskStore writes objects under a root directory.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates a disk-backed store
func NewDiskStore(cfg config.StorageConfig) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &DiskStore{
		root:    cfg.Root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Put writes the object and returns its descriptor
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader) (Object, error) {
	if err := validateKey(key); err != nil {
		return Object{}, err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		os.Remove(path)
		return Object{}, fmt.Errorf("failed to write file: %w", err)
	}

	return Object{
		Key:      key,
		URL:      s.baseURL + "/" + key,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
		Size:     size,
	}, nil
}

// Remove deletes the object. Missing objects are not an error.
func (s *DiskStore) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid storage key: %q", key)
	}
	return nil
}

// MemoryStore keeps objects in memory. Used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader) (Object, error) {
	if err := validateKey(key); err != nil {
		return Object{}, err
	}

	var buf bytes.Buffer
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(&buf, hasher), r)
	if err != nil {
		return Object{}, err
	}

	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()

	return Object{
		Key:      key,
		URL:      "memory://" + key,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
		Size:     size,
	}, nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns a stored object's bytes. Test helper.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[key]
	return b, ok
}

// Len returns the number of stored objects. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
