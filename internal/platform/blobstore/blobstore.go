// Package blobstore stores uploaded prescription files as opaque blobs.
// It defines the Store interface, a disk-backed implementation used by the
// server, and an in-memory implementation for tests.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrInvalidName  = errors.New("invalid blob name")
)

// MaxFileSize is the maximum allowed blob size in bytes (20 MB).
const MaxFileSize = 20 * 1024 * 1024

// Store is the contract for blob storage backends. Store persists content
// under the given name and returns the path to read it back with Open.
type Store interface {
	Store(ctx context.Context, name string, content io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ---------------------------------------------------------------------------
// Disk implementation
// ---------------------------------------------------------------------------

// DiskStore writes blobs as files under a root directory. Callers are
// expected to pre-seed names with a time-based prefix to avoid collisions.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed and returns a DiskStore.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// validName rejects names that would escape the root directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return true
}

func (s *DiskStore) Store(_ context.Context, name string, content io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}

	path := filepath.Join(s.root, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(content, MaxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write blob file: %w", err)
	}
	if n > MaxFileSize {
		os.Remove(path)
		return "", ErrFileTooLarge
	}

	return path, nil
}

func (s *DiskStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	abs, err := filepath.Abs(path)
	if err != nil || !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return nil, ErrBlobNotFound
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("open blob file: %w", err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemStore is a thread-safe, in-memory Store for testing.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Store(_ context.Context, name string, content io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	path := "mem://" + name
	s.mu.Lock()
	s.blobs[path] = data
	s.mu.Unlock()

	return path, nil
}

func (s *MemStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[path]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
