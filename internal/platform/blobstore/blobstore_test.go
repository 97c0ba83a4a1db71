package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestDiskStore_RoundTrip(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path, err := s.Store(context.Background(), "1700000000000_scan.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc, err := s.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "pdf-bytes" {
		t.Errorf("expected stored content, got %q", data)
	}
}

func TestDiskStore_Missing(t *testing.T) {
	s, _ := NewDiskStore(t.TempDir())

	_, err := s.Open(context.Background(), s.root+"/nope.pdf")
	if err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	s, _ := NewDiskStore(t.TempDir())

	if _, err := s.Store(context.Background(), "../escape.pdf", strings.NewReader("x")); err != ErrInvalidName {
		t.Errorf("expected ErrInvalidName for path separator, got %v", err)
	}
	if _, err := s.Store(context.Background(), "..", strings.NewReader("x")); err != ErrInvalidName {
		t.Errorf("expected ErrInvalidName for dot-dot, got %v", err)
	}
	if _, err := s.Open(context.Background(), "/etc/passwd"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound for path outside root, got %v", err)
	}
}

func TestDiskStore_DuplicateName(t *testing.T) {
	s, _ := NewDiskStore(t.TempDir())

	if _, err := s.Store(context.Background(), "a.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Store(context.Background(), "a.pdf", strings.NewReader("y")); err == nil {
		t.Error("expected error storing duplicate name")
	}
}

func TestMemStore_RoundTrip(t *testing.T) {
	s := NewMemStore()

	path, err := s.Store(context.Background(), "scan.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rc, err := s.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "content" {
		t.Errorf("expected stored content, got %q", data)
	}

	if _, err := s.Open(context.Background(), "mem://other.pdf"); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}
