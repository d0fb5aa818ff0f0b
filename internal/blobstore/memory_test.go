package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func Test_MemoryStore_UploadDownloadDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	key := "documents/CS101/doc-1/file.pdf"
	want := "hello world"

	if err := store.Upload(ctx, key, strings.NewReader(want), "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	r, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read downloaded content: %v", err)
	}
	if string(got) != want {
		t.Fatalf("content = %q, want %q", got, want)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Download(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Download after delete: expected ErrNotFound, got %v", err)
	}
}

func Test_MemoryStore_Delete_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Delete(ctx, "documents/never-uploaded.pdf"); err != nil {
		t.Fatalf("Delete on missing key: expected nil, got %v", err)
	}
}

func Test_MemoryStore_PresignGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	url, err := store.PresignGet(ctx, "documents/doc-1/file.pdf", 0)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if url == "" {
		t.Fatal("PresignGet: expected non-empty URL")
	}
}
