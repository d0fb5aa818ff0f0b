package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	idb "github.com/coursevault/ingestor-go/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := idb.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(newTestDB(t))
}

func Test_Registry_InsertGet(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	ctx := context.Background()

	doc := Document{
		ID:          "doc-1",
		CourseCode:  "CS101",
		Filename:    "syllabus.pdf",
		BlobKey:     "documents/CS101/doc-1/syllabus.pdf",
		ContentType: "application/pdf",
		FileSize:    1024,
		Status:      StatusUploaded,
		UploadedBy:  "prof@example.edu",
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.Insert(ctx, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := r.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CourseCode != "CS101" || got.Status != StatusUploaded {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func Test_Registry_Get_NotFound(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	_, err := r.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func Test_Registry_ListByCourseAndStatus(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	ctx := context.Background()

	for i, status := range []Status{StatusUploaded, StatusIngested, StatusUploaded} {
		doc := Document{
			ID:         string(rune('a' + i)),
			CourseCode: "CS101",
			Filename:   "f.pdf",
			BlobKey:    "k",
			Status:     status,
			CreatedAt:  time.Now().UTC(),
		}
		if err := r.Insert(ctx, doc); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if status != StatusUploaded {
			if err := r.SetStatus(ctx, doc.ID, status); err != nil {
				t.Fatalf("set status: %v", err)
			}
		}
	}

	uploaded, err := r.ListByCourseAndStatus(ctx, "CS101", StatusUploaded)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(uploaded) != 2 {
		t.Fatalf("expected 2 uploaded docs, got %d", len(uploaded))
	}
}

func Test_Registry_ListByIDs_PreservesOrderSkipsMissing(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		doc := Document{ID: id, CourseCode: "CS101", Filename: "f.pdf", BlobKey: "k", Status: StatusUploaded, CreatedAt: time.Now().UTC()}
		if err := r.Insert(ctx, doc); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	// Document from a different course should be skipped.
	other := Document{ID: "d", CourseCode: "MATH200", Filename: "f.pdf", BlobKey: "k", Status: StatusUploaded, CreatedAt: time.Now().UTC()}
	if err := r.Insert(ctx, other); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	docs, err := r.ListByIDs(ctx, "CS101", []string{"c", "missing", "a", "d"})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "c" || docs[1].ID != "a" {
		t.Fatalf("unexpected order/result: %+v", docs)
	}
}

func Test_Registry_Delete(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)
	ctx := context.Background()

	doc := Document{ID: "doc-1", CourseCode: "CS101", Filename: "f.pdf", BlobKey: "k", Status: StatusUploaded, CreatedAt: time.Now().UTC()}
	if err := r.Insert(ctx, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := r.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Delete(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
