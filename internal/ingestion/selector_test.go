package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coursevault/ingestor-go/internal/documents"
)

func mustInsertDoc(t *testing.T, docs *documents.Registry, id string, status documents.Status) documents.Document {
	t.Helper()
	d := documents.Document{
		ID: id, CourseCode: "CS101", Filename: "f.pdf", BlobKey: "k",
		Status: documents.StatusUploaded, CreatedAt: time.Now().UTC(),
	}
	if err := docs.Insert(context.Background(), d); err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
	if status != documents.StatusUploaded {
		if err := docs.SetStatus(context.Background(), id, status); err != nil {
			t.Fatalf("set status %s: %v", id, err)
		}
	}
	d.Status = status
	return d
}

func Test_Selector_NewModeOnlyUploaded(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	docs := documents.NewRegistry(db)
	mustInsertDoc(t, docs, "a", documents.StatusUploaded)
	mustInsertDoc(t, docs, "b", documents.StatusIngested)

	sel := NewSelector(docs)
	got, err := sel.Resolve(context.Background(), Job{CourseCode: "CS101", Mode: ModeNew})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only doc a, got %+v", got)
	}
}

func Test_Selector_ReingestModeOnlyIngested(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	docs := documents.NewRegistry(db)
	mustInsertDoc(t, docs, "a", documents.StatusUploaded)
	mustInsertDoc(t, docs, "b", documents.StatusIngested)

	sel := NewSelector(docs)
	got, err := sel.Resolve(context.Background(), Job{CourseCode: "CS101", Mode: ModeReingest})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only doc b, got %+v", got)
	}
}

func Test_Selector_SelectedRequiresDocumentIDs(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	docs := documents.NewRegistry(db)
	sel := NewSelector(docs)

	_, err := sel.Resolve(context.Background(), Job{CourseCode: "CS101", Mode: ModeSelected})
	var jobErr *JobError
	if !errors.As(err, &jobErr) {
		t.Fatalf("expected JobError, got %v (%T)", err, err)
	}
}

func Test_Selector_AllModeIgnoresStatus(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	docs := documents.NewRegistry(db)
	mustInsertDoc(t, docs, "a", documents.StatusUploaded)
	mustInsertDoc(t, docs, "b", documents.StatusIngested)

	sel := NewSelector(docs)
	got, err := sel.Resolve(context.Background(), Job{CourseCode: "CS101", Mode: ModeAll})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both docs, got %d", len(got))
	}
}
