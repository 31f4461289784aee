package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type fakeExec struct {
	queries []string
	args    [][]any
	row     simpleRow
	execErr error
}

func (f *fakeExec) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeExec) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return f.row
}

func (f *fakeExec) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return nil, errors.New("query not supported in this test")
}

func TestRecordGenerationFillsIdentity(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	exec := &fakeExec{row: simpleRow{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = 42
		*(dest[1].(*time.Time)) = created
		return nil
	}}}
	h, err := NewHistory(exec)
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}

	rec := &GenerationRecord{
		SessionID:         "s1",
		Kind:              KindGarmentSwap,
		ModelImageKey:     "uploads/s1/model.png",
		FlatlayImageKey:   "uploads/s1/flatlay.png",
		Success:           true,
		ProcessingSeconds: 4.2,
	}
	if err := h.RecordGeneration(context.Background(), rec); err != nil {
		t.Fatalf("RecordGeneration: %v", err)
	}
	if rec.ID != 42 || !rec.CreatedAt.Equal(created) {
		t.Fatalf("record identity = %d %v", rec.ID, rec.CreatedAt)
	}

	if len(exec.args) != 1 || len(exec.args[0]) != 13 {
		t.Fatalf("args = %+v", exec.args)
	}
	// optional columns stay NULL, not empty strings
	if exec.args[0][4] != nil {
		t.Fatalf("guidance key arg = %v, want nil", exec.args[0][4])
	}
	if exec.args[0][10] != nil {
		t.Fatalf("failure category arg = %v, want nil", exec.args[0][10])
	}
}

func TestEnsureSchemaUsesMarkedQuery(t *testing.T) {
	exec := &fakeExec{}
	h, err := NewHistory(exec)
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}
	if err := h.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if len(exec.queries) != 3 {
		t.Fatalf("queries = %+v", exec.queries)
	}
	for _, q := range exec.queries {
		if !strings.HasPrefix(q, "--sql ") {
			t.Errorf("unmarked query %q", q)
		}
		if strings.Count(q, ";") > 1 {
			t.Errorf("multi-statement query %q", q)
		}
	}
}

func TestSaveGalleryImageRejectsEmpty(t *testing.T) {
	h, err := NewHistory(&fakeExec{})
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}
	if _, err := h.SaveGalleryImage(context.Background(), nil); err == nil {
		t.Fatal("expected an error for empty data")
	}
}

func TestGetGalleryImageMissing(t *testing.T) {
	h, err := NewHistory(&fakeExec{})
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}
	if _, err := h.GetGalleryImage(context.Background(), 7); err == nil {
		t.Fatal("expected an error for a missing row")
	}
}

func TestNewHistoryRequiresExecutor(t *testing.T) {
	if _, err := NewHistory(nil); err == nil {
		t.Fatal("expected an error for nil executor")
	}
}
