package history

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/organcare/webapp/internal/domain/history"
)

type fakeResultsAPI struct {
	list      []domain.StoredResult
	listErr   error
	deleteErr error
	deleted   []string
}

func (f *fakeResultsAPI) ListResults(ctx context.Context, token string) ([]domain.StoredResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeResultsAPI) DeleteResult(ctx context.Context, token, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func sample() []domain.StoredResult {
	now := time.Now()
	return []domain.StoredResult{
		{ID: "r3", Organ: "heart", CreatedAt: now, Summary: "third"},
		{ID: "r1", Organ: "lungs", CreatedAt: now, Summary: "first"},
		{ID: "r2", Organ: "brain", CreatedAt: now, Summary: "second"},
	}
}

func TestLoadPreservesServerOrder(t *testing.T) {
	svc := NewService(&fakeResultsAPI{list: sample()}, nil)

	items := svc.Load(context.Background(), "tok")
	if len(items) != 3 {
		t.Fatalf("len: got %d", len(items))
	}
	for i, want := range []string{"r3", "r1", "r2"} {
		if items[i].ID != want {
			t.Fatalf("order: got %q at %d, want %q", items[i].ID, i, want)
		}
	}
}

func TestLoadFailureResolvesToEmptyList(t *testing.T) {
	svc := NewService(&fakeResultsAPI{listErr: errors.New("boom")}, nil)

	items := svc.Load(context.Background(), "tok")
	if items == nil || len(items) != 0 {
		t.Fatalf("items: got %v, want empty non-nil", items)
	}
	if len(svc.Items()) != 0 {
		t.Fatalf("cached items: got %d", len(svc.Items()))
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	api := &fakeResultsAPI{list: sample()}
	svc := NewService(api, nil)
	svc.Load(context.Background(), "tok")

	if err := svc.Delete(context.Background(), "tok", "r1"); err != nil {
		t.Fatal(err)
	}

	items := svc.Items()
	if len(items) != 2 {
		t.Fatalf("len: got %d, want 2", len(items))
	}
	for _, it := range items {
		if it.ID == "r1" {
			t.Fatal("r1 still present")
		}
	}
	if len(api.deleted) != 1 || api.deleted[0] != "r1" {
		t.Fatalf("server deletes: %v", api.deleted)
	}
}

func TestDeleteFailureLeavesListUnchanged(t *testing.T) {
	api := &fakeResultsAPI{list: sample()}
	svc := NewService(api, nil)
	svc.Load(context.Background(), "tok")

	api.deleteErr = errors.New("boom")
	if err := svc.Delete(context.Background(), "tok", "r1"); err == nil {
		t.Fatal("expected error")
	}

	if len(svc.Items()) != 3 {
		t.Fatalf("len: got %d, want 3", len(svc.Items()))
	}
}
