package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/organcare/webapp/internal/application"
	"github.com/organcare/webapp/internal/application/staging"
	domain "github.com/organcare/webapp/internal/domain/analysis"
	historydomain "github.com/organcare/webapp/internal/domain/history"
)

type fakePreviews struct {
	mu       sync.Mutex
	objects  map[string][]byte
	released []string
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{objects: make(map[string][]byte)}
}

func (f *fakePreviews) Acquire(ctx context.Context, key, contentType string, content io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()
	return "preview://" + key, nil
}

func (f *fakePreviews) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %q", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakePreviews) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	f.released = append(f.released, key)
	delete(f.objects, key)
	f.mu.Unlock()
	return nil
}

type nopBackend struct{}

func (nopBackend) Analyze(ctx context.Context, token string, req domain.Request) (*domain.Result, error) {
	return &domain.Result{}, nil
}

func (nopBackend) ListResults(ctx context.Context, token string) ([]historydomain.StoredResult, error) {
	return nil, nil
}

func (nopBackend) DeleteResult(ctx context.Context, token, id string) error { return nil }

func newManager(previews *fakePreviews) *Manager {
	return NewManager(previews, nopBackend{}, nopBackend{}, application.SystemClock{}, nil)
}

func stageOne(t *testing.T, ws *Workspace) {
	t.Helper()
	_, err := ws.Staging.Add(context.Background(), []staging.File{{
		Name:        "scan.png",
		ContentType: "image/png",
		Size:        4,
		Content:     strings.NewReader("data"),
	}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGetReturnsSameWorkspacePerKey(t *testing.T) {
	m := newManager(newFakePreviews())

	a := m.Get("anon:sid-1")
	if a != m.Get("anon:sid-1") {
		t.Fatal("same key produced a different workspace")
	}
	if a == m.Get("anon:sid-2") {
		t.Fatal("different keys share a workspace")
	}
}

func TestPatientInfoRoundTrip(t *testing.T) {
	m := newManager(newFakePreviews())
	ws := m.Get("anon:sid-1")

	if got := ws.Patient(); got != (domain.PatientInfo{}) {
		t.Fatalf("fresh workspace patient: %+v", got)
	}
	p := domain.PatientInfo{Age: "42", Symptoms: "pain"}
	ws.SetPatient(p)
	if got := ws.Patient(); got != p {
		t.Fatalf("patient: got %+v", got)
	}
}

func TestAdoptMovesStagedWorkToUserKey(t *testing.T) {
	m := newManager(newFakePreviews())
	anon := m.Get("anon:sid-1")
	stageOne(t, anon)

	m.Adopt("anon:sid-1", "user:u1")

	if got := m.Get("user:u1"); got != anon {
		t.Fatal("adopted workspace is not the anonymous one")
	}
	if got := m.Get("user:u1").Staging.Len(); got != 1 {
		t.Fatalf("staged images after adopt: %d", got)
	}
	// The anonymous key now resolves to a fresh workspace.
	if m.Get("anon:sid-1") == anon {
		t.Fatal("anonymous key still points at the adopted workspace")
	}
}

func TestAdoptMergesIntoExistingDestination(t *testing.T) {
	previews := newFakePreviews()
	m := newManager(previews)
	user := m.Get("user:u1")
	stageOne(t, user)
	anon := m.Get("anon:sid-1")
	stageOne(t, anon)

	m.Adopt("anon:sid-1", "user:u1")

	if m.Get("user:u1") != user {
		t.Fatal("existing user workspace replaced")
	}
	if got := user.Staging.Len(); got != 2 {
		t.Fatalf("staged images after merge: got %d, want 2", got)
	}
	if len(previews.released) != 0 {
		t.Fatalf("previews released during merge: %v", previews.released)
	}
	// No orphan stays behind under the anonymous key.
	if m.Get("anon:sid-1") == anon {
		t.Fatal("anonymous workspace still registered")
	}
	if got := m.Get("anon:sid-1").Staging.Len(); got != 0 {
		t.Fatalf("fresh anonymous workspace staged: %d", got)
	}
}

func TestAdoptMissingSourceIsNoOp(t *testing.T) {
	m := newManager(newFakePreviews())
	m.Adopt("anon:missing", "user:u1")
	if got := m.Get("user:u1").Staging.Len(); got != 0 {
		t.Fatalf("staged images: %d", got)
	}
}

func TestDropReleasesPreviews(t *testing.T) {
	previews := newFakePreviews()
	m := newManager(previews)
	ws := m.Get("anon:sid-1")
	stageOne(t, ws)
	stageOne(t, ws)

	m.Drop(context.Background(), "anon:sid-1")

	if len(previews.released) != 2 {
		t.Fatalf("released: got %d, want 2", len(previews.released))
	}
	if m.Get("anon:sid-1") == ws {
		t.Fatal("dropped workspace still registered")
	}
}

func TestDropUnknownKeyIsNoOp(t *testing.T) {
	m := newManager(newFakePreviews())
	m.Drop(context.Background(), "anon:never-seen")
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestEvictIdleReleasesAbandonedWorkspaces(t *testing.T) {
	previews := newFakePreviews()
	clk := &stepClock{t: time.Unix(1700000000, 0)}
	m := NewManager(previews, nopBackend{}, nopBackend{}, clk, nil)

	stale := m.Get("anon:abandoned")
	stageOne(t, stale)

	clk.Advance(idleTTL + time.Minute)
	fresh := m.Get("anon:active")
	stageOne(t, fresh)

	m.evictIdle(context.Background())

	if len(previews.released) != 1 {
		t.Fatalf("released: got %d, want 1", len(previews.released))
	}
	if m.Get("anon:abandoned") == stale {
		t.Fatal("abandoned workspace still registered")
	}
	if m.Get("anon:active") != fresh {
		t.Fatal("active workspace evicted")
	}
}

func TestGetRefreshesIdleTimer(t *testing.T) {
	previews := newFakePreviews()
	clk := &stepClock{t: time.Unix(1700000000, 0)}
	m := NewManager(previews, nopBackend{}, nopBackend{}, clk, nil)

	ws := m.Get("anon:sid-1")
	stageOne(t, ws)

	// Touched just before the cutoff, the workspace survives the sweep.
	clk.Advance(idleTTL - time.Minute)
	m.Get("anon:sid-1")
	clk.Advance(2 * time.Minute)

	m.evictIdle(context.Background())

	if m.Get("anon:sid-1") != ws {
		t.Fatal("recently used workspace evicted")
	}
	if len(previews.released) != 0 {
		t.Fatalf("released: %v", previews.released)
	}
}
