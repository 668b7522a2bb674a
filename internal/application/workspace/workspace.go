package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/organcare/webapp/internal/application"
	analysisapp "github.com/organcare/webapp/internal/application/analysis"
	historyapp "github.com/organcare/webapp/internal/application/history"
	"github.com/organcare/webapp/internal/application/staging"
	domain "github.com/organcare/webapp/internal/domain/analysis"
	historydomain "github.com/organcare/webapp/internal/domain/history"
)

const (
	// idleTTL bounds how long an untouched workspace keeps its staged
	// previews. Kept well under the presigned-URL lifetime so objects are
	// removed before their links expire.
	idleTTL       = 2 * time.Hour
	sweepInterval = 10 * time.Minute
)

// Workspace carries one browser session's form state: the staged images,
// the patient-info fields, the submission workflow and the history list.
// It mirrors what the pages keep locally between requests.
type Workspace struct {
	Staging  *staging.Store
	Workflow *analysisapp.Workflow
	History  *historyapp.Service

	mu      sync.Mutex
	patient domain.PatientInfo
}

// Patient returns the current form fields.
func (ws *Workspace) Patient() domain.PatientInfo {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.patient
}

// SetPatient replaces the form fields with the submitted state.
func (ws *Workspace) SetPatient(p domain.PatientInfo) {
	ws.mu.Lock()
	ws.patient = p
	ws.mu.Unlock()
}

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Manager holds per-session workspaces, created lazily and torn down on
// signout, navigation away, or after sitting idle. Teardown releases every
// staged preview.
type Manager struct {
	previews domain.PreviewStore
	analyzer domain.Analyzer
	results  historydomain.ResultsAPI
	clock    application.Clock
	log      *slog.Logger

	mu    sync.Mutex
	byKey map[string]*entry
}

func NewManager(previews domain.PreviewStore, analyzer domain.Analyzer, results historydomain.ResultsAPI, clock application.Clock, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		previews: previews,
		analyzer: analyzer,
		results:  results,
		clock:    clock,
		log:      log,
		byKey:    make(map[string]*entry),
	}

	// Evict abandoned workspaces in the background.
	go m.cleanup()

	return m
}

// Get returns the workspace for the given session key, creating it on first
// use. Every access refreshes the idle timer.
func (m *Manager) Get(key string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byKey[key]; ok {
		e.lastSeen = m.clock.Now()
		return e.ws
	}
	ws := &Workspace{
		Staging:  staging.NewStore(m.previews, m.clock, m.log),
		Workflow: analysisapp.NewWorkflow(m.analyzer, m.log),
		History:  historyapp.NewService(m.results, m.log),
	}
	m.byKey[key] = &entry{ws: ws, lastSeen: m.clock.Now()}
	return ws
}

// Adopt moves the workspace at fromKey to toKey, so images staged before
// sign-in survive the transition to an authenticated session. When the
// destination already exists the source's staged images are merged into it
// and the source is dropped; the anonymous key never keeps an orphan.
func (m *Manager) Adopt(fromKey, toKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.byKey[fromKey]
	if !ok {
		return
	}
	delete(m.byKey, fromKey)
	if dst, exists := m.byKey[toKey]; exists {
		dst.ws.Staging.Absorb(src.ws.Staging.Drain())
		dst.lastSeen = m.clock.Now()
		return
	}
	src.lastSeen = m.clock.Now()
	m.byKey[toKey] = src
}

// Drop tears the workspace down, releasing its staged previews. Unknown keys
// are a no-op. A submission still in flight for the dropped workspace will
// discard its outcome when it completes.
func (m *Manager) Drop(ctx context.Context, key string) {
	m.mu.Lock()
	e, ok := m.byKey[key]
	if ok {
		delete(m.byKey, key)
	}
	m.mu.Unlock()

	if ok {
		e.ws.Staging.ReleaseAll(ctx)
	}
}

// evictIdle drops every workspace untouched for idleTTL, releasing its
// staged previews.
func (m *Manager) evictIdle(ctx context.Context) {
	cutoff := m.clock.Now().Add(-idleTTL)

	m.mu.Lock()
	var expired []*entry
	for key, e := range m.byKey {
		if e.lastSeen.Before(cutoff) {
			delete(m.byKey, key)
			expired = append(expired, e)
			m.log.Info("evicting idle workspace", "key", key)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.ws.Staging.ReleaseAll(ctx)
	}
}

func (m *Manager) cleanup() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.evictIdle(context.Background())
	}
}
