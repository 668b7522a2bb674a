package history

import (
	"context"
	"log/slog"
	"sync"

	domain "github.com/organcare/webapp/internal/domain/history"
)

// Service fetches and reconciles the user's stored analysis results.
// Fetch failures resolve to an empty list and delete failures leave the
// local collection unchanged; both are logged, never surfaced as errors.
type Service struct {
	api domain.ResultsAPI
	log *slog.Logger

	mu    sync.Mutex
	items []domain.StoredResult
}

func NewService(api domain.ResultsAPI, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{api: api, log: log}
}

// Load fetches the result collection, preserving server order. On failure it
// logs and returns an empty list.
func (s *Service) Load(ctx context.Context, token string) []domain.StoredResult {
	list, err := s.api.ListResults(ctx, token)
	if err != nil {
		s.log.Error("failed to fetch results", "error", err)
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		return []domain.StoredResult{}
	}

	s.mu.Lock()
	s.items = list
	s.mu.Unlock()
	return s.Items()
}

// Items returns a copy of the last loaded collection.
func (s *Service) Items() []domain.StoredResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.StoredResult, len(s.items))
	copy(out, s.items)
	return out
}

// Delete removes the result server-side, then reconciles the local
// collection by dropping exactly that id. On failure the collection stays
// unchanged and the error is returned for the caller's status mapping.
// Deletion is not optimistic: confirmation happens before this call.
func (s *Service) Delete(ctx context.Context, token, id string) error {
	if err := s.api.DeleteResult(ctx, token, id); err != nil {
		s.log.Error("failed to delete result", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return nil
}
