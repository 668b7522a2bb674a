package staging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/organcare/webapp/internal/application"
	domain "github.com/organcare/webapp/internal/domain/analysis"
)

// File is one user-selected file handle, as received from the upload form.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Store holds the ordered sequence of staged images for one workspace.
// Every Add acquires a preview resource in the preview store; Remove and
// ReleaseAll release them. Insertion order is the grid display order.
type Store struct {
	previews domain.PreviewStore
	clock    application.Clock
	log      *slog.Logger

	mu     sync.Mutex
	images []domain.StagedImage
}

func NewStore(previews domain.PreviewStore, clock application.Clock, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{previews: previews, clock: clock, log: log}
}

// Add stages the given files, assigning each a unique id and acquiring its
// preview resource. Files are appended in order after the existing entries.
// No dedup and no type/size validation happens here. The uploads run outside
// the store lock so a slow one does not block List/Remove.
func (s *Store) Add(ctx context.Context, files []File) ([]domain.StagedImage, error) {
	added := make([]domain.StagedImage, 0, len(files))
	var stageErr error
	for _, f := range files {
		now := s.clock.Now()
		id := domain.ImageID(fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()))
		url, err := s.previews.Acquire(ctx, string(id), f.ContentType, f.Content, f.Size)
		if err != nil {
			// Files staged before the failure stay staged.
			stageErr = fmt.Errorf("stage %q: %w", f.Name, err)
			break
		}
		added = append(added, domain.StagedImage{
			ID:          id,
			FileName:    f.Name,
			ContentType: f.ContentType,
			Size:        f.Size,
			PreviewURL:  url,
			StagedAt:    now,
		})
	}

	s.mu.Lock()
	s.images = append(s.images, added...)
	s.mu.Unlock()
	return added, stageErr
}

// Remove deletes the entry with the given id and releases its preview
// resource. An unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id domain.ImageID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, img := range s.images {
		if img.ID != id {
			continue
		}
		s.images = append(s.images[:i], s.images[i+1:]...)
		if err := s.previews.Release(ctx, string(id)); err != nil {
			s.log.Warn("preview release failed", "image_id", id, "error", err)
		}
		return
	}
}

// List returns a copy of the staged images in insertion order.
func (s *Store) List() []domain.StagedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.StagedImage, len(s.images))
	copy(out, s.images)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// Drain removes and returns every staged entry without releasing its preview
// resource. The receiver of the entries takes over ownership.
func (s *Store) Drain() []domain.StagedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.images
	s.images = nil
	return out
}

// Absorb appends entries drained from another store, keeping their preview
// resources alive.
func (s *Store) Absorb(images []domain.StagedImage) {
	s.mu.Lock()
	s.images = append(s.images, images...)
	s.mu.Unlock()
}

// Open streams the staged bytes of one image for submission.
func (s *Store) Open(ctx context.Context, id domain.ImageID) (io.ReadCloser, error) {
	return s.previews.Open(ctx, string(id))
}

// ReleaseAll releases every staged preview and clears the store. Called on
// workspace teardown so repeated add/remove cycles cannot leak resources.
func (s *Store) ReleaseAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, img := range s.images {
		if err := s.previews.Release(ctx, string(img.ID)); err != nil {
			s.log.Warn("preview release failed", "image_id", img.ID, "error", err)
		}
	}
	s.images = nil
}
