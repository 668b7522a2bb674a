package session

import "context"

// PreferenceStore persists per-user UI preferences across sessions.
type PreferenceStore interface {
	// Theme returns the stored theme for the user, or "" when none is set.
	Theme(ctx context.Context, userID string) (string, error)
	SetTheme(ctx context.Context, userID, theme string) error
}
