package history

import "time"

// StoredResult is one entry of the user's past analysis results, as listed
// by the backend. Server-provided order is preserved as given.
type StoredResult struct {
	ID        string    `json:"id"`
	Organ     string    `json:"organ"`
	CreatedAt time.Time `json:"created_at"`
	Summary   string    `json:"summary"`
}
