package history

import "context"

// ResultsAPI is the outbound port to the backend's stored-results endpoints.
type ResultsAPI interface {
	ListResults(ctx context.Context, token string) ([]StoredResult, error)
	DeleteResult(ctx context.Context, token, id string) error
}
