package analysis

import (
	"context"
	"io"
)

// PreviewStore owns the preview resources backing staged images. Acquire
// uploads the staged bytes and returns a browser-displayable URL; Release
// must be called on removal or teardown to avoid resource leakage.
type PreviewStore interface {
	Acquire(ctx context.Context, key, contentType string, content io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Release(ctx context.Context, key string) error
}

// Request is the ephemeral submission payload, assembled at submit time from
// the staged images, the patient form and the organ from the route. It lives
// for the duration of one HTTP call and is never persisted.
type Request struct {
	Organ   Organ
	Patient PatientInfo
	Images  []RequestImage
}

// RequestImage is one multipart image part of a Request.
type RequestImage struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// Analyzer is the outbound port to the backend analysis API.
type Analyzer interface {
	Analyze(ctx context.Context, token string, req Request) (*Result, error)
}
