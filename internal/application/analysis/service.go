package analysis

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/organcare/webapp/internal/application/staging"
	domain "github.com/organcare/webapp/internal/domain/analysis"
	"github.com/organcare/webapp/internal/domain/session"
)

// State of the submission workflow.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Workflow orchestrates one workspace's analysis submissions: guards,
// request assembly, the backend call and the success/failure transitions.
// Exactly one submission may be in flight at a time; a failed submission
// leaves staged images and form fields intact so the user can resubmit
// without re-uploading.
type Workflow struct {
	api domain.Analyzer
	log *slog.Logger

	mu         sync.Mutex
	state      State
	submitting bool
	organ      domain.Organ
	result     *domain.Result
	lastError  string
}

func NewWorkflow(api domain.Analyzer, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{api: api, log: log, state: StateIdle}
}

// Submit runs one analysis round trip. Guard order: staged images present,
// then authenticated session, then the network call. The returned error is
// one of the workflow sentinels, a *domain.RequestError, or a transport
// error; FailureMessage turns the latter two into the user-facing string.
func (w *Workflow) Submit(ctx context.Context, sess *session.Session, store *staging.Store, organ domain.Organ, patient domain.PatientInfo) (*domain.Result, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}
	w.state = StateValidating
	if store.Len() == 0 {
		w.state = StateIdle
		w.lastError = domain.ErrNoImageProvided.Error()
		w.mu.Unlock()
		return nil, domain.ErrNoImageProvided
	}
	if sess == nil {
		w.state = StateIdle
		w.mu.Unlock()
		return nil, domain.ErrUnauthenticated
	}
	w.submitting = true
	w.state = StateSubmitting
	w.mu.Unlock()

	req, closers, err := buildRequest(ctx, store, organ, patient)
	if err != nil {
		w.fail(organ, err)
		return nil, err
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	res, err := w.api.Analyze(ctx, sess.Token, req)

	if ctx.Err() != nil {
		// The caller went away mid-submission. Discard the outcome without
		// mutating result/error state.
		w.mu.Lock()
		w.submitting = false
		w.state = StateIdle
		w.mu.Unlock()
		return nil, ctx.Err()
	}
	if err != nil {
		w.fail(organ, err)
		return nil, err
	}

	w.mu.Lock()
	w.submitting = false
	w.state = StateSucceeded
	w.organ = organ
	w.result = res
	w.lastError = ""
	w.mu.Unlock()
	return res, nil
}

func (w *Workflow) fail(organ domain.Organ, err error) {
	msg := domain.FailureMessage(err)
	w.log.Error("analysis submission failed", "organ", organ, "error", err)
	w.mu.Lock()
	w.submitting = false
	w.state = StateFailed
	w.lastError = msg
	w.mu.Unlock()
}

// Result returns the current analysis result with its organ, or nil when the
// workflow is not in the viewing-result mode.
func (w *Workflow) Result() (domain.Organ, *domain.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.organ, w.result
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastError returns the user-facing message of the most recent failure, or
// "" after a success or reset.
func (w *Workflow) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastError
}

// Reset is the back affordance: it clears the current result and error so a
// new analysis can start. Staged images and form fields are untouched.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return
	}
	w.state = StateIdle
	w.result = nil
	w.lastError = ""
}

func buildRequest(ctx context.Context, store *staging.Store, organ domain.Organ, patient domain.PatientInfo) (domain.Request, []io.Closer, error) {
	staged := store.List()
	images := make([]domain.RequestImage, 0, len(staged))
	closers := make([]io.Closer, 0, len(staged))
	for _, img := range staged {
		rc, err := store.Open(ctx, img.ID)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return domain.Request{}, nil, err
		}
		closers = append(closers, rc)
		images = append(images, domain.RequestImage{
			FileName:    img.FileName,
			ContentType: img.ContentType,
			Content:     rc,
		})
	}
	return domain.Request{Organ: organ, Patient: patient, Images: images}, closers, nil
}
