package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/organcare/webapp/internal/application/presentation"
	"github.com/organcare/webapp/internal/application/staging"
	"github.com/organcare/webapp/internal/application/workspace"
	domain "github.com/organcare/webapp/internal/domain/analysis"
	sessiondomain "github.com/organcare/webapp/internal/domain/session"
	"github.com/organcare/webapp/internal/middleware"
)

// Options configures the browser-facing router.
type Options struct {
	SigninURL      string
	CookieDomain   string
	DefaultTheme   string
	AllowedOrigins []string
}

type Router struct {
	workspaces *workspace.Manager
	prefs      sessiondomain.PreferenceStore
	opts       Options
	log        *slog.Logger
}

func NewRouter(workspaces *workspace.Manager, prefs sessiondomain.PreferenceStore, opts Options, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	r := &Router{workspaces: workspaces, prefs: prefs, opts: opts, log: log}
	mux := chi.NewRouter()

	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/organs", r.wrap(r.handleOrgans))
		rt.Get("/session", r.wrap(r.handleSession))

		rt.Get("/images", r.wrap(r.handleListImages))
		rt.Post("/images", r.wrap(r.handleStageImages))
		rt.Delete("/images/{id}", r.wrap(r.handleRemoveImage))

		rt.Put("/patient", r.wrap(r.handleUpdatePatient))

		rt.Post("/analyze/{organ}", r.wrap(r.handleAnalyze))
		rt.Get("/analysis", r.wrap(r.handleAnalysisStatus))
		rt.Post("/analysis/reset", r.wrap(r.handleAnalysisReset))

		rt.Get("/results", r.wrap(r.handleListResults))
		rt.Delete("/results/{id}", r.wrap(r.handleDeleteResult))

		rt.Put("/theme", r.wrap(r.handleSetTheme))
		rt.Post("/signout", r.wrap(r.handleSignout))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries an explicit status for the wrap adapter.
type httpError struct {
	status int
	detail string
}

func (e *httpError) Error() string { return e.detail }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		if errors.Is(err, domain.ErrUnauthenticated) {
			http.Redirect(w, req, r.opts.SigninURL, http.StatusSeeOther)
			return
		}
		if errors.Is(err, domain.ErrNoImageProvided) {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if errors.Is(err, domain.ErrSubmissionInFlight) {
			writeDetail(w, http.StatusConflict, err.Error())
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			writeDetail(w, he.status, he.detail)
			return
		}
		var re *domain.RequestError
		if errors.As(err, &re) {
			status := re.Status
			if status < 400 {
				status = http.StatusBadGateway
			}
			writeDetail(w, status, domain.FailureMessage(err))
			return
		}
		r.log.Error("handler error", "path", req.URL.Path, "error", err)
		writeDetail(w, http.StatusBadGateway, domain.FailureMessage(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	_ = writeJSON(w, status, map[string]string{"detail": detail})
}

// workspace resolves the caller's form workspace. Signed-in users adopt the
// workspace they staged anonymously, so images staged before sign-in survive.
func (r *Router) workspace(req *http.Request) (*workspace.Workspace, string) {
	sid := middleware.BrowserIDFrom(req.Context())
	anonKey := "anon:" + sid
	if sess := middleware.SessionFrom(req.Context()); sess != nil {
		userKey := "user:" + sess.User.ID
		r.workspaces.Adopt(anonKey, userKey)
		return r.workspaces.Get(userKey), userKey
	}
	return r.workspaces.Get(anonKey), anonKey
}

// GET /api/organs
func (r *Router) handleOrgans(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, domain.Catalog())
}

// GET /api/session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.SessionFrom(req.Context())
	resp := map[string]any{
		"authenticated": sess != nil,
		"user":          nil,
		"theme":         r.opts.DefaultTheme,
	}
	if sess != nil {
		resp["user"] = sess.User
		theme, err := r.prefs.Theme(req.Context(), sess.User.ID)
		if err != nil {
			r.log.Error("theme lookup failed", "user", sess.User.ID, "error", err)
		} else if theme != "" {
			resp["theme"] = theme
		}
	}
	return writeJSON(w, http.StatusOK, resp)
}

// GET /api/images
func (r *Router) handleListImages(w http.ResponseWriter, req *http.Request) error {
	ws, _ := r.workspace(req)
	return writeJSON(w, http.StatusOK, ws.Staging.List())
}

// POST /api/images — multipart "images" parts
func (r *Router) handleStageImages(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		return badRequest("invalid multipart form: %v", err)
	}
	headers := req.MultipartForm.File["images"]
	if len(headers) == 0 {
		return badRequest("no images in request")
	}

	files := make([]staging.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return badRequest("open upload %q: %v", fh.Filename, err)
		}
		defer f.Close()
		files = append(files, staging.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}

	ws, _ := r.workspace(req)
	added, err := ws.Staging.Add(req.Context(), files)
	if err != nil {
		return err
	}
	middleware.AddImagesStaged(len(added))
	return writeJSON(w, http.StatusCreated, added)
}

// DELETE /api/images/{id}
func (r *Router) handleRemoveImage(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	ws, _ := r.workspace(req)
	ws.Staging.Remove(req.Context(), domain.ImageID(id))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PUT /api/patient
func (r *Router) handleUpdatePatient(w http.ResponseWriter, req *http.Request) error {
	var p domain.PatientInfo
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		return badRequest("invalid patient payload: %v", err)
	}
	if err := middleware.ValidateAge(p.Age); err != nil {
		return badRequest("%v", err)
	}
	p.Symptoms = middleware.SanitizeString(p.Symptoms)
	p.MedicalHistory = middleware.SanitizeString(p.MedicalHistory)
	p.AdditionalInfo = middleware.SanitizeString(p.AdditionalInfo)

	ws, _ := r.workspace(req)
	ws.SetPatient(p)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /api/analyze/{organ}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	organ := chi.URLParam(req, "organ")
	if err := middleware.ValidateOrgan(organ); err != nil {
		return badRequest("%v", err)
	}

	ws, _ := r.workspace(req)
	sess := middleware.SessionFrom(req.Context())

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesInFlight()
	defer middleware.DecrementAnalysesInFlight()

	res, err := ws.Workflow.Submit(req.Context(), sess, ws.Staging, domain.Organ(organ), ws.Patient())
	if err != nil {
		// Local guard rejections are not backend failures.
		if !errors.Is(err, domain.ErrUnauthenticated) &&
			!errors.Is(err, domain.ErrSubmissionInFlight) &&
			!errors.Is(err, domain.ErrNoImageProvided) {
			middleware.IncrementAnalysesFailed()
		}
		return err
	}

	return writeJSON(w, http.StatusOK, presentation.Build(domain.Organ(organ), res))
}

type analysisStatus struct {
	State  string                   `json:"state"`
	Error  string                   `json:"error,omitempty"`
	Result *presentation.ResultView `json:"result,omitempty"`
}

// GET /api/analysis
func (r *Router) handleAnalysisStatus(w http.ResponseWriter, req *http.Request) error {
	ws, _ := r.workspace(req)
	status := analysisStatus{
		State: string(ws.Workflow.State()),
		Error: ws.Workflow.LastError(),
	}
	if organ, res := ws.Workflow.Result(); res != nil {
		view := presentation.Build(organ, res)
		status.Result = &view
	}
	return writeJSON(w, http.StatusOK, status)
}

// POST /api/analysis/reset — the "back" affordance after viewing a result.
func (r *Router) handleAnalysisReset(w http.ResponseWriter, req *http.Request) error {
	ws, _ := r.workspace(req)
	ws.Workflow.Reset()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /api/results
func (r *Router) handleListResults(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.SessionFrom(req.Context())
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	ws, _ := r.workspace(req)
	return writeJSON(w, http.StatusOK, ws.History.Load(req.Context(), sess.Token))
}

// DELETE /api/results/{id}?confirm=1
// Failures are logged and the unchanged list is returned; the delete is
// never optimistic.
func (r *Router) handleDeleteResult(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.SessionFrom(req.Context())
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateResultID(id); err != nil {
		return badRequest("%v", err)
	}
	if c := req.URL.Query().Get("confirm"); c != "1" && c != "true" {
		return &httpError{status: http.StatusPreconditionRequired, detail: "deletion requires confirmation"}
	}

	ws, _ := r.workspace(req)
	if err := ws.History.Delete(req.Context(), sess.Token, id); err != nil {
		r.log.Warn("result delete failed", "id", id, "error", err)
	}
	return writeJSON(w, http.StatusOK, ws.History.Items())
}

// PUT /api/theme
func (r *Router) handleSetTheme(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.SessionFrom(req.Context())
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	var body struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid theme payload: %v", err)
	}
	if err := middleware.ValidateTheme(body.Theme); err != nil {
		return badRequest("%v", err)
	}
	if err := r.prefs.SetTheme(req.Context(), sess.User.ID, body.Theme); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /api/signout — tears down the workspace and clears cookies.
func (r *Router) handleSignout(w http.ResponseWriter, req *http.Request) error {
	_, key := r.workspace(req)
	r.workspaces.Drop(req.Context(), key)
	middleware.ClearSessionCookies(w, r.opts.CookieDomain)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
