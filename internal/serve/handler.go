package serve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
	"github.com/Vansh-04/buildfirst/internal/workers/chat"
)

const (
	defaultAppName = "AutoDev App"
	maxBodyBytes   = 1 << 20
)

// BuildFunc runs the pipeline once. Events reach the Hub through the
// emitter stored in ctx.
type BuildFunc func(ctx context.Context) (artifact.RunStatus, error)

type Options struct {
	Store  artifactrepo.Store
	Chat   chat.Agent
	Build  BuildFunc
	Logger *zap.Logger
}

// Handler serves the built application. It owns at most one background build.
type Handler struct {
	store artifactrepo.Store
	chat  chat.Agent
	build BuildFunc
	log   *zap.Logger
	hub   *Hub

	current  atomic.Pointer[Context]
	building atomic.Bool
	builds   sync.WaitGroup
	base     context.Context
	cancel   context.CancelFunc
}

// NewHandler loads the serving Context. It refuses to start when the
// strategy needs a model that is not fully present.
func NewHandler(ctx context.Context, opts Options) (*Handler, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sc, err := LoadContext(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &Handler{
		store:  opts.Store,
		chat:   opts.Chat,
		build:  opts.Build,
		log:    log,
		hub:    NewHub(),
		base:   base,
		cancel: cancel,
	}
	if h.chat.Store == nil {
		h.chat.Store = opts.Store
	}
	if h.chat.Logger == nil {
		h.chat.Logger = log
	}
	h.current.Store(sc)
	return h, nil
}

// Context returns the Context handlers currently read from.
func (h *Handler) Context() *Context { return h.current.Load() }

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /context", h.handleContext)
	mux.HandleFunc("GET /routes", h.handleRoutes)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /status", h.handleStatus)
	mux.HandleFunc("GET /ws/status", h.handleStatusWS)
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /go", h.handleGo)
	return CORS(mux)
}

// Close cancels a running build and waits for it.
func (h *Handler) Close() {
	h.cancel()
	h.builds.Wait()
}

// Wait blocks until the background build, if any, has finished.
func (h *Handler) Wait() { h.builds.Wait() }

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	sc := h.Context()
	if sc.Plan == nil {
		writeError(w, http.StatusNotFound, errors.New("no application has been built"))
		return
	}
	body, err := h.store.Get(r.Context(), path.Join(sc.Plan.FrontendDir(), artifact.IndexFile))
	if err != nil {
		code := http.StatusInternalServerError
		if artifactrepo.IsNotFound(err) {
			code = http.StatusNotFound
		}
		writeError(w, code, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"ai_enabled": h.Context().AIEnabled(),
	})
}

type contextResponse struct {
	AIEnabled   bool                      `json:"ai_enabled"`
	Strategy    artifact.Strategy         `json:"strategy"`
	Metadata    *artifact.ModelMetadata   `json:"model_metadata,omitempty"`
	Application *artifact.ApplicationPlan `json:"application,omitempty"`
}

func (h *Handler) handleContext(w http.ResponseWriter, _ *http.Request) {
	sc := h.Context()
	writeJSON(w, http.StatusOK, contextResponse{
		AIEnabled:   sc.AIEnabled(),
		Strategy:    sc.Strategy,
		Metadata:    sc.Metadata,
		Application: sc.Plan,
	})
}

func (h *Handler) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	sc := h.Context()
	routes := []artifact.Route{}
	switch {
	case sc.Backend != nil:
		routes = append(routes, sc.Backend.Routes...)
	case sc.Plan != nil:
		for _, p := range sc.Plan.BackendRoutes {
			method := http.MethodGet
			if p == "/predict" {
				method = http.MethodPost
			}
			routes = append(routes, artifact.Route{Path: p, Method: method})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	sc := h.Context()
	if !sc.AIEnabled() {
		writeError(w, http.StatusNotFound, errors.New("this application does not serve a model"))
		return
	}
	var req predictRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pred, err := sc.Predict(req.Features)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task":       sc.Metadata.TaskType,
		"model":      sc.Metadata.ModelFamily,
		"prediction": pred,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := runner.LoadStatus(r.Context(), h.store)
	if err != nil {
		code := http.StatusInternalServerError
		if artifactrepo.IsNotFound(err) {
			code = http.StatusNotFound
		}
		writeError(w, code, err)
		return
	}
	writeJSON(w, http.StatusOK, statusView(st))
}

type statusResponse struct {
	Label string `json:"label"`
	artifact.RunStatus
}

func statusView(st artifact.RunStatus) statusResponse {
	return statusResponse{Label: st.Label(), RunStatus: st}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	state, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type goRequest struct {
	Name string `json:"name"`
}

// handleGo promotes the approved conversation and starts a build.
func (h *Handler) handleGo(w http.ResponseWriter, r *http.Request) {
	if h.build == nil {
		writeError(w, http.StatusNotImplemented, errors.New("building is not enabled on this server"))
		return
	}
	var req goRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	ctx := r.Context()
	state, err := h.chat.State(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	spec, err := chat.Promote(state, h.appName(ctx, req.Name))
	if errors.Is(err, chat.ErrNotApproved) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if !h.building.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, errors.New("a build is already running"))
		return
	}
	if err := artifactrepo.Write(ctx, h.store, artifact.ApplicationSpecFile, spec); err != nil {
		h.building.Store(false)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.builds.Add(1)
	go h.runBuild()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "build started", "application": spec.Application})
}

func (h *Handler) runBuild() {
	defer h.builds.Done()
	defer h.building.Store(false)
	ctx := runner.WithEmitter(h.base, h.hub)
	st, err := h.build(ctx)
	if err != nil {
		h.log.Warn("background build failed", zap.String("status", st.Label()), zap.Error(err))
		return
	}
	sc, err := LoadContext(ctx, h.store)
	if err != nil {
		h.log.Warn("serving context not refreshed", zap.Error(err))
		return
	}
	h.current.Store(sc)
	h.log.Info("background build done", zap.String("run_id", st.RunID))
}

func (h *Handler) appName(ctx context.Context, requested string) string {
	if n := strings.TrimSpace(requested); n != "" {
		return n
	}
	prev, err := artifactrepo.Read[artifact.ApplicationSpec](ctx, h.store, artifact.KindApplicationSpec, artifact.ApplicationSpecFile)
	if err == nil && strings.TrimSpace(prev.Application.Name) != "" {
		return prev.Application.Name
	}
	return defaultAppName
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
