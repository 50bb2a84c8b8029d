package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/refdata"
	"github.com/yegors/procroute/internal/resolver"
	"github.com/yegors/procroute/internal/route"
	"github.com/yegors/procroute/pkg/logger"
)

// maxRequestBody caps route request bodies
const maxRequestBody = 1 << 20

// Handler contains the HTTP handlers
type Handler struct {
	store     *procdb.Store
	loader    *refdata.Loader
	routes    *route.Service
	startTime time.Time
	logger    *logger.Logger
}

// NewHandler creates a new handler. loader may be nil, in which case
// reloads are refused.
func NewHandler(store *procdb.Store, loader *refdata.Loader, routes *route.Service, logger *logger.Logger) *Handler {
	return &Handler{
		store:     store,
		loader:    loader,
		routes:    routes,
		startTime: time.Now(),
		logger:    logger.Named("api-handler"),
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func familyParam(r *http.Request) (procdb.Family, error) {
	return procdb.ParseFamily(chi.URLParam(r, "family"))
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	for _, f := range procdb.Families {
		if !h.store.Loaded(f) {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

type familyStatus struct {
	Family procdb.Family     `json:"family"`
	Loaded bool              `json:"loaded"`
	Stats  procdb.BuildStats `json:"stats"`
}

type statusResponse struct {
	Source   string         `json:"source,omitempty"`
	Families []familyStatus `json:"families"`
}

// GetReferenceStatus handles GET /reference/status
func (h *Handler) GetReferenceStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{}
	if h.loader != nil {
		resp.Source = h.loader.Source().Name()
	}
	for _, f := range procdb.Families {
		resp.Families = append(resp.Families, familyStatus{
			Family: f,
			Loaded: h.store.Loaded(f),
			Stats:  h.store.Database(f).Stats(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type reloadResponse struct {
	Results []procdb.LoadResult `json:"results"`
	Error   string              `json:"error,omitempty"`
}

// ReloadReference handles POST /reference/reload. A partial failure still
// reports the families that loaded.
func (h *Handler) ReloadReference(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, errors.New("no reference source configured"))
		return
	}

	results, err := h.loader.Reload(r.Context())
	resp := reloadResponse{Results: results}
	if resp.Results == nil {
		resp.Results = []procdb.LoadResult{}
	}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResolveToken handles GET /procedures/{family}/resolve
func (h *Handler) ResolveToken(w http.ResponseWriter, r *http.Request) {
	f, err := familyParam(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	tok := strings.TrimSpace(r.URL.Query().Get("token"))
	if tok == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("token is required"))
		return
	}
	neighbor := strings.TrimSpace(r.URL.Query().Get("neighbor"))

	res := resolver.FromStore(h.store).Resolve(tok, neighbor, f)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":           tok,
		"resolution":      res,
		"served_airports": res.ServedAirports(),
	})
}

// ResolveCombined handles GET /procedures/combined
func (h *Handler) ResolveCombined(w http.ResponseWriter, r *http.Request) {
	tok := strings.TrimSpace(r.URL.Query().Get("token"))
	if tok == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("token is required"))
		return
	}

	combined, ok := resolver.FromStore(h.store).ResolveCombined(tok)
	resp := map[string]any{"token": tok, "matched": ok}
	if ok {
		resp["combined"] = combined
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchProcedures handles GET /procedures/{family}/search
func (h *Handler) SearchProcedures(w http.ResponseWriter, r *http.Request) {
	f, err := familyParam(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("q is required"))
		return
	}

	limit := procdb.DefaultSearchLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, r, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	db := h.store.Database(f)
	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "transition":
		writeJSON(w, http.StatusOK, map[string]any{"kind": "transition", "results": db.SearchTransitions(q, limit)})
	case "pattern":
		writeJSON(w, http.StatusOK, map[string]any{"kind": "pattern", "results": db.SearchPatterns(q, limit)})
	default:
		h.writeError(w, r, http.StatusBadRequest, errors.New("kind must be transition or pattern"))
	}
}

// GetProceduresAtFix handles GET /procedures/{family}/fix/{fix}
func (h *Handler) GetProceduresAtFix(w http.ResponseWriter, r *http.Request) {
	f, err := familyParam(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	fix := strings.ToUpper(chi.URLParam(r, "fix"))

	records := h.store.Database(f).AtFix(fix)
	if records == nil {
		records = []*procdb.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fix": fix, "records": records})
}

// routeRequest carries a route either as one string or as tokens
type routeRequest struct {
	Route  string   `json:"route"`
	Tokens []string `json:"tokens"`

	route.ExpandOptions
}

func (req routeRequest) tokens() []string {
	if len(req.Tokens) > 0 {
		return req.Tokens
	}
	return route.Tokenize(req.Route)
}

func (h *Handler) decodeRoute(w http.ResponseWriter, r *http.Request) (routeRequest, bool) {
	var req routeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, errors.New("invalid JSON body"))
		return req, false
	}
	if len(req.tokens()) == 0 {
		h.writeError(w, r, http.StatusBadRequest, errors.New("route or tokens is required"))
		return req, false
	}
	return req, true
}

// PreprocessRoute handles POST /routes/preprocess
func (h *Handler) PreprocessRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRoute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.routes.Preprocess(req.tokens()))
}

type expandResponse struct {
	Preprocess route.Result    `json:"preprocess"`
	Expansion  route.Expansion `json:"expansion"`
}

// ExpandRoute handles POST /routes/expand
func (h *Handler) ExpandRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRoute(w, r)
	if !ok {
		return
	}
	result, expansion := h.routes.Process(req.tokens(), req.ExpandOptions)
	writeJSON(w, http.StatusOK, expandResponse{Preprocess: result, Expansion: expansion})
}
