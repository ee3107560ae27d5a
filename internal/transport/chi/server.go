// Package chi serves the search API over a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/search/request"
	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
	"github.com/kailas-cloud/serpdex/internal/logger"
	"github.com/kailas-cloud/serpdex/internal/metrics"
	healthuc "github.com/kailas-cloud/serpdex/internal/usecase/health"
)

// maxBodyBytes bounds the POST /search body.
const maxBodyBytes = 1 << 20

// Searcher runs the ranking pipeline.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers of the search API.
type Server struct {
	search        Searcher
	health        HealthChecker
	defaults      request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaults fill limits the client leaves out.
func NewServer(search Searcher, health HealthChecker, defaults request.Limits, logger *zap.Logger) *Server {
	s := &Server{
		search:   search,
		health:   health,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrStageTimeout, http.StatusGatewayTimeout, ErrorCodeStageTimeout),
		sentinelHandler(domain.ErrEmbeddingFailure, http.StatusBadGateway, ErrorCodeEmbeddingFailure),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
	}
	return s
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/search", s.SearchPost)
	r.Get("/search", s.SearchGet)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}

// SearchPost handles POST /search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.runSearch(w, r, SearchParams{
		Query:                       body.Query,
		LimitBroadResults:           body.LimitBroadResults,
		LimitDedupedURLResults:      body.LimitDedupedURLResults,
		LimitHierarchicalURLResults: body.LimitHierarchicalURLResults,
		LimitFinalResults:           body.LimitFinalResults,
		LimitFinalPagerankResults:   body.LimitFinalPagerankResults,
		URLContainsFilter:           &body.URLContainsFilter,
	})
}

// SearchGet handles GET /search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	s.runSearch(w, r, params)
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	q := r.URL.Query()

	// url_contains_filter is comma separated, everything else is a single value.
	// A missing query is left to request validation.
	binds := []struct {
		name     string
		explode  bool
		required bool
		dest     any
	}{
		{"query", true, false, &p.Query},
		{"limit_broad_results", true, false, &p.LimitBroadResults},
		{"limit_deduped_url_results", true, false, &p.LimitDedupedURLResults},
		{"limit_hierarchical_url_results", true, false, &p.LimitHierarchicalURLResults},
		{"limit_final_results", true, false, &p.LimitFinalResults},
		{"limit_final_pagerank_results", true, false, &p.LimitFinalPagerankResults},
		{"url_contains_filter", false, false, &p.URLContainsFilter},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", b.explode, b.required, b.name, q, b.dest); err != nil {
			return SearchParams{}, err //nolint:wrapcheck // binder errors already name the parameter
		}
	}
	return p, nil
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, p SearchParams) {
	req, err := searchRequestFromParams(p, s.defaults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i, res := range results {
		items[i] = searchResultToDTO(res)
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: items})
}

func searchRequestFromParams(p SearchParams, defaults request.Limits) (*request.Request, error) {
	limits := defaults
	override := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	override(&limits.Broad, p.LimitBroadResults)
	override(&limits.Deduped, p.LimitDedupedURLResults)
	override(&limits.Hierarchical, p.LimitHierarchicalURLResults)
	if p.LimitFinalResults != nil {
		limits.Final = *p.LimitFinalResults
	} else {
		override(&limits.Final, p.LimitFinalPagerankResults)
	}

	var filters []string
	if p.URLContainsFilter != nil {
		filters = *p.URLContainsFilter
	}

	req, err := request.New(p.Query, limits, filters)
	if err != nil {
		return nil, err //nolint:wrapcheck // domain validation error is returned as-is
	}
	return req, nil
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler exposes the full message: it only describes client input.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The message names the failing stage and the kind, never the cause.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		var se *domain.StageError
		if errors.As(err, &se) {
			msg = string(se.Stage) + ": " + msg
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("search request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func searchResultToDTO(r result.Result) SearchResultItem {
	meta := r.Metadata()
	if meta == nil {
		meta = map[string]any{}
	}
	return SearchResultItem{
		Score:    r.Score(),
		URL:      r.URL(),
		Title:    r.Title(),
		Dataset:  r.Dataset(),
		Metadata: meta,
		Text:     r.Text(),
	}
}
