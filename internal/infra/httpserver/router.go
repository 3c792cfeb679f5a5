package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	appanalyses "github.com/bryanwahyu/pcap-insight/internal/application/analyses"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/logger"
	"github.com/bryanwahyu/pcap-insight/internal/middleware"
)

const (
	// DefaultMaxUploadBytes is the upload ceiling when none is configured.
	DefaultMaxUploadBytes int64 = 100 << 20

	// room for multipart boundaries and part headers on top of the file
	multipartOverhead int64 = 1 << 20
	// parts above this are spooled to temp files
	multipartMemory int64 = 32 << 20
)

// Options configures the dashboard API.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
	// APIKeys guard destructive routes; empty disables auth.
	APIKeys []string
	// RateCapacity / RateRefill limit uploads per client IP; zero disables.
	RateCapacity int
	RateRefill   int
	Checkers     map[string]middleware.HealthChecker
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

type Router struct {
	svc       *appanalyses.Service
	maxUpload int64
}

func NewRouter(svc *appanalyses.Service, opts Options) http.Handler {
	r := &Router{svc: svc, maxUpload: opts.MaxUploadBytes}
	if r.maxUpload <= 0 {
		r.maxUpload = DefaultMaxUploadBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		MaxAge:         300,
	}))

	health := middleware.HealthHandler(opts.Checkers)
	mux.Get("/health", health)
	mux.Get("/healthz/ready", health)
	mux.Get("/healthz/live", middleware.LivenessHandler)
	if opts.Gatherer != nil {
		mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.Route("/api", func(rt chi.Router) {
		upload := rt
		if opts.RateCapacity > 0 && opts.RateRefill > 0 {
			upload = rt.With(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
		}
		upload.Post("/analyze", r.wrap("Failed to analyze PCAP file", r.handleAnalyze))
		rt.Get("/analyses", r.wrap("Failed to fetch analyses", r.handleList))
		rt.Get("/analysis/{id}", r.wrap("Failed to fetch analysis", r.handleGet))
		rt.With(middleware.APIKeyAuth(opts.APIKeys)).
			Delete("/analysis/{id}", r.wrap("Failed to delete analysis", r.handleDelete))
		rt.Post("/report/{id}", r.wrap("Failed to generate report", r.handleReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// requestError carries a client-facing status and message.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func errBadRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: err}
}

func errTooLarge(limit int64) error {
	return &requestError{
		status: http.StatusRequestEntityTooLarge,
		err:    fmt.Errorf("file exceeds the %s upload limit", humanize.IBytes(uint64(limit))),
	}
}

// wrap turns handler errors into JSON error bodies. Unexpected errors are
// logged in full and answered with the generic fallback message.
func (r *Router) wrap(fallback string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var re *requestError
		switch {
		case errors.As(err, &re):
			logger.WithFields(logrus.Fields{"method": req.Method, "path": req.URL.Path}).
				WithError(err).Debug("rejected request")
			writeError(w, re.status, re.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Analysis not found")
		default:
			logger.WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"request_id": chimw.GetReqID(req.Context()),
			}).WithError(err).Error(fallback)
			writeError(w, http.StatusInternalServerError, fallback)
		}
	}
}

// POST /api/analyze (multipart, field "file")
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+multipartOverhead)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errTooLarge(r.maxUpload)
		}
		return errBadRequest(errors.New("no file uploaded"))
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return errBadRequest(errors.New("no file uploaded"))
	}
	defer file.Close()

	name := middleware.SanitizeFilename(header.Filename)
	if err := middleware.ValidateCaptureName(name); err != nil {
		return errBadRequest(err)
	}
	if header.Size > r.maxUpload {
		return errTooLarge(r.maxUpload)
	}

	a, err := r.svc.Analyze(req.Context(), appanalyses.AnalyzeCommand{
		Filename: name,
		Filesize: header.Size,
		Capture:  file,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, appanalyses.NewView(a))
}

// GET /api/analyses
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.svc.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Analysis{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/analysis/{id}?q=&type=&sort=&order=
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	q, err := iocQuery(req)
	if err != nil {
		return errBadRequest(err)
	}

	v, err := r.svc.View(req.Context(), id, q)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, v)
}

// DELETE /api/analysis/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if errors.Is(err, domain.ErrNotFound) {
		// nothing stored under a malformed id
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	if err := r.svc.Delete(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /api/report/{id}
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	stub, err := r.svc.Report(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, stub)
}

// analysisID reads {id}; ids that could never have been issued are
// reported as not found without touching the store.
func analysisID(req *http.Request) (domain.AnalysisID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return "", fmt.Errorf("analysis %q: %w", id, domain.ErrNotFound)
	}
	return domain.AnalysisID(strings.ToLower(id)), nil
}

func iocQuery(req *http.Request) (domain.IOCQuery, error) {
	v := req.URL.Query()
	q := domain.IOCQuery{
		Search: middleware.SanitizeString(v.Get("q")),
		SortBy: strings.TrimSpace(v.Get("sort")),
	}
	if raw := strings.TrimSpace(v.Get("type")); raw != "" {
		t, ok := domain.ParseIOCType(raw)
		if !ok {
			return q, fmt.Errorf("unknown ioc type %q", raw)
		}
		q.Type = t
	}
	switch strings.ToLower(v.Get("order")) {
	case "", "desc":
	case "asc":
		q.Asc = true
	default:
		return q, fmt.Errorf("order must be asc or desc")
	}
	return q, q.Validate()
}

// writeJSON always reports success: once the status line is out, an encode
// failure can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithFields(logrus.Fields{"status": status}).WithError(err).Error("encode response")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
