package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/docvault/internal/config"
	"github.com/kirillkom/docvault/internal/core/ports"
	"github.com/kirillkom/docvault/internal/observability/metrics"
)

type Router struct {
	translator ports.Translator
	catalog    ports.DocumentCatalog
	metrics    *metrics.HTTPServerMetrics

	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
	maxUploadBytes   int64
}

// NewRouter wires the HTTP surface. catalog and m may be nil: catalog routes
// and the metrics endpoint are then not registered.
func NewRouter(
	cfg config.Config,
	translator ports.Translator,
	catalog ports.DocumentCatalog,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		translator:       translator,
		catalog:          catalog,
		metrics:          m,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: cfg.APIBackpressureWait(),
		maxUploadBytes:   cfg.MaxUploadBytes(),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /functions/v1/translate", rt.translate)
	mux.HandleFunc("POST /v1/translate", rt.translate)
	mux.HandleFunc("GET /v1/languages", rt.languages)

	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	if rt.catalog != nil {
		mux.HandleFunc("GET /v1/documents", rt.listDocuments)
		mux.HandleFunc("POST /v1/documents", rt.createDocument)
		mux.HandleFunc("GET /v1/documents/stats", rt.documentStats)
		mux.HandleFunc("GET /v1/documents/export.xlsx", rt.exportDocuments)
		mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
		mux.HandleFunc("GET /v1/documents/{id}/file", rt.downloadDocumentFile)
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return corsMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSONBody decodes exactly one JSON value from a body capped at limit bytes.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
