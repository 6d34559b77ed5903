package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/product"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBytes = 1 << 20

// Renderer renders a request to an in-memory figure when it has no output path.
type Renderer interface {
	Render(ctx context.Context, req domain.RenderRequest) (product.Result, error)
}

// Server exposes health, readiness, metrics, and on-demand render endpoints.
type Server struct {
	httpServer    *http.Server
	renderer      Renderer
	renderTimeout time.Duration
	logger        *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes.
// POST /v1/render is registered when renderer is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, renderer Renderer, renderTimeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: renderTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		renderer:      renderer,
		renderTimeout: renderTimeout,
		logger:        logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if renderer != nil {
		mux.HandleFunc("POST /v1/render", s.handleRender)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRender renders the posted request and streams the PNG back. Output
// paths in the body are ignored; nothing is written server side. Only request
// validation errors are echoed to the client.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req domain.RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.OutputPath = ""

	ctx := r.Context()
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
	}

	res, err := s.renderer.Render(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		s.logger.Warn("render request failed", "error", err, "product", req.Product, "status", status)
		if status != http.StatusBadRequest {
			err = errors.New(http.StatusText(status))
		}
		writeError(w, status, err)
		return
	}
	if res.Figure == nil {
		writeError(w, http.StatusInternalServerError, errors.New("renderer returned no figure"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := res.Figure.WriteTo(w); err != nil {
		s.logger.Warn("write figure failed", "error", err, "product", req.Product)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
