// Package gateway exposes the assistant over HTTP: a streaming chat endpoint,
// a plain catalog search endpoint and a health check.
package gateway

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"shopmate/internal/agent"
	"shopmate/internal/retrieval"
)

type Server struct {
	orchestrator *agent.Orchestrator
	engine       *retrieval.Engine
	adminToken   string
	mux          *http.ServeMux
}

func NewServer(orchestrator *agent.Orchestrator, engine *retrieval.Engine, adminToken string) *Server {
	s := &Server{
		orchestrator: orchestrator,
		engine:       engine,
		adminToken:   adminToken,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/chat", s.handleChat)
	s.mux.HandleFunc("GET /v1/search", s.handleSearch)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mux, "gateway")
}

// ListenAndServe blocks until the context is cancelled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
