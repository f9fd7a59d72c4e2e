// Package gateway exposes the orchestration core over HTTP: one chat
// endpoint that routes and runs a turn, session management, and health.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/curielabs/curie/pkg/agent"
	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/config"
	"github.com/curielabs/curie/pkg/logger"
	"github.com/curielabs/curie/pkg/ratelimit"
)

// ChatService is the slice of the orchestrator the gateway needs.
// *agent.Orchestrator satisfies it.
type ChatService interface {
	Route(ctx context.Context, message string) agent.RoutingDecision
	GenerateFor(ctx context.Context, category, message, sessionKey string) []chat.Message
	Clear(sessionKey string)
}

// Server is the HTTP boundary in front of the orchestration core.
type Server struct {
	cfg     *config.Config
	service ChatService
	limiter *ratelimit.Limiter
	server  *http.Server
}

func NewServer(cfg *config.Config, service ChatService) *Server {
	return &Server{
		cfg:     cfg,
		service: service,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Enabled:           cfg.Gateway.RequestsPerMinute > 0,
			RequestsPerMinute: cfg.Gateway.RequestsPerMinute,
			PerSessionLimit:   true,
		}),
	}
}

// Handler builds the route table. Split from Start so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.authMiddleware(s.rateLimitMiddleware(s.handleChat)))
	mux.HandleFunc("DELETE /api/session", s.authMiddleware(s.handleClearSession))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

// Start begins listening on the configured host:port.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Host, s.cfg.Gateway.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoCF("gateway", "HTTP server starting", map[string]any{"addr": addr})
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("gateway", "HTTP server error", map[string]any{"error": err.Error()})
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
