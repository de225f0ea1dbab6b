// Package server provides HTTP initialization and lifecycle management
// for the sortd webhook service: the inbound event endpoint, the two
// scheduled-trigger endpoints, and a health check.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mangrove-labs/sortd/internal/capture"
	"github.com/mangrove-labs/sortd/internal/config"
)

// Verifier validates inbound webhook signatures.
type Verifier interface {
	Verify(signature, timestamp, body string) bool
}

// Processor handles accepted message events.
type Processor interface {
	AlreadySeen(correlationID string) bool
	ProcessMessage(ctx context.Context, msg *capture.MessageEvent) error
	HandleCorrection(ctx context.Context, msg *capture.MessageEvent) error
}

// DigestRunner runs the scheduled summaries.
type DigestRunner interface {
	RunDaily(ctx context.Context) (empty bool, err error)
	RunWeekly(ctx context.Context) error
}

// circuitStater is optionally implemented by the LLM client to expose its
// breaker state on the health endpoint.
type circuitStater interface {
	CircuitState() string
}

// Server is the sortd HTTP server.
type Server struct {
	cfg       *config.Config
	verifier  Verifier
	processor Processor
	digests   DigestRunner
	llm       interface{} // probed for circuitStater
}

// New wires a Server from its collaborators. llmClient may be nil or any
// value; the health endpoint reports breaker state when it supports it.
func New(cfg *config.Config, verifier Verifier, processor Processor, digests DigestRunner, llmClient interface{}) *Server {
	return &Server{
		cfg:       cfg,
		verifier:  verifier,
		processor: processor,
		digests:   digests,
		llm:       llmClient,
	}
}

// Start begins serving and returns the actual listen address (useful for
// tests with port 0). The server shuts down gracefully when ctx is done.
func (s *Server) Start(ctx context.Context) (string, error) {
	handler := rateLimitMiddleware(s.Handler(), NewRateLimiter(10.0, 20))
	handler = requestLogMiddleware(handler)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // digest generation waits on the LLM
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Handler builds the route table. Exposed so tests can drive it with
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /slack/events", s.handleEvents)
	mux.HandleFunc("GET /cron/daily-digest", requireBearer(s.handleDailyDigest, s.cfg.Security.CronSecret))
	mux.HandleFunc("GET /cron/weekly-review", requireBearer(s.handleWeeklyReview, s.cfg.Security.CronSecret))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "healthy"}
	if cs, ok := s.llm.(circuitStater); ok {
		resp["llm_circuit"] = cs.CircuitState()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDailyDigest(w http.ResponseWriter, r *http.Request) {
	empty, err := s.digests.RunDaily(r.Context())
	if err != nil {
		log.Printf("server: daily digest failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed", "details": err.Error(),
		})
		return
	}
	if empty {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "empty": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleWeeklyReview(w http.ResponseWriter, r *http.Request) {
	if err := s.digests.RunWeekly(r.Context()); err != nil {
		log.Printf("server: weekly review failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed", "details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}
