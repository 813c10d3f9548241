package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/launchpadhq/launchpad/internal/authoring"
	"github.com/launchpadhq/launchpad/internal/config"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/embeddings"
	"github.com/launchpadhq/launchpad/internal/queue"
	"github.com/launchpadhq/launchpad/internal/server/middleware"
	"github.com/launchpadhq/launchpad/internal/server/ratelimit"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	log         *zap.SugaredLogger
}

// Config holds server configuration
type Config struct {
	Port int
}

// Deps holds the server's external collaborators, built by the caller so
// they can be shared with the worker process and stubbed in tests.
type Deps struct {
	DB        *db.DB
	Enqueuer  queue.Enqueuer
	Embedder  *embeddings.Generator
	Assistant *authoring.Assistant
	Log       *zap.SugaredLogger
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	s := &Server{
		db:  deps.DB,
		log: deps.Log,
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)

	authHandler := NewAuthHandler(deps.DB, passwordConfig, s.jwtService, deps.Enqueuer, deps.Log)
	appHandler := NewApplicationHandler(deps.DB, deps.Enqueuer, deps.Log)
	jobHandler := NewJobHandler(deps.DB, deps.Embedder, deps.Assistant, deps.Log)
	studentHandler := NewStudentHandler(deps.DB, deps.Embedder, deps.Log)
	companyHandler := NewCompanyHandler(deps.DB, deps.Log)
	profileHandler := NewProfileHandler(deps.DB, deps.Log)

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	student := middleware.RequireRole(string(db.RoleStudent))
	startup := middleware.RequireRole(string(db.RoleStartup))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Auth
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.Handle("GET /auth/me", auth(http.HandlerFunc(authHandler.Me)))

	// Jobs. /jobs/matched must stay more specific than /jobs/{id}.
	mux.HandleFunc("GET /jobs", jobHandler.List)
	mux.Handle("GET /jobs/matched", auth(student(http.HandlerFunc(jobHandler.Matched))))
	mux.HandleFunc("GET /jobs/{id}", jobHandler.Get)
	mux.Handle("POST /jobs", auth(startup(http.HandlerFunc(jobHandler.Create))))
	mux.Handle("PUT /jobs/{id}", auth(startup(http.HandlerFunc(jobHandler.Update))))
	mux.Handle("DELETE /jobs/{id}", auth(startup(http.HandlerFunc(jobHandler.Delete))))
	mux.Handle("GET /jobs/{id}/applications", auth(startup(http.HandlerFunc(jobHandler.Applicants))))

	// Posting assistance
	mux.Handle("POST /jobs/parse-skills", auth(startup(http.HandlerFunc(jobHandler.ParseSkills))))
	mux.Handle("POST /jobs/parse-requirements", auth(startup(http.HandlerFunc(jobHandler.ParseRequirements))))
	mux.Handle("POST /jobs/enhance-description", auth(startup(http.HandlerFunc(jobHandler.EnhanceDescription))))

	// Applications
	mux.Handle("GET /applications", auth(http.HandlerFunc(appHandler.List)))
	mux.Handle("POST /applications", auth(student(http.HandlerFunc(appHandler.Submit))))
	mux.Handle("GET /applications/{id}", auth(http.HandlerFunc(appHandler.Get)))
	mux.Handle("PATCH /applications/{id}", auth(startup(http.HandlerFunc(appHandler.Decide))))

	// Profiles
	mux.HandleFunc("GET /student-profiles/{id}", studentHandler.Get)
	mux.Handle("PATCH /student-profiles/{id}", auth(http.HandlerFunc(studentHandler.Update)))
	mux.HandleFunc("GET /companies/{id}", companyHandler.Get)
	mux.Handle("PATCH /companies/{id}", auth(http.HandlerFunc(companyHandler.Update)))
	mux.Handle("GET /profiles/{id}", auth(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PATCH /profiles/{id}", auth(http.HandlerFunc(profileHandler.Update)))

	// Workflows
	mux.Handle("GET /workflows", auth(startup(http.HandlerFunc(companyHandler.GetWorkflow))))
	mux.Handle("PATCH /workflows", auth(startup(http.HandlerFunc(companyHandler.UpdateWorkflow))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.log.Infow("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatalw("server error", "error", err)
		}
	}()

	<-stop
	s.log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.log.Infow("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error JSON response with the status mapped from the
// error type.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPStatus(err), map[string]string{"error": err.Error()})
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	s.log.Warnw("rate limit exceeded",
		"limit", info.Limit,
		"remaining", info.Remaining,
		"reset_at", info.ResetTime.Format(time.RFC3339))

	writeJSON(w, http.StatusTooManyRequests, response)
}
