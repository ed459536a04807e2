package expense

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxUploadBytes = 20 << 20
	shutdownTimeout       = 10 * time.Second
)

// Server handles HTTP requests for expenses and invoice processing
type Server struct {
	service *Service
	config  Config
	mux     *http.ServeMux
	handler http.Handler
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Config holds the HTTP server settings
type Config struct {
	BasicAuth BasicAuth

	// Version is reported by the health check
	Version string

	// MaxUploadBytes caps the size of an uploaded invoice
	MaxUploadBytes int64

	// ProviderTimeout bounds a single invoice run; zero means no limit
	ProviderTimeout time.Duration
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, config Config) *Server {
	return NewServerWithMux(service, config, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, config Config, mux *http.ServeMux) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		service: service,
		config:  config,
		mux:     mux,
	}
	s.registerRoutes()
	s.handler = corsMiddleware(requestLogger(recoverPanics(s.mux)))
	return s
}

// authEnabled reports whether basic auth credentials are configured
func (s *Server) authEnabled() bool {
	return s.config.BasicAuth.Username != "" || s.config.BasicAuth.Password != ""
}

// authenticate checks basic auth credentials and returns the caller identity
func (s *Server) authenticate(r *http.Request) (string, bool) {
	if !s.authEnabled() {
		return DefaultUser, true
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		return "", false
	}

	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.BasicAuth.Username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.BasicAuth.Password)) == 1
	if !userMatch || !passMatch {
		return "", false
	}
	return username, true
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authenticate(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Expense Tracker"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(withUser(r.Context(), user)))
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/invoices/process", s.requireAuth(s.handleProcessInvoice))

	s.mux.HandleFunc("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	s.mux.HandleFunc("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	s.mux.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))
	s.mux.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	s.mux.HandleFunc("POST /api/expenses", s.requireAuth(s.handleCreateExpense))

	s.mux.HandleFunc("GET /api/user/currency", s.requireAuth(s.handleGetCurrency))
	s.mux.HandleFunc("PUT /api/user/currency", s.requireAuth(s.handleSetCurrency))
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
// A listener failure stops the shutdown watcher and is returned.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
