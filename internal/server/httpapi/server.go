package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/certisafe/certisafe/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server owns the HTTP listener for the certificate API.
type Server struct {
	srv    *http.Server
	db     *sql.DB
	logger logging.Logger
}

// NewServer wires the handler into a router and prepares the listener on addr.
func NewServer(addr string, handler *Handler, db *sql.DB, l logging.Logger) *Server {
	s := &Server{db: db, logger: l.With("module", "httpserver")}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	mux.Post("/api/issue", handler.HandleIssue)
	mux.Post("/api/issue/bulk", handler.HandleBulkIssue)
	mux.Post("/api/verify", handler.HandleVerify)
	mux.Post("/api/revoke", handler.HandleRevoke)
	mux.Get("/api/system/expiry-check", handler.HandleExpiryCheck)

	mux.Get("/livez", s.handleLiveness)
	mux.Get("/readyz", s.handleReadiness)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"alive"}`))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ready"}`))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info(context.Background(), "http server stopped")
	return <-errCh
}
