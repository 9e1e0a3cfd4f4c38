// Package server provides the HTTP API for Satei.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/satei/internal/adjudicate"
	"github.com/hyperjump/satei/internal/config"
	"github.com/hyperjump/satei/internal/ingest"
	"github.com/hyperjump/satei/internal/kb"
	"github.com/hyperjump/satei/internal/retrieval"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Satei API. The persistent knowledge base
// is read-only between rebuilds; the mutex only guards the pointer swap a
// rebuild performs.
type Server struct {
	ingestor    *ingest.Ingestor
	retriever   *retrieval.Retriever
	adjudicator *adjudicate.Adjudicator
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server

	mu         sync.RWMutex
	persistent *kb.KnowledgeBase
}

// NewServer creates a server with the given dependencies. persistent may be
// nil when no knowledge base could be built at startup; the query endpoint
// then reports it unavailable until a rebuild succeeds.
func NewServer(
	ingestor *ingest.Ingestor,
	retriever *retrieval.Retriever,
	adjudicator *adjudicate.Adjudicator,
	cfg *config.Config,
	logger *zap.Logger,
	persistent *kb.KnowledgeBase,
) *Server {
	return &Server{
		ingestor:    ingestor,
		retriever:   retriever,
		adjudicator: adjudicator,
		config:      cfg,
		logger:      logger,
		persistent:  persistent,
	}
}

// PersistentKB returns the current persistent knowledge base, or nil.
func (s *Server) PersistentKB() *kb.KnowledgeBase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistent
}

// SwapPersistentKB replaces the persistent knowledge base. In-flight requests
// keep the base they already hold; new requests see the replacement.
func (s *Server) SwapPersistentKB(base *kb.KnowledgeBase) {
	s.mu.Lock()
	s.persistent = base
	s.mu.Unlock()
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/query/upload", s.handleQueryUpload)
	r.Post("/api/v1/rebuild", s.handleRebuild)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
