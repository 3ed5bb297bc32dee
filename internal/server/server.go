// Package server exposes the distill pipeline over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/distill/internal/model"
	"github.com/ppiankov/distill/internal/pipeline"
	"github.com/ppiankov/distill/internal/source"
	"github.com/ppiankov/distill/internal/tags"
)

const (
	maxBodyBytes    = 10 << 20
	requestTimeout  = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

// Service is the part of the pipeline the API serves
type Service interface {
	Defaults() pipeline.SummaryOptions
	Summarize(ctx context.Context, doc *source.Document, opts pipeline.SummaryOptions) (*model.SummaryResult, error)
	CreateSummaryExtract(ctx context.Context, res *model.SummaryResult) (*model.Extract, error)
	Concepts(text string, n int) []model.Concept
	Sections(text string) []model.Section
	KeySections(text string, limit int) []model.KeySection
	Tags(text string, k int) []string
	CreateExtract(ctx context.Context, ex *model.Extract) error
	GetExtract(ctx context.Context, id string) (*model.Extract, error)
	GenerateItems(ctx context.Context, extractID string, itemType model.ItemType, limit int, useAI bool) ([]model.LearningItem, error)
	Items(ctx context.Context, extractID string) ([]model.LearningItem, error)
	RelatedExtracts(ctx context.Context, extractID string, k int) ([]tags.Match, error)
}

// Server routes API requests to a Service
type Server struct {
	svc      Service
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a server. A nil logger uses slog.Default.
func New(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger, validate: validator.New()}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/summaries", s.handleSummarize)
		r.Post("/concepts", s.handleConcepts)
		r.Post("/sections", s.handleSections)
		r.Post("/tags", s.handleTags)

		r.Route("/extracts", func(r chi.Router) {
			r.Post("/", s.handleCreateExtract)
			r.Get("/{id}", s.handleGetExtract)
			r.Post("/{id}/items", s.handleGenerateItems)
			r.Get("/{id}/items", s.handleListItems)
			r.Get("/{id}/related", s.handleRelated)
		})
	})

	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
