// Package api serves a built ecosystem graph over a read-only HTTP API.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kenobase/domain/ecosystem"
	"kenobase/internal"
)

// Server exposes one graph. The graph is never mutated after NewServer, so
// handlers read it without locking.
type Server struct {
	router *gin.Engine
	graph  *ecosystem.Graph
	logger *internal.Logger
}

// NewServer creates a server for g
func NewServer(g *ecosystem.Graph, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: gin.New(),
		graph:  g,
		logger: logger,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/graph", s.handleGraph)
		api.GET("/summary", s.handleSummary)
		api.GET("/report", s.handleReport)
		api.GET("/nodes", s.handleNodes)
		api.GET("/nodes/:name", s.handleNode)
		api.GET("/nodes/:name/edges", s.handleNodeEdges)
		api.GET("/edges", s.handleEdges)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ecosystem graph API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down ecosystem graph API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
