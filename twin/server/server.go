// Package server exposes the twin over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nidhishmalav/career-twin/twin/generation"
	"github.com/nidhishmalav/career-twin/twin/generation/harness"
)

const shutdownTimeout = 30 * time.Second

// Replier answers one chat turn.
type Replier interface {
	Reply(ctx context.Context, history generation.History, message string) (*generation.Outcome, error)
}

// ChatRequest is the body of POST /api/chat. The client sends the whole
// history every turn; the server keeps no session state.
type ChatRequest struct {
	Message        string               `json:"message"`
	History        []generation.Message `json:"history"`
	ConversationID string               `json:"conversation_id,omitempty"`
}

// ChatResponse is the reply to a ChatRequest.
type ChatResponse struct {
	Reply   string             `json:"reply"`
	Revised bool               `json:"revised"`
	Verdict generation.Verdict `json:"verdict"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to the twin.
type Server struct {
	replier Replier
	logger  zerolog.Logger
	engine  *gin.Engine
}

// New creates a server with its routes installed.
func New(replier Replier, logger zerolog.Logger) *Server {
	s := &Server{
		replier: replier,
		logger:  logger,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthz", s.handleHealth)
	api := s.engine.Group("/api")
	api.POST("/chat", s.handleChat)

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	history := generation.History(req.History)
	if err := history.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.ConversationID != "" {
		ctx = harness.WithConversationID(ctx, req.ConversationID)
	}

	outcome, err := s.replier.Reply(ctx, history, req.Message)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, generation.ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		s.logger.Error().Err(err).Int("status", status).Msg("Chat turn failed")
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Reply:   outcome.Text,
		Revised: outcome.Revised,
		Verdict: outcome.Verdict,
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
