// Package server exposes the conversational pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	contractx "github.com/fitlead/fitlead/agent/contract"
	leadx "github.com/fitlead/fitlead/agent/lead"
)

type Config struct {
	Host            string        `envconfig:"HOST" split_words:"true" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" split_words:"true" default:"8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

// TurnProcessor is what the HTTP layer needs from the orchestrator.
type TurnProcessor interface {
	Process(ctx context.Context, sessionID, text string) contractx.TurnResult
	Reset(sessionID string) bool
	SessionCount() int
}

// ProviderProbe checks LLM provider connectivity for the health endpoint.
type ProviderProbe func(ctx context.Context) error

type Server struct {
	cfg       Config
	processor TurnProcessor
	store     leadx.Store
	scheduler contractx.SchedulingGateway
	probe     ProviderProbe
}

func New(
	cfg Config,
	processor TurnProcessor,
	store leadx.Store,
	scheduler contractx.SchedulingGateway,
	probe ProviderProbe,
) (*Server, error) {
	if processor == nil {
		return nil, errors.New("turn processor is required")
	}
	if store == nil {
		return nil, errors.New("lead store is required")
	}
	if scheduler == nil {
		return nil, errors.New("scheduling gateway is required")
	}

	return &Server{
		cfg:       cfg,
		processor: processor,
		store:     store,
		scheduler: scheduler,
		probe:     probe,
	}, nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/chat", s.handleChat)
	router.POST("/reset-session/:session_id", s.handleResetSession)
	router.GET("/memory/:session_id", s.handleGetMemory)
	router.DELETE("/memory/:session_id", s.handleDeleteMemory)
	router.GET("/slots", s.handleSlots)
	router.GET("/health", s.handleHealth)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
