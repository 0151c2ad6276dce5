// Package server assembles the boardroom HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/boardroom/ai"
	agent "github.com/hrygo/boardroom/ai/agents"
	"github.com/hrygo/boardroom/ai/agents/orchestrator"
	"github.com/hrygo/boardroom/ai/cache"
	"github.com/hrygo/boardroom/ai/configloader"
	"github.com/hrygo/boardroom/ai/core/llm"
	"github.com/hrygo/boardroom/ai/metrics"
	"github.com/hrygo/boardroom/ai/session"
	"github.com/hrygo/boardroom/internal/profile"
	apiv1 "github.com/hrygo/boardroom/server/router/api/v1"
)

type Server struct {
	Profile      *profile.Profile
	Sessions     *session.Manager
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.PrometheusExporter

	echoServer *echo.Echo
	listener   net.Listener
}

// NewServer builds a server backed by the LLM gateway configured in profile.
func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	cfg := ai.NewConfigFromProfile(profile)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	gateway, err := llm.NewService(&cfg.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}

	// Warm up the provider connection without delaying startup.
	go func() {
		warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		gateway.Warmup(warmupCtx)
	}()

	return NewServerWithGateway(ctx, profile, cfg, gateway)
}

// NewServerWithGateway builds a server over an explicit gateway.
func NewServerWithGateway(_ context.Context, profile *profile.Profile, cfg *ai.Config, gateway llm.Gateway) (*Server, error) {
	prompts := agent.DefaultPrompts()
	if cfg.PromptsDir != "" {
		loaded, err := agent.LoadPrompts(configloader.NewLoader(cfg.PromptsDir))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load prompts from %s", cfg.PromptsDir)
		}
		prompts = loaded
	}

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	sessions := session.NewManager(session.ManagerConfig{
		Capacity:    cfg.Session.Capacity,
		IdleTimeout: cfg.Session.IdleTimeout,
		OnEvict: func(_ string, reason cache.EvictReason) {
			exporter.SessionEvicted(reason.String())
		},
	})

	orch := orchestrator.NewOrchestrator(gateway, sessions,
		orchestrator.WithActivationDwell(cfg.Orchestrator.ActivationDwell),
		orchestrator.WithImageConcurrency(cfg.Orchestrator.ImageConcurrency),
		orchestrator.WithPrompts(prompts),
		orchestrator.WithRecorder(exporter),
	)

	s := &Server{
		Profile:      profile,
		Sessions:     sessions,
		Orchestrator: orch,
		Metrics:      exporter,
	}

	echoServer := echo.New()
	echoServer.Debug = true
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(profile, sessions, orch)
	apiV1Service.OnSessionCreated = exporter.SessionCreated
	apiV1Service.RegisterRoutes(echoServer)

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()

	slog.Info("server started", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.Sessions.Shutdown()

	slog.Info("server stopped properly")
}
