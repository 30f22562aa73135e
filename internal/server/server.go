// Package server exposes the agent as MCP tools so other agents can hand
// it instructions and watch the runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Grounder captures and describes the screen.
type Grounder interface {
	Capture(ctx context.Context) ([]byte, error)
	CaptureRegion(ctx context.Context, region *platform.Bounds) ([]byte, error)
	Ground(ctx context.Context, png []byte) model.GroundingResult
}

// Deps are the collaborators shared by every tool.
type Deps struct {
	Runner   *agent.Runner
	Grounder Grounder
	// Executor and Verifier back execute_plan; a nil Executor disables it.
	Executor   agent.ExecutorFactory
	Verifier   agent.Verifier
	Transcript *observability.Transcript
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name        string
	Version     string
	Transport   string
	Port        int
	MetricsAddr string
	// RecentRuns bounds how many finished runs stay queryable.
	RecentRuns int
}

// Server wraps the MCP server with the runner and the platform.
type Server struct {
	deps Deps
	cfg  Config
	log  *zap.Logger
	mcp  *mcpserver.MCPServer

	// ctx outlives tool requests; runs started by run_instruction use it.
	ctx context.Context

	// providerMu is held while execute_plan drives the platform and while
	// a run is being started, so the two never overlap.
	providerMu sync.Mutex
	tasks      *taskRegistry
}

// New creates a server and registers its tools. Runs started through it
// end when ctx ends.
func New(ctx context.Context, deps Deps, cfg Config) (*Server, error) {
	if deps.Runner == nil || deps.Grounder == nil {
		return nil, errors.New("server needs a runner and a grounder")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "desktop-pilot"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	tasks, err := newTaskRegistry(cfg.RecentRuns)
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:  deps,
		cfg:   cfg,
		log:   deps.Logger.Named("mcp"),
		ctx:   ctx,
		tasks: tasks,
	}
	s.mcp = mcpserver.NewMCPServer(cfg.Name, cfg.Version, mcpserver.WithToolCapabilities(false))
	s.registerTools()
	return s, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve runs the configured transport, and the metrics endpoint when
// MetricsAddr is set, until one of them fails or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	switch s.cfg.Transport {
	case "stdio":
		g.Go(func() error {
			return mcpserver.ServeStdio(s.mcp)
		})
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		g.Go(func() error {
			s.log.Info("serving MCP over streamable HTTP", zap.String("addr", addr))
			if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Transport)
	}

	if s.cfg.MetricsAddr != "" {
		gatherer := s.deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			s.log.Info("serving metrics", zap.String("addr", s.cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
