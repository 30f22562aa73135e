package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/agent"
	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/executor"
	"github.com/mj1618/desktop-pilot/internal/grounding"
	"github.com/mj1618/desktop-pilot/internal/llm"
	"github.com/mj1618/desktop-pilot/internal/observability"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/mj1618/desktop-pilot/internal/verify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// transcriptLines bounds the in-memory transcript.
const transcriptLines = 2000

// runtimeOptions select the parts of the runtime a command needs.
type runtimeOptions struct {
	// model builds the vision model; commands that only capture or
	// execute literal plans skip it.
	model bool
	// console replaces stderr for log output.
	console zapcore.WriteSyncer
}

// runtime wires the configured platform, model and agent collaborators.
type runtime struct {
	cfg        *config.Config
	log        *zap.Logger
	transcript *observability.Transcript
	registry   *prometheus.Registry
	metrics    *observability.Metrics
	provider   *platform.Provider
	model      llm.Model
	grounder   *grounding.Adapter
	verifier   *verify.Oracle
	executor   agent.ExecutorFactory
}

func newRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*runtime, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	rt := &runtime{
		cfg:        cfg,
		transcript: observability.NewTranscript(transcriptLines),
		registry:   prometheus.NewRegistry(),
	}
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.metrics = observability.MustNewMetrics(rt.registry)
	rt.log = observability.NewLogger(cfg.Logger, opts.console, rt.transcript.Core(zapcore.InfoLevel))

	if cfg.Backend.Kind == config.BackendDesktop && platform.RequestPermissionsFunc != nil {
		platform.RequestPermissionsFunc()
	}
	provider, err := platform.NewProvider(cfg.Backend.Kind, platform.Options{
		BrowserURL: cfg.Backend.Browser.URL,
		Headless:   cfg.Backend.Browser.Headless,
		Width:      cfg.Backend.Browser.Width,
		Height:     cfg.Backend.Browser.Height,
	})
	if err != nil {
		return nil, err
	}
	rt.provider = provider

	if opts.model {
		m, err := llm.New(ctx, cfg.LLM, rt.log.Named("llm"), rt.metrics)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.model = m
	}

	rt.grounder = grounding.New(provider.Screenshotter, rt.model,
		grounding.WithLogger(rt.log.Named("grounding")),
		grounding.WithMetrics(rt.metrics),
		grounding.WithCache(grounding.NewCache(cfg.Grounding.CacheSize, cfg.Grounding.CacheTTL)),
		grounding.WithMaxImageWidth(cfg.Grounding.MaxImageWidth),
	)
	rt.verifier = verify.New(rt.model, rt.log.Named("verify"), rt.metrics)
	rt.executor = agent.NewExecutorFactory(provider.Inputter, rt.grounder, executorOptions(cfg, provider, rt.log.Named("executor"), rt.metrics)...)
	return rt, nil
}

// executorOptions translates the agent settings into executor options.
func executorOptions(cfg *config.Config, provider *platform.Provider, log *zap.Logger, metrics *observability.Metrics) []executor.Option {
	opts := []executor.Option{
		executor.WithTypeDelay(cfg.Agent.TypeDelay),
		executor.WithLogger(log),
		executor.WithMetrics(metrics),
	}
	if cfg.Agent.TypeMode == config.TypeModePaste {
		if provider.ClipboardManager == nil {
			log.Warn("paste typing needs a clipboard; typing key by key instead", zap.String("backend", cfg.Backend.Kind))
		} else {
			opts = append(opts, executor.WithPaste(provider.ClipboardManager, pasteModifier()))
		}
	}
	return opts
}

// pasteModifier is the modifier held with V to paste.
func pasteModifier() platform.Key {
	if goruntime.GOOS == "darwin" {
		return platform.KeyCmd
	}
	return platform.KeyCtrl
}

// runner builds a Runner over the runtime's collaborators.
func (rt *runtime) runner() *agent.Runner {
	return agent.NewRunner(agent.Deps{
		Model:    rt.model,
		Grounder: rt.grounder,
		Verifier: rt.verifier,
		Executor: rt.executor,
	}, agent.Options{
		MaxRetries: rt.cfg.Agent.MaxRetries,
		MaxCycles:  rt.cfg.Agent.MaxCycles,
		RunTimeout: rt.cfg.Agent.RunTimeout,
		Logger:     rt.log.Named("agent"),
		Metrics:    rt.metrics,
	})
}

// checkpointer verifies screenshots against instruction.
func (rt *runtime) checkpointer(instruction string) executor.Checkpointer {
	return executor.CheckpointFunc(func(ctx context.Context, shot []byte) (string, bool) {
		return rt.verifier.Verify(ctx, instruction, rt.grounder.Ground(ctx, shot))
	})
}

// Close releases the platform and flushes the logger.
func (rt *runtime) Close() error {
	var errs []error
	if rt.provider != nil {
		errs = append(errs, rt.provider.Close())
	}
	if rt.log != nil {
		errs = append(errs, observability.Sync(rt.log))
	}
	return errors.Join(errs...)
}

// readInput returns args joined by spaces, or all of r when args is
// empty. Surrounding whitespace is trimmed.
func readInput(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// writeFile writes data to path, creating or truncating it.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
