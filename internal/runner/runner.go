// Package runner owns the generation pipeline: configuration resolution,
// element factory construction, transformation, filtering and output
// writing. A Generator must be initialized before use; initialization is
// idempotent and may be repeated to reconfigure.
package runner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/loadtools/plangen/internal/config"
	"github.com/loadtools/plangen/internal/factory"
	"github.com/loadtools/plangen/internal/filter"
	"github.com/loadtools/plangen/internal/metrics"
	"github.com/loadtools/plangen/internal/model"
	"github.com/loadtools/plangen/internal/plan"
	"github.com/loadtools/plangen/internal/transform"
	"github.com/loadtools/plangen/internal/writer"
)

// KeyUseForcedArguments is the generator configuration key selecting
// forced-argument mode for the element factory.
const KeyUseForcedArguments = "useForcedArguments"

// Errors returned by the runner package.
var (
	// ErrNotInitialized is returned when Generate is called before a
	// successful Init.
	ErrNotInitialized = errors.New("runner: generator is not initialized")
)

// Generator sequences resolver, factory, transformer, filter chain and
// writer. After a successful Init the configuration and factory are
// immutable, so concurrent Generate calls are safe: each call builds its
// own tree and shares no mutable state.
type Generator struct {
	log       *zap.Logger
	collector *metrics.Collector
	writer    *writer.Writer

	cfg     *config.Config
	factory *factory.Factory
}

// New creates an uninitialized generator. A nil logger is replaced with a
// no-op logger; a nil collector disables instrumentation.
func New(log *zap.Logger, collector *metrics.Collector) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		log:       log,
		collector: collector,
		writer:    writer.New(log),
	}
}

// Init resolves the generator configuration and the test plan defaults and
// constructs the element factory. On any failure the generator stays (or
// becomes) not-ready and no partial factory is exposed.
func (g *Generator) Init(configPath, defaultsPath string) error {
	g.cfg = nil
	g.factory = nil

	cfg, err := config.Load(configPath, false)
	if err != nil {
		g.log.Error("could not load generator configuration",
			zap.String("path", configPath),
			zap.Error(err))
		return err
	}

	forced, err := cfg.GetBool(KeyUseForcedArguments)
	if err != nil {
		g.log.Error("could not read forced-arguments flag", zap.Error(err))
		return err
	}

	defaults, err := config.Load(defaultsPath, forced)
	if err != nil {
		g.log.Error("could not load test plan defaults",
			zap.String("path", defaultsPath),
			zap.Error(err))
		return err
	}

	g.cfg = cfg
	g.factory = factory.New(defaults, forced)

	g.log.Info("test plan generator initialized",
		zap.String("config", configPath),
		zap.String("defaults", defaultsPath),
		zap.Bool("forcedArguments", forced))
	return nil
}

// IsInitialized reports whether Init has completed successfully.
func (g *Generator) IsInitialized() bool {
	return g.factory != nil
}

// Factory returns the element factory, or nil before initialization.
func (g *Generator) Factory() *factory.Factory {
	return g.factory
}

// Generate transforms the workload model into a test plan tree, applies the
// filter chain in order, and writes the result to outputPath. On any stage
// failure the remaining stages are skipped and no tree is returned.
func (g *Generator) Generate(m *model.WorkloadModel, t transform.Transformer, filters filter.Chain, outputPath string) (*plan.Tree, error) {
	if !g.IsInitialized() {
		g.log.Error("generation requested before initialization")
		return nil, ErrNotInitialized
	}

	start := time.Now()
	g.log.Info("generating test plan",
		zap.String("model", m.Name),
		zap.String("transformer", t.Name()),
		zap.Strings("filters", filters.Names()),
		zap.String("output", outputPath))

	tree, err := transform.Run(t, m, g.factory, filters)
	if err != nil {
		g.observeFailure(start)
		g.log.Error("test plan generation failed",
			zap.String("model", m.Name),
			zap.Error(err))
		return nil, err
	}
	tree.AssignIDs()

	if err := g.writer.Write(tree, outputPath); err != nil {
		g.observeFailure(start)
		g.log.Error("test plan output failed",
			zap.String("output", outputPath),
			zap.Error(err))
		return nil, err
	}

	if g.collector != nil {
		g.collector.ObserveTree(tree)
		for _, name := range filters.Names() {
			g.collector.FilterApplied(name)
		}
		g.collector.GenerationSucceeded(time.Since(start))
	}

	g.log.Info("test plan generated",
		zap.String("output", outputPath),
		zap.Int("elements", tree.Size()),
		zap.Duration("duration", time.Since(start)))
	return tree, nil
}

// GenerateFromFile loads the workload model from its interchange file and
// generates the test plan from it.
func (g *Generator) GenerateFromFile(inputPath, outputPath string, t transform.Transformer, filters filter.Chain) (*plan.Tree, error) {
	m, err := model.LoadFromFile(inputPath)
	if err != nil {
		g.log.Error("could not read workload model",
			zap.String("path", inputPath),
			zap.Error(err))
		return nil, fmt.Errorf("loading workload model: %w", err)
	}
	return g.Generate(m, t, filters, outputPath)
}

func (g *Generator) observeFailure(start time.Time) {
	if g.collector != nil {
		g.collector.GenerationFailed(time.Since(start))
	}
}
