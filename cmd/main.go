// Package main provides the CLI entry point for the test plan generator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/loadtools/plangen/internal/filter"
	"github.com/loadtools/plangen/internal/metrics"
	"github.com/loadtools/plangen/internal/model"
	"github.com/loadtools/plangen/internal/runner"
	"github.com/loadtools/plangen/internal/transform"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Default configuration files, used when no user-defined files are given.
const (
	defaultGeneratorConfig = "configuration/generator.default.yaml"
	defaultPlanDefaults    = "configuration/testplan.default.yaml"
)

// CLI flags
var (
	modelPath      string
	outputPath     string
	configPath     string
	defaultsPath   string
	transformerKey string
	filterFlags    string
	openapiPath    string
	seed           uint64
	thinkMean      float64
	thinkDeviation float64
	validate       bool
	list           bool
	dryRun         bool
	runPlan        bool
	verbose        bool
	showVersion    bool
	prometheusAddr string
)

func init() {
	// Input and output
	flag.StringVar(&modelPath, "model", "", "Path to the workload model YAML file")
	flag.StringVar(&modelPath, "m", "", "Path to the workload model YAML file (shorthand)")
	flag.StringVar(&outputPath, "out", "", "Path of the generated test plan file")
	flag.StringVar(&outputPath, "o", "", "Path of the generated test plan file (shorthand)")

	// Configuration
	flag.StringVar(&configPath, "config", defaultGeneratorConfig, "Path to the generator configuration file")
	flag.StringVar(&configPath, "c", defaultGeneratorConfig, "Path to the generator configuration file (shorthand)")
	flag.StringVar(&defaultsPath, "defaults", defaultPlanDefaults, "Path to the test plan defaults file")

	// Pipeline selection
	flag.StringVar(&transformerKey, "transformer", "simple", "Transformation strategy")
	flag.StringVar(&filterFlags, "filters", "headers", "Comma-separated filter chain (headers,thinktime,requestdefaults,testdata)")
	flag.StringVar(&openapiPath, "openapi", "", "OpenAPI document for the requestdefaults filter")
	flag.Uint64Var(&seed, "seed", 1, "Fabrication seed for the testdata filter")
	flag.Float64Var(&thinkMean, "thinktime-mean", 300, "Gaussian think time mean in ms (thinktime filter)")
	flag.Float64Var(&thinkDeviation, "thinktime-deviation", 100, "Gaussian think time deviation in ms (thinktime filter)")

	// Utility flags
	flag.BoolVar(&validate, "validate", false, "Validate the workload model and exit")
	flag.BoolVar(&list, "list", false, "List user types and states of the workload model")
	flag.BoolVar(&list, "l", false, "List user types and states (shorthand)")
	flag.BoolVar(&dryRun, "dry-run", false, "Show the generation pipeline without writing output")
	flag.BoolVar(&runPlan, "run", false, "Hand the generated plan to the execution engine gateway")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose output")
	flag.BoolVar(&verbose, "v", false, "Enable verbose output (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&prometheusAddr, "prometheus", "", "Prometheus metrics endpoint (e.g., :9090)")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Test Plan Generator - Behavior Model Transformation Tool

USAGE:
    plangen -model <path> -out <path> [options]

DESCRIPTION:
    Transforms a probabilistic user-behavior model (Markov-chain session
    graphs with transition probabilities, think times and a workload
    intensity) into an executable, hierarchical test plan for a
    load-testing engine.

INPUT AND OUTPUT:
    -model, -m <path>     Workload model YAML file
    -out, -o <path>       Generated test plan file

CONFIGURATION:
    -config, -c <path>    Generator configuration file (default: %s)
    -defaults <path>      Test plan defaults file (default: %s)

PIPELINE OPTIONS:
    -transformer <name>   Transformation strategy (default: simple)
    -filters <list>       Filter chain, applied in order
                          (headers,thinktime,requestdefaults,testdata)
    -openapi <path>       OpenAPI document for the requestdefaults filter
    -seed <n>             Fabrication seed for the testdata filter
    -thinktime-mean <ms>  Gaussian think time mean (thinktime filter)
    -thinktime-deviation <ms>
                          Gaussian think time deviation (thinktime filter)

UTILITY OPTIONS:
    -validate             Validate the workload model and exit
    -list, -l             List user types and states
    -dry-run              Show the generation pipeline without writing
    -run                  Hand the generated plan to the engine gateway
    -verbose, -v          Enable verbose output
    -version              Show version information
    -prometheus <addr>    Prometheus metrics endpoint (e.g., :9090)

EXAMPLES:
    # Generate a test plan with default header injection
    plangen -model models/shop.yaml -out plans/shop.plan.yaml

    # Forced-argument generation with custom defaults and gaussian think times
    plangen -m models/shop.yaml -o plans/shop.plan.yaml \
        -defaults configs/strict.yaml -filters headers,thinktime
`, defaultGeneratorConfig, defaultPlanDefaults)
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if showVersion {
		fmt.Printf("plangen %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return 0
	}

	log := newLogger(verbose)
	defer log.Sync()

	if modelPath == "" {
		fmt.Fprintln(os.Stderr, "plangen: a workload model is required (-model)")
		flag.Usage()
		return 2
	}

	m, err := model.LoadFromFile(modelPath)
	if err != nil {
		log.Error("could not load workload model", zap.Error(err))
		return 1
	}

	if validate {
		fmt.Printf("workload model %q is valid (%d user types)\n",
			m.Name, len(m.BehaviorModels))
		return 0
	}
	if list {
		listModel(m)
		return 0
	}

	if outputPath == "" {
		fmt.Fprintln(os.Stderr, "plangen: an output path is required (-out)")
		flag.Usage()
		return 2
	}

	transformer, err := resolveTransformer(transformerKey)
	if err != nil {
		log.Error("unknown transformer", zap.String("name", transformerKey))
		return 2
	}

	collector := metrics.NewCollector()
	if prometheusAddr != "" {
		srv, err := metrics.Serve(prometheusAddr, collector)
		if err != nil {
			log.Error("could not start metrics endpoint", zap.Error(err))
			return 1
		}
		defer srv.Shutdown(context.Background())
		log.Info("metrics endpoint started", zap.String("addr", srv.Addr()))
	}

	gen := runner.New(log, collector)
	if err := gen.Init(configPath, defaultsPath); err != nil {
		return 1
	}

	filters, err := filter.Resolve(filterFlags, gen.Factory(), filter.Options{
		ThinkTimeMean:      thinkMean,
		ThinkTimeDeviation: thinkDeviation,
		OpenAPIPath:        openapiPath,
		Seed:               seed,
	})
	if err != nil {
		log.Error("could not resolve filter chain", zap.Error(err))
		return 2
	}

	if dryRun {
		fmt.Printf("model:       %s (%d user types)\n", m.Name, len(m.BehaviorModels))
		fmt.Printf("transformer: %s\n", transformer.Name())
		fmt.Printf("filters:     %v\n", filters.Names())
		fmt.Printf("output:      %s\n", outputPath)
		return 0
	}

	if _, err := gen.Generate(m, transformer, filters, outputPath); err != nil {
		return 1
	}

	if runPlan {
		gateway := runner.NewLogGateway(log)
		if err := gateway.Start(outputPath); err != nil {
			log.Error("engine gateway failed", zap.Error(err))
			return 1
		}
	}

	return 0
}

// resolveTransformer maps a strategy name to its implementation.
func resolveTransformer(name string) (transform.Transformer, error) {
	switch name {
	case "simple":
		return transform.NewSimpleTransformer(), nil
	default:
		return nil, fmt.Errorf("unknown transformer %q", name)
	}
}

// listModel prints the user types and states of the model.
func listModel(m *model.WorkloadModel) {
	fmt.Printf("workload model: %s (intensity: %s, users: %d)\n",
		m.Name, m.WorkloadIntensity.Type, m.WorkloadIntensity.Users)
	for _, bm := range m.BehaviorModels {
		fmt.Printf("  user type %s (initial: %s)\n", bm.Name, bm.InitialState)
		for _, st := range bm.States {
			fmt.Printf("    %-24s %s %s (%d transitions)\n",
				st.Name, st.Request.Method, st.Request.Path,
				len(st.Transitions))
		}
	}
}

// newLogger builds the CLI logger. Verbose mode enables debug output with a
// development encoder.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
