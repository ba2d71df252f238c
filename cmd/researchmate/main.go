// ResearchMate command line entry point.
//
// Usage:
//
//	researchmate query "how do solar panels work"
//	researchmate query --config researchmate.yaml --json "best ssd to buy"
//	researchmate version
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/researchmate/researchmate"
	"github.com/researchmate/researchmate/config"
	"github.com/researchmate/researchmate/internal/metrics"
	"github.com/researchmate/researchmate/internal/telemetry"
	"github.com/researchmate/researchmate/types"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "query":
		runQuery(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	asJSON := fs.Bool("json", false, "Print the raw gathering outcome as JSON instead of the report")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall deadline for the research run")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "query: missing query text")
		os.Exit(1)
	}
	query := fs.Arg(0)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := researchmate.BuildLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting researchmate",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelProviders.Shutdown(shutdownCtx)
	}()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, logger)
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	opts := []researchmate.Option{
		researchmate.WithConfig(cfg),
		researchmate.WithLogger(logger),
	}
	if collector != nil {
		opts = append(opts, researchmate.WithCollector(collector))
	}

	client, err := researchmate.New(opts...)
	if err != nil {
		logger.Fatal("failed to build client", zap.Error(err))
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := &types.Session{ID: uuid.NewString(), CreatedAt: time.Now()}
	state, err := client.Research(ctx, query, session)
	if err != nil {
		logger.Fatal("research failed", zap.Error(err))
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state.Outcome); err != nil {
			logger.Fatal("failed to encode outcome", zap.Error(err))
		}
		return
	}

	fmt.Println(state.Report)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint failed", zap.Error(err))
	}
}

func printVersion() {
	fmt.Printf("ResearchMate %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`ResearchMate - research assistant pipeline

Usage:
  researchmate <command> [options]

Commands:
  query     Run a research query and print the report
  version   Show version information
  help      Show this help message

Options for 'query':
  --config <path>   Path to configuration file (YAML)
  --json            Print the raw gathering outcome as JSON
  --timeout <dur>   Overall deadline for the run (default 2m)

Examples:
  researchmate query "how do solar panels work"
  researchmate query --config /etc/researchmate/config.yaml "best ssd to buy"
  researchmate query --json "quantum error correction"
  researchmate version`)
}
