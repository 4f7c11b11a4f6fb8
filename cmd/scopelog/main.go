package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/common/expfmt"

	scopelog "github.com/gxo-labs/scopelog/pkg/scopelog/v1"
	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	slevents "github.com/gxo-labs/scopelog/pkg/scopelog/v1/events"
	sllog "github.com/gxo-labs/scopelog/pkg/scopelog/v1/log"

	"github.com/gxo-labs/scopelog/internal/config"
	"github.com/gxo-labs/scopelog/internal/events"
	"github.com/gxo-labs/scopelog/internal/logger"
	"github.com/gxo-labs/scopelog/internal/metrics"
	"github.com/gxo-labs/scopelog/internal/ratelimit"
	"github.com/gxo-labs/scopelog/internal/tracing"
)

const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitUsageError  = 2
	ExitSigIntBase  = 128
	ExitSigInt      = ExitSigIntBase + int(syscall.SIGINT)
	DefaultRequests = 50
	DefaultWorkers  = 4
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		os.Exit(runValidateCommand(os.Args[2:], os.Stderr))
	}
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		printVersion(os.Stdout)
		os.Exit(ExitSuccess)
	}
	os.Exit(runDemoCommand(os.Args[1:], os.Stdout, os.Stderr))
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "scopelog version %s\n", version)
	fmt.Fprintf(w, "commit: %s\n", commit)
	fmt.Fprintf(w, "built: %s\n", buildDate)
	fmt.Fprintf(w, "go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runValidateCommand(args []string, stderr io.Writer) int {
	validateFlags := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateFlags.SetOutput(stderr)
	configPath := validateFlags.String("config", "", "Path to the scopelog YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", "info", "Log level for validation output")

	validateFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s validate -config <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Validates a scopelog configuration document.")
		fmt.Fprintln(stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}
	if err := validateFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *configPath == "" {
		fmt.Fprintln(stderr, "Error: -config flag is required for validation")
		validateFlags.Usage()
		return ExitUsageError
	}

	log := logger.NewLogger(*logLevel, config.FormatText, stderr)
	log.Infof("Validating configuration: %s", *configPath)
	if _, err := config.LoadFromFile(*configPath); err != nil {
		reportConfigError(log, err)
		return ExitFailure
	}
	log.Infof("Configuration validation successful: %s", *configPath)
	return ExitSuccess
}

func reportConfigError(log sllog.Logger, err error) {
	var validationErr *slerrors.ValidationError
	var configErr *slerrors.ConfigError
	switch {
	case errors.As(err, &validationErr):
		log.Errorf("Configuration validation failed:\n%s", validationErr.Error())
	case errors.As(err, &configErr):
		log.Errorf("Configuration error:\n%s", configErr.Error())
	default:
		log.Errorf("Failed to load configuration: %v", err)
	}
}

func runDemoCommand(args []string, stdout, stderr io.Writer) int {
	demoFlags := flag.NewFlagSet("scopelog", flag.ContinueOnError)
	demoFlags.SetOutput(stderr)
	configPath := demoFlags.String("config", "", "Path to a scopelog YAML file")
	logLevel := demoFlags.String("log-level", "", "Backend log level, overriding the config (finest..severe, off)")
	logFormat := demoFlags.String("log-format", "", "Backend log format, overriding the config (text, json)")
	requests := demoFlags.Int("requests", DefaultRequests, "Number of simulated requests")
	workers := demoFlags.Int("workers", DefaultWorkers, "Number of concurrent request workers")
	printMetrics := demoFlags.Bool("metrics", false, "Print Prometheus metrics when done")
	versionFlag := demoFlags.Bool("version", false, "Print version information and exit")

	demoFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags...]\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Simulates request handling with scoped, rate-limited logging.")
		fmt.Fprintln(stderr, "\nFlags:")
		demoFlags.PrintDefaults()
	}
	if err := demoFlags.Parse(args); err != nil {
		return ExitUsageError
	}
	if *versionFlag {
		printVersion(stdout)
		return ExitSuccess
	}
	if *requests < 0 {
		fmt.Fprintln(stderr, "Error: -requests cannot be negative")
		return ExitUsageError
	}
	if *workers <= 0 {
		*workers = runtime.NumCPU()
		fmt.Fprintf(stderr, "Warning: -workers must be positive, defaulting to %d\n", *workers)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			reportConfigError(logger.NewLogger("info", config.FormatText, stderr), err)
			return ExitFailure
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Backend.Level = *logLevel
	}
	if *logFormat != "" {
		if *logFormat != config.FormatText && *logFormat != config.FormatJSON {
			fmt.Fprintln(stderr, "Error: -log-format must be 'text' or 'json'")
			return ExitUsageError
		}
		cfg.Backend.Format = *logFormat
	}

	backend := logger.NewLogger(cfg.Backend.Level, cfg.Backend.Format, stdout)
	log := backend.With("scopelog_version", version)
	log.Debugf("Log level: %s, format: %s", cfg.Backend.Level, cfg.Backend.Format)
	log.Debugf("Requests: %d, workers: %d", *requests, *workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := ratelimit.NewRegistry()
	metricsProvider := metrics.NewPrometheusRegistryProvider()
	collector := metrics.NewCollector(metricsProvider, registry.Len, log)
	eventBus := events.NewChannelEventBus(cfg.Backend.EventBuffer, log)
	eventBus.OnDrop(func(slevents.Event) { collector.EventDropped() })

	listenerDone := make(chan struct{})
	listener := events.NewMetricsEventListener(eventBus, collector, log)
	go func() {
		defer close(listenerDone)
		listener.Start(context.Background())
	}()

	tracerProvider := tracing.NewProviderFromEnv(ctx, log)
	opts := []scopelog.Option{
		scopelog.WithConfig(cfg),
		scopelog.WithRegistry(registry),
		scopelog.WithEventBus(eventBus),
	}
	if !tracerProvider.IsEffectivelyNoOp() && !cfg.Tracing.SpanEvents {
		opts = append(opts, scopelog.WithSpanEvents(cfg.Tracing.Redact...))
	}
	scoped, err := scopelog.New(backend, opts...)
	if err != nil {
		log.Errorf("Failed to create logger: %v", err)
		return ExitFailure
	}

	log.Infof("scopelog demo v%s starting: %d requests on %d workers", version, *requests, *workers)
	start := time.Now()
	demo := newDemo(scoped, tracerProvider.GetTracer("scopelog/demo"))
	handled := demo.run(ctx, *requests, *workers)

	eventBus.Close()
	<-listenerDone

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Error shutting down tracer provider: %v", err)
	}

	log.Infof("Handled %d of %d requests in %v across %d log sites.",
		handled, *requests, time.Since(start).Truncate(time.Millisecond), registry.Len())

	if *printMetrics {
		if err := writeMetrics(stdout, metricsProvider); err != nil {
			log.Errorf("Failed to write metrics: %v", err)
			return ExitFailure
		}
	}
	if ctx.Err() != nil {
		log.Warnf("Demo interrupted by signal.")
		return ExitSigInt
	}
	return ExitSuccess
}

// writeMetrics prints every gathered metric family in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, provider *metrics.PrometheusRegistryProvider) error {
	families, err := provider.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
