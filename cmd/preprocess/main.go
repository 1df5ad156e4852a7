package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cfdprep/internal/config"
	"cfdprep/internal/exporter"
	"cfdprep/internal/infrastructure"
	"cfdprep/internal/operations"
	"cfdprep/internal/validation"
	"cfdprep/pkg/contracts"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// cliOptions holds the command line flags. Empty or zero values leave the
// configured value in place.
type cliOptions struct {
	configFile  string
	symbolsFile string
	rawDir      string
	outDir      string
	only        string
	summaryFile string
	metricsFile string
	parallel    int
	failFast    bool
	showVersion bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("preprocess", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configFile, "config", "", "YAML application config (defaults to config.yaml or configs/config.yaml if present)")
	fs.StringVar(&opts.symbolsFile, "symbols", "", "JSON symbol list (default "+config.DefaultSymbolsFile+")")
	fs.StringVar(&opts.rawDir, "raw", "", "directory holding raw minute files (default "+config.DefaultRawDataDir+")")
	fs.StringVar(&opts.outDir, "out", "", "directory for processed files (default "+config.DefaultProcessedDataDir+")")
	fs.StringVar(&opts.only, "only", "", "comma separated symbols to process; all when empty")
	fs.StringVar(&opts.summaryFile, "summary", "", "write a batch summary (.csv or .json); relative paths land in the output directory")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus text-format metrics after the batch")
	fs.IntVar(&opts.parallel, "parallel", 0, "instruments processed at once (default from config, 1)")
	fs.BoolVar(&opts.failFast, "fail-fast", false, "stop starting new instruments after the first failure")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// apply overlays the flags onto cfg
func (o *cliOptions) apply(cfg *config.Config) {
	if o.symbolsFile != "" {
		cfg.Paths.SymbolsFile = o.symbolsFile
	}
	if o.rawDir != "" {
		cfg.Paths.RawDataDir = o.rawDir
	}
	if o.outDir != "" {
		cfg.Paths.ProcessedDataDir = o.outDir
	}
	if o.parallel != 0 {
		cfg.Processing.Parallelism = o.parallel
	}
	if o.failFast {
		cfg.Processing.FailFast = true
	}
	if o.metricsFile != "" {
		cfg.Telemetry.MetricsFile = o.metricsFile
	}
}

func (o *cliOptions) onlySymbols() []string {
	if strings.TrimSpace(o.only) == "" {
		return nil
	}
	return strings.Split(o.only, ",")
}

// run executes one batch and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitUsage
	}

	if opts.showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitFailure
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "preprocess: invalid options: %v\n", err)
		return exitUsage
	}

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitFailure
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitFailure
	}

	cfg.Logging.FilePath = resolveAgainst(paths.BaseDir, cfg.Logging.FilePath)
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitFailure
	}
	defer infrastructure.CloseLogFile()
	slog.SetDefault(logger)

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry, contracts.Version)
	otelCfg.TraceWriter = stderr
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePreprocessMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return exitFailure
	}

	symbols, err := config.LoadSymbols(paths.SymbolsFile)
	if err != nil {
		logger.Error("Failed to load symbols", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitFailure
	}
	if only := opts.onlySymbols(); only != nil {
		symbols = config.FilterSymbols(symbols, only)
		if len(symbols) == 0 {
			fmt.Fprintf(stderr, "preprocess: no configured symbol matches -only %q\n", opts.only)
			return exitUsage
		}
	}

	rawFiles, err := validation.NewFileValidator(logger).ValidateInputDirectory(paths.RawDataDir)
	if err != nil {
		fmt.Fprintf(stderr, "preprocess: %v\n", err)
		return exitFailure
	}

	ctx = infrastructure.WithRunID(ctx, infrastructure.GenerateRunID())
	logger.InfoContext(ctx, "Starting preprocessing",
		slog.String("version", contracts.Version),
		slog.String("symbols_file", paths.SymbolsFile),
		slog.String("raw_dir", paths.RawDataDir),
		slog.Int("raw_files", rawFiles),
		slog.String("processed_dir", paths.ProcessedDataDir),
		slog.Int("instruments", len(symbols)),
		slog.Int("parallelism", cfg.Processing.Parallelism))

	manager := operations.NewManager(operations.Dependencies{
		Paths:    paths,
		Logger:   logger,
		Tracer:   providers.Tracer,
		Metrics:  metrics,
		Progress: stdout,
	}, operations.Options{
		Parallelism: cfg.Processing.Parallelism,
		FailFast:    cfg.Processing.FailFast,
	})

	batch, err := manager.Run(ctx, symbols)
	if err != nil {
		logger.ErrorContext(ctx, "Batch could not start", slog.String("error", err.Error()))
		return exitFailure
	}

	if opts.summaryFile != "" {
		if err := exporter.NewSummaryWriter(paths).Write(opts.summaryFile, batch.Summary()); err != nil {
			logger.ErrorContext(ctx, "Failed to write summary", slog.String("error", err.Error()))
			return exitFailure
		}
	}

	if cfg.Telemetry.MetricsFile != "" {
		metricsPath := resolveAgainst(paths.BaseDir, cfg.Telemetry.MetricsFile)
		if err := providers.WriteMetricsFile(metricsPath); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics file", slog.String("error", err.Error()))
		}
	}

	if batch.Failed() > 0 || batch.Skipped() > 0 {
		return exitFailure
	}
	return exitOK
}

func resolveAgainst(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
