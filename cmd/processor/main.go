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
	"syscall"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/analytics"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/exporter"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/infrastructure"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/services"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/validation"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// errUsage marks bad invocations; main exits 2 for them
var errUsage = errors.New("usage error")

// options are the parsed command-line flags
type options struct {
	client   string
	internal string
	stock    string
	sheet    string
	year     int
	horizon  int
	groupBy  string
	out      string
	xlsx     bool
	version  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("processing failed", slog.String("error", err.Error()))
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.client, "client", "", "client forecast workbook (.xlsx, .xlsm or .csv), required")
	fs.StringVar(&opts.internal, "internal", "", "internal forecast workbook to reconcile against")
	fs.StringVar(&opts.stock, "stock", "", "stock positions workbook")
	fs.StringVar(&opts.sheet, "sheet", "", "sheet name to read (defaults to the first sheet with a header)")
	fs.IntVar(&opts.year, "year", 0, "default year for week columns without one (0 uses config)")
	fs.IntVar(&opts.horizon, "horizon", 0, "forecast horizon in weeks (0 uses config)")
	fs.StringVar(&opts.groupBy, "group-by", "", "volatility grouping: part or part-customer")
	fs.StringVar(&opts.out, "out", "", "output directory (defaults to <reports>/<run id>)")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "also write a multi-sheet XLSX report")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if opts.version {
		return &opts, nil
	}
	if opts.client == "" {
		return nil, fmt.Errorf("%w: -client is required", errUsage)
	}
	if opts.horizon < 0 {
		return nil, fmt.Errorf("%w: -horizon must not be negative", errUsage)
	}
	switch opts.groupBy {
	case "", config.GroupByPart, config.GroupByPartCustomer:
	default:
		return nil, fmt.Errorf("%w: -group-by must be %s or %s", errUsage, config.GroupByPart, config.GroupByPartCustomer)
	}
	return &opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create required directories: %w", err)
	}

	files := validation.NewFileValidator(cfg.Analysis.MaxUploadBytes, logger)
	for _, path := range []string{opts.client, opts.internal, opts.stock} {
		if path == "" {
			continue
		}
		if err := files.ValidateWorkbookFile(path); err != nil {
			return err
		}
	}

	svc, err := services.NewAnalysisService(cfg.Analysis, nil, nil, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Starting demand processing",
		slog.String("client", opts.client),
		slog.String("internal", opts.internal),
		slog.String("stock", opts.stock),
		slog.Int("year", opts.year),
		slog.Int("horizon", opts.horizon))

	params := services.PipelineParams{
		Year:    opts.year,
		Horizon: opts.horizon,
		GroupBy: analytics.GroupBy(opts.groupBy),
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	open := func(path string) (*services.Source, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		closers = append(closers, f)
		return &services.Source{Name: filepath.Base(path), Reader: f, Sheet: opts.sheet}, nil
	}

	client, err := open(opts.client)
	if err != nil {
		return err
	}
	params.Client = *client
	if params.Internal, err = open(opts.internal); err != nil {
		return err
	}
	if params.Stock, err = open(opts.stock); err != nil {
		return err
	}

	result, err := svc.RunPipeline(ctx, params)
	if err != nil {
		return err
	}

	outDir := opts.out
	if outDir == "" {
		outDir = filepath.Join(paths.ReportsDir, result.ID)
	} else if outDir, err = filepath.Abs(outDir); err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := files.ValidateOutputDirectory(outDir); err != nil {
		return err
	}

	reports := exporter.NewReportWriter(paths, logger)
	written, err := reports.WriteRun(ctx, result, outDir)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	if opts.xlsx {
		path, err := reports.WriteWorkbookFile(ctx, result, filepath.Join(outDir, config.WorkbookReportFile))
		if err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		written = append(written, path)
	}

	printSummary(stdout, result, written)
	return nil
}

// printSummary writes the human-readable result; progress parsers read the "Wrote" lines
func printSummary(w io.Writer, run *domain.Run, written []string) {
	fmt.Fprintf(w, "Run %s completed in %s\n", run.ID, run.Duration)
	fmt.Fprintf(w, "Normalized %d rows\n", len(run.Normalized))
	if run.Totals != nil {
		fmt.Fprintf(w, "Reconciled %d keys: client %.2f, internal %.2f, delta %.2f (%.2f%%)\n",
			run.Totals.Keys, run.Totals.ClientQty, run.Totals.InternalQty, run.Totals.Delta, run.Totals.DeltaPct)
	}
	if a := run.Analysis; a != nil {
		critical := 0
		for _, r := range a.Risks {
			if r.RiskLevel == domain.RiskCritical {
				critical++
			}
		}
		fmt.Fprintf(w, "Analyzed %d groups: %d critical risks, %d forecasts, %d anomalies\n",
			len(a.Volatility), critical, len(a.Forecasts), len(a.Anomalies))
	}
	for _, path := range written {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}
