package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasonw-lab/collecter/internal/catalog"
	"github.com/jasonw-lab/collecter/internal/config"
	"github.com/jasonw-lab/collecter/internal/database"
	"github.com/jasonw-lab/collecter/internal/fetch"
	"github.com/jasonw-lab/collecter/internal/imagefile"
	"github.com/jasonw-lab/collecter/internal/log"
	"github.com/jasonw-lab/collecter/internal/model"
	"github.com/jasonw-lab/collecter/internal/pipeline"
	"github.com/jasonw-lab/collecter/internal/report"
	"github.com/jasonw-lab/collecter/internal/search"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Download an image for each row of a product catalog",
		Long: `Collect reads a CSV catalog with title and imageFile columns and
downloads one image per row into the output directory.

For each row it resolves ranked candidate URLs from the image search
engine, tries them in order until one downloads and validates, and
normalizes the file's encoding when it does not match the filename
extension. Per-row failures are reported and never stop the run.

Examples:
  # Process the default catalog into the default directory
  collecter collect

  # Custom catalog, output directory and pacing
  collecter collect --csv products.csv --images-dir img --delay 2s

  # Re-download everything, even existing files
  collecter collect --overwrite

  # Retry a single failed row
  collecter collect --only widget-blue.jpg --overwrite

  # Write a Markdown run report to a file
  collecter collect --markdown -o report.md

Configuration file (.collecter) example:
  defaults:
    referer: https://duckduckgo.com/
  hosts:
    images.example-cdn.com:
      referer: https://example.com/
      headers:
        Accept: image/avif,image/webp,*/*`,
		Args: cobra.NoArgs,
		RunE: runCollectCmd,
	}

	// Input and output
	cmd.Flags().String("csv", config.DefaultCatalogPath, "CSV catalog file path")
	cmd.Flags().String("images-dir", config.DefaultOutputDir, "Destination directory for images")

	// Pipeline behavior
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Pause between rows (politeness toward the search backend)")
	cmd.Flags().Bool("overwrite", false, "Overwrite existing image files")
	cmd.Flags().String("only", "", "Process only the row with this imageFile value")
	cmd.Flags().Int("max-candidates", config.DefaultMaxCandidates,
		"Maximum candidate URLs attempted per row")
	cmd.Flags().String("locale", config.DefaultLocale,
		"Search locale in region-lang format (e.g. us-en)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each network request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .collecter in current or home directory)")

	// History
	cmd.Flags().Bool("no-history", false,
		"Do not record download outcomes in the history database")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the run report to specified file path (creates directories if needed)")

	return cmd
}

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCollect(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.CatalogPath, err = cmd.Flags().GetString("csv")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("images-dir")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Overwrite, err = cmd.Flags().GetBool("overwrite")
	if err != nil {
		return nil, err
	}

	cfg.Only, err = cmd.Flags().GetString("only")
	if err != nil {
		return nil, err
	}

	cfg.MaxCandidates, err = cmd.Flags().GetInt("max-candidates")
	if err != nil {
		return nil, err
	}

	cfg.Locale, err = cmd.Flags().GetString("locale")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host configurations from the config file.
	// An explicitly specified file must exist; a missing default file
	// silently yields an empty config.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Hosts, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Hosts = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	cfg.DBDir = config.XDGDataDir()

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runCollect executes the collection run.
// Only setup failures return an error; per-row failures are reported in
// the run report and diagnostics, and the command still exits zero.
func runCollect(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting collection",
		"catalog", cfg.CatalogPath,
		"outputDir", cfg.OutputDir,
		"overwrite", cfg.Overwrite,
		"delay", cfg.Delay,
	)

	// The output directory is the one precondition for any work at all.
	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Open the history database if recording is enabled
	var db *database.HistoryDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	// One HTTP client shares its connection pool between the search
	// endpoints and the image hosts.
	httpClient := &http.Client{Timeout: cfg.Timeout}

	resolver := search.NewClient(httpClient,
		search.WithBaseURL(cfg.SearchBaseURL),
		search.WithLocale(cfg.Locale),
		search.WithUserAgent(cfg.UserAgent),
		search.WithLogger(logger),
	)
	fetcher := fetch.New(httpClient,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(logger),
	)
	validator := imagefile.NewValidator(
		imagefile.WithJPEGQuality(config.DefaultJPEGQuality),
		imagefile.WithLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewResolveStep(resolver, pipeline.WithResolveLogger(logger)),
		pipeline.NewDownloadStep(fetcher, validator, cfg.OutputDir,
			pipeline.WithDownloadReferer(config.DefaultReferer),
			pipeline.WithDownloadHosts(cfg.Hosts),
			pipeline.WithDownloadMaxCandidates(cfg.MaxCandidates),
			pipeline.WithDownloadLogger(logger),
		),
		pipeline.NewMetadataStep(pipeline.WithMetadataLogger(logger)),
	)

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithRunnerDelay(cfg.Delay),
		pipeline.WithRunnerOverwrite(cfg.Overwrite),
		pipeline.WithRunnerOnly(cfg.Only),
		pipeline.WithRunnerDiagnostics(os.Stderr),
		pipeline.WithRunnerLogger(logger),
	}
	if db != nil {
		runnerOpts = append(runnerOpts, pipeline.WithRunnerRecorder(db))
	}
	runner := pipeline.NewRunner(p, cfg.OutputDir, runnerOpts...)

	reader, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	runReport := model.NewRunReport(cfg.CatalogPath, cfg.OutputDir)

	startTime := time.Now()
	err = runner.Run(ctx, reader, runReport)
	elapsed := time.Since(startTime)

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Graceful shutdown: completed rows keep their files, and a
		// later run with overwrite off resumes where this one stopped.
		fmt.Fprintf(os.Stderr, "Run cancelled after %s; completed rows are kept\n",
			elapsed.Round(time.Millisecond))
	case err != nil:
		return err
	}

	if err := outputReport(cfg, runReport); err != nil {
		logger.Error("report failed", "error", err)
	}

	return nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(runReport)
	return err
}
