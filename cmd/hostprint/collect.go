package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostprint/hostprint/internal/config"
	"github.com/hostprint/hostprint/internal/database"
	"github.com/hostprint/hostprint/internal/engine"
	"github.com/hostprint/hostprint/internal/identity"
	"github.com/hostprint/hostprint/internal/log"
	"github.com/hostprint/hostprint/internal/model"
	"github.com/hostprint/hostprint/internal/report"
	"github.com/hostprint/hostprint/internal/sysprobe"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect signals and synthesize the host fingerprint",
		Long: `Collect runs every probe engine against the local host, folds the stable
signals into a deterministic fingerprint, and prints a report.

Engines run concurrently; probes that fail, time out, or target absent
capabilities degrade to fixed payloads, so a partially readable host still
yields a complete fingerprint.

Examples:
  # Collect and print a human-readable report
  hostprint collect

  # Output the full record as JSON
  hostprint collect --json

  # Write a Markdown report to a file
  hostprint collect --markdown -o report.md

  # Derive an application-scoped protected ID
  hostprint collect --app-id myapp

  # Use a custom configuration file
  hostprint collect -c myconfig.yaml

Configuration file (.hostprint) example:
  probe_timeout: 750ms
  app_id: myapp
  engines:
    hardware:
      disabled:
        - battery`,
		Args: cobra.NoArgs,
		RunE: runCollectCmd,
	}

	// Probe behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultProbeTimeout,
		"Execution budget for each probe")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .hostprint in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Identity flags
	cmd.Flags().StringP("app-id", "a", "",
		"Application scope for deriving a non-reversible protected ID")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not save this run to the history database")

	return cmd
}

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, _ []string) error {
	// Build config from flags and the optional config file
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with identifier redaction
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

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
// Precedence is defaults, then the config file, then explicit flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the config file before reading flags so explicit flags win.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.Apply(cf); err != nil {
			return nil, fmt.Errorf("failed to apply config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("timeout") {
		cfg.ProbeTimeout, err = cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("app-id") {
		cfg.AppID, err = cmd.Flags().GetString("app-id")
		if err != nil {
			return nil, err
		}
	}

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

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}

	// Save to the XDG data directory unless opted out
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// buildEngines constructs the production engines with per-engine settings
// from the config file applied.
func buildEngines(cfg *config.Config, logger *slog.Logger) ([]*engine.Engine, error) {
	defs := []engine.Definition{
		sysprobe.PlatformDefinition(),
		sysprobe.HardwareDefinition(),
	}

	engines := make([]*engine.Engine, 0, len(defs))
	for _, def := range defs {
		opts := []engine.Option{
			engine.WithLogger(logger),
			engine.WithProbeTimeout(cfg.ProbeTimeout),
		}
		if disabled := cfg.Engines.DisabledProbes(def.Name); len(disabled) > 0 {
			opts = append(opts, engine.WithoutProbes(disabled...))
		}

		e, err := engine.New(def, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s engine: %w", def.Name, err)
		}
		engines = append(engines, e)
	}

	return engines, nil
}

// runCollect executes one fingerprint run.
func runCollect(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	logger.Info("starting collection",
		"host", host,
		"probeTimeout", cfg.ProbeTimeout,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	engines, err := buildEngines(cfg, logger)
	if err != nil {
		return err
	}

	combined, err := engine.NewCombined(engines, engine.WithCombinedLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build combiner: %w", err)
	}

	startTime := time.Now()
	result, err := combined.Generate(ctx)
	if err != nil {
		return fmt.Errorf("fingerprint generation failed: %w", err)
	}
	logger.Debug("collection finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	// Generate and output report
	if err := outputReport(cfg, result); err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	// Derive the protected ID after the report so machine-readable output
	// stays a single document
	if cfg.AppID != "" && !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		protectedID, err := identity.ProtectedID(cfg.AppID, result.CombinedHash)
		if err != nil {
			return fmt.Errorf("failed to derive protected ID: %w", err)
		}
		fmt.Printf("Protected ID (%s): %s\n", cfg.AppID, protectedID)
	}

	// Save to database if enabled
	if db != nil {
		runID, err := db.SaveRun(ctx, host, result)
		if err != nil {
			logger.Error("failed to save run", "host", host, "error", err)
		} else {
			logger.Info("run saved to database", "host", host, "run_id", runID)
		}
	}

	return nil
}

// outputReport outputs the fingerprint report in the requested format.
func outputReport(cfg *config.Config, result *model.CombinedResult) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions;
		// reports carry raw hardware identifiers
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full record with all data)
	if cfg.JSONReport {
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(result)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(result)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(result)
	return err
}
