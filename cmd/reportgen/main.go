// Command reportgen loads tabular data sources, computes the configured
// indicators and writes the report artifact. With -schedule (or a schedule
// in the config file) it keeps running and regenerates the report on each
// tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reportpipe/internal/config"
	"reportpipe/internal/exporter"
	"reportpipe/internal/infrastructure"
	"reportpipe/internal/pipeline"
	"reportpipe/internal/table"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	sources := flag.String("sources", "", "comma-separated source files (overrides config)")
	out := flag.String("out", "", "artifact destination path (overrides config)")
	format := flag.String("format", "", "artifact format: csv or xlsx (overrides config)")
	schedule := flag.String("schedule", "", "cron spec or @every interval; empty runs once (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg, *sources, *out, *format, *schedule, *logLevel)

	paths, err := config.NewPaths(cfg.Paths, "")
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath(cfg.Logging.FilePath)
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	runner, err := buildRunner(cfg, paths, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule.Spec == "" {
		result, err := runner.Execute(ctx)
		if err != nil {
			logger.Error("Run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Run succeeded",
			slog.String("run_id", result.RunID),
			slog.String("artifact", result.Artifact),
			slog.Duration("duration", result.Duration))
		fmt.Println(result.Artifact)
		return
	}

	scheduler := pipeline.NewScheduler(runner, logger)
	if err := scheduler.Start(cfg.Schedule.Spec); err != nil {
		logger.Error("Failed to start scheduler",
			slog.String("spec", cfg.Schedule.Spec),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("Scheduler did not stop cleanly", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// applyFlagOverrides layers command-line flags over the loaded config.
func applyFlagOverrides(cfg *config.Config, sources, out, format, schedule, logLevel string) {
	if sources != "" {
		cfg.Pipeline.Sources = splitSources(sources)
		cfg.Pipeline.SourcePattern = ""
	}
	if out != "" {
		cfg.Pipeline.Output.Path = out
	}
	if format != "" {
		cfg.Pipeline.Output.Format = format
	}
	if schedule != "" {
		cfg.Schedule.Spec = schedule
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func splitSources(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildRunner assembles the load, aggregate and export steps from the
// configuration.
func buildRunner(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*pipeline.Runner, error) {
	outFormat, err := exporter.ParseFormat(cfg.Pipeline.Output.Format)
	if err != nil {
		return nil, err
	}

	loader := table.NewLoader(logger)
	writer := exporter.NewWriter(paths, logger)

	var loadStep *pipeline.LoadStep
	if cfg.Pipeline.SourcePattern != "" {
		loadStep = pipeline.NewDiscoveryLoadStep(loader, paths.DataDir, cfg.Pipeline.SourcePattern, logger)
	} else {
		resolved := make([]string, len(cfg.Pipeline.Sources))
		for i, src := range cfg.Pipeline.Sources {
			resolved[i] = paths.GetDataPath(src)
		}
		loadStep = pipeline.NewLoadStep(loader, resolved, logger)
	}

	registry := pipeline.NewRegistry()
	steps := []pipeline.Step{
		loadStep,
		pipeline.NewAggregateStep(cfg.Pipeline.Indicators, cfg.SourceDescription(), logger),
		pipeline.NewExportStep(writer, cfg.Pipeline.Output.Path, outFormat, logger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return pipeline.NewRunner(registry, logger), nil
}
