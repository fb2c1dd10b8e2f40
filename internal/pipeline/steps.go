package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"reportpipe/internal/aggregate"
	"reportpipe/internal/exporter"
	"reportpipe/internal/table"
)

// Step identifiers.
const (
	StepIDLoad      = "load"
	StepIDAggregate = "aggregate"
	StepIDExport    = "export"
)

// Step names.
const (
	StepNameLoad      = "Data Loading"
	StepNameAggregate = "Indicator Aggregation"
	StepNameExport    = "Artifact Export"
)

// LoadStep reads the configured sources into a Table and stores it in the
// run state.
type LoadStep struct {
	loader  *table.Loader
	sources []string
	dir     string
	pattern string
	logger  *slog.Logger
}

// NewLoadStep creates a load step over explicit source paths.
func NewLoadStep(loader *table.Loader, sources []string, logger *slog.Logger) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{loader: loader, sources: sources, logger: logger}
}

// NewDiscoveryLoadStep creates a load step that discovers sources matching
// pattern inside dir.
func NewDiscoveryLoadStep(loader *table.Loader, dir, pattern string, logger *slog.Logger) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{loader: loader, dir: dir, pattern: pattern, logger: logger}
}

func (s *LoadStep) ID() string   { return StepIDLoad }
func (s *LoadStep) Name() string { return StepNameLoad }

// Execute loads the sources and stores the resulting table.
func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	var (
		t   *table.Table
		err error
	)
	if s.pattern != "" {
		t, err = s.loader.LoadDir(s.dir, s.pattern)
	} else {
		t, err = s.loader.Load(s.sources...)
	}
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "table loaded",
		slog.String("run_id", state.ID),
		slog.Int("rows", t.RowCount()),
		slog.Int("columns", len(t.Columns)))
	state.SetValue(ValueKeyTable, t)
	return nil
}

// AggregateStep computes the configured indicators from the loaded table
// and stores the Report. The table is dropped afterwards; the Report owns
// the indicators from here on.
type AggregateStep struct {
	specs  []aggregate.IndicatorSpec
	source string
	logger *slog.Logger
}

// NewAggregateStep creates an aggregation step.
func NewAggregateStep(specs []aggregate.IndicatorSpec, source string, logger *slog.Logger) *AggregateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateStep{specs: specs, source: source, logger: logger}
}

func (s *AggregateStep) ID() string   { return StepIDAggregate }
func (s *AggregateStep) Name() string { return StepNameAggregate }

// Execute computes the report from the loaded table.
func (s *AggregateStep) Execute(ctx context.Context, state *RunState) error {
	v, ok := state.Value(ValueKeyTable)
	if !ok {
		return fmt.Errorf("no table in run state; load step did not run")
	}
	t := v.(*table.Table)

	report, err := aggregate.Compute(t, s.specs, s.source)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "report computed",
		slog.String("run_id", state.ID),
		slog.Int("indicator_count", len(report.Indicators)))
	state.SetValue(ValueKeyReport, report)
	state.DeleteValue(ValueKeyTable)
	return nil
}

// ExportStep serializes the Report to the configured destination.
type ExportStep struct {
	writer *exporter.Writer
	dest   string
	format exporter.Format
	logger *slog.Logger
}

// NewExportStep creates an export step.
func NewExportStep(writer *exporter.Writer, dest string, format exporter.Format, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{writer: writer, dest: dest, format: format, logger: logger}
}

func (s *ExportStep) ID() string   { return StepIDExport }
func (s *ExportStep) Name() string { return StepNameExport }

// Execute writes the report and records the artifact path.
func (s *ExportStep) Execute(ctx context.Context, state *RunState) error {
	v, ok := state.Value(ValueKeyReport)
	if !ok {
		return fmt.Errorf("no report in run state; aggregate step did not run")
	}
	report := v.(*aggregate.Report)

	path, err := s.writer.Write(report, s.dest, s.format)
	if err != nil {
		return err
	}
	state.SetValue(ValueKeyArtifact, path)
	return nil
}
