// Package exporter serializes a Report into a durable artifact. Writes are
// atomic: content goes to a temp file in the destination directory which is
// renamed into place on success, so a failed run never leaves a truncated
// artifact behind.
package exporter

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reportpipe/internal/aggregate"
	"reportpipe/internal/config"
	"reportpipe/internal/errs"
)

// Format identifies an artifact format. Selection is explicit, never
// inferred from content or file name.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format descriptor, accepting the short names and
// their descriptive aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "delimited-text":
		return FormatCSV, nil
	case "xlsx", "structured-spreadsheet":
		return FormatXLSX, nil
	default:
		return "", errs.UnsupportedFormat(s)
	}
}

// Writer renders reports to files. Relative destinations resolve into the
// reports directory.
type Writer struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWriter creates a report writer.
func NewWriter(paths *config.Paths, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{paths: paths, logger: logger}
}

// Write serializes the report to dest in the given format and returns the
// resolved destination path. The destination is created or overwritten,
// never appended to. Concurrent writers to the same destination race on the
// final rename; the last rename wins and the file is never observed
// half-written.
func (w *Writer) Write(report *aggregate.Report, dest string, format Format) (string, error) {
	fullPath := dest
	if !filepath.IsAbs(dest) && w.paths != nil {
		fullPath = w.paths.GetReportPath(dest)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".reportpipe-*")
	if err != nil {
		return "", errs.WriteFailed(fullPath, err)
	}
	tmpPath := tmp.Name()

	switch format {
	case FormatCSV:
		err = writeCSV(tmp, report)
	case FormatXLSX:
		// excelize writes the whole workbook itself.
		tmp.Close()
		err = writeXLSX(tmpPath, report)
	default:
		tmp.Close()
		os.Remove(tmpPath)
		return "", errs.UnsupportedFormat(string(format))
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if format == FormatCSV {
		if err := tmp.Close(); err != nil {
			os.Remove(tmpPath)
			return "", errs.WriteFailed(fullPath, err)
		}
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", errs.WriteFailed(fullPath, err)
	}

	w.logger.Info("artifact written",
		slog.String("path", fullPath),
		slog.String("format", string(format)),
		slog.Int("indicator_count", len(report.Indicators)))
	return fullPath, nil
}
