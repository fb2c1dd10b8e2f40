package exporter

import (
	"encoding/csv"
	"os"

	"reportpipe/internal/aggregate"
	"reportpipe/internal/errs"
)

var artifactHeaders = []string{"name", "group", "value"}

// writeCSV renders one row per indicator with a header row. No timestamp or
// other metadata is emitted, so identical reports produce byte-identical
// artifacts.
func writeCSV(f *os.File, report *aggregate.Report) error {
	w := csv.NewWriter(f)
	if err := w.Write(artifactHeaders); err != nil {
		return errs.WriteFailed(f.Name(), err)
	}
	for _, ind := range report.Indicators {
		row := []string{ind.Name, ind.Group, formatValue(ind.Value)}
		if err := w.Write(row); err != nil {
			return errs.WriteFailed(f.Name(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.WriteFailed(f.Name(), err)
	}
	return nil
}
