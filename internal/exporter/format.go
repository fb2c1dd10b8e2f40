package exporter

import "strconv"

// formatValue renders an indicator value for delimited output using the
// shortest exact representation, so counts appear as integers.
func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
