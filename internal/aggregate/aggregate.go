// Package aggregate computes named indicators from a loaded table and
// assembles them into a Report, the immutable result of one pipeline run.
package aggregate

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"reportpipe/internal/errs"
	"reportpipe/internal/table"
)

// Function is an aggregation function identifier.
type Function string

const (
	FunctionSum   Function = "sum"
	FunctionMean  Function = "mean"
	FunctionCount Function = "count"
	FunctionRate  Function = "rate"
)

// Match is the condition counted by the rate function: rows whose Column
// renders equal to Equals.
type Match struct {
	Column string `yaml:"column" json:"column" validate:"required"`
	Equals string `yaml:"equals" json:"equals" validate:"required"`
}

// IndicatorSpec is one requested indicator: an aggregation function over a
// source column, optionally partitioned by a grouping column.
type IndicatorSpec struct {
	Label    string   `yaml:"label" json:"label" validate:"required"`
	Function Function `yaml:"function" json:"function" validate:"required,oneof=sum mean count rate"`
	Column   string   `yaml:"column" json:"column"`
	GroupBy  string   `yaml:"group_by" json:"group_by"`
	Match    *Match   `yaml:"match" json:"match,omitempty"`
}

// Indicator is a single named derived value. Group is empty for whole-table
// indicators.
type Indicator struct {
	Name  string  `json:"name"`
	Group string  `json:"group"`
	Value float64 `json:"value"`
}

// Report is the ordered result of one pipeline run. It is immutable after
// creation; the generation timestamp lives here, never in indicator values.
type Report struct {
	GeneratedAt time.Time
	Source      string
	Indicators  []Indicator
}

var validate = validator.New()

// ValidateSpecs checks indicator specifications before any run. Unknown
// functions surface with the taxonomy kind so misconfiguration fails the
// same way a runtime request would.
func ValidateSpecs(specs []IndicatorSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("at least one indicator must be requested")
	}
	for i, spec := range specs {
		if err := validate.Struct(spec); err != nil {
			if !knownFunction(spec.Function) && spec.Function != "" {
				return errs.UnsupportedFunction(string(spec.Function))
			}
			return fmt.Errorf("indicator %d (%s): %w", i+1, spec.Label, err)
		}
		switch spec.Function {
		case FunctionRate:
			if spec.Match == nil {
				return fmt.Errorf("indicator %q: rate requires a match condition", spec.Label)
			}
			if err := validate.Struct(spec.Match); err != nil {
				return fmt.Errorf("indicator %q: %w", spec.Label, err)
			}
		default:
			if spec.Column == "" {
				return fmt.Errorf("indicator %q: %s requires a source column", spec.Label, spec.Function)
			}
		}
	}
	return nil
}

func knownFunction(fn Function) bool {
	switch fn {
	case FunctionSum, FunctionMean, FunctionCount, FunctionRate:
		return true
	}
	return false
}

// Compute evaluates the requested indicators against the table. Indicators
// appear in request order, then in the order their partition first appears
// in the source rows. No missing column or undefined value is ever
// substituted with a default.
func Compute(t *table.Table, specs []IndicatorSpec, source string) (*Report, error) {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Source:      source,
	}

	for _, spec := range specs {
		indicators, err := computeOne(t, spec)
		if err != nil {
			return nil, err
		}
		report.Indicators = append(report.Indicators, indicators...)
	}
	return report, nil
}

// partition is one group of row indices sharing a grouping key.
type partition struct {
	key  string
	rows []int
}

func computeOne(t *table.Table, spec IndicatorSpec) ([]Indicator, error) {
	if !knownFunction(spec.Function) {
		return nil, errs.UnsupportedFunction(string(spec.Function))
	}

	colIdx := -1
	if spec.Function != FunctionRate {
		i, ok := t.ColumnIndex(spec.Column)
		if !ok {
			return nil, errs.UnknownColumn(spec.Column)
		}
		colIdx = i
	}

	matchIdx := -1
	if spec.Function == FunctionRate {
		if spec.Match == nil {
			return nil, errs.UnsupportedFunction("rate without match condition")
		}
		i, ok := t.ColumnIndex(spec.Match.Column)
		if !ok {
			return nil, errs.UnknownColumn(spec.Match.Column)
		}
		matchIdx = i
	}

	parts, err := partitionRows(t, spec.GroupBy)
	if err != nil {
		return nil, err
	}

	indicators := make([]Indicator, 0, len(parts))
	for _, part := range parts {
		var value float64
		switch spec.Function {
		case FunctionSum:
			value, err = sumColumn(t, part.rows, colIdx, spec)
		case FunctionMean:
			value, err = meanColumn(t, part.rows, colIdx, spec, part.key)
		case FunctionCount:
			value = countColumn(t, part.rows, colIdx)
		case FunctionRate:
			value, err = rateColumn(t, part.rows, matchIdx, spec, part.key)
		}
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, Indicator{
			Name:  spec.Label,
			Group: part.key,
			Value: value,
		})
	}
	return indicators, nil
}

// partitionRows splits the table by the grouping column, preserving the
// order groups first appear. An empty groupBy yields one whole-table
// partition, which may hold zero rows.
func partitionRows(t *table.Table, groupBy string) ([]partition, error) {
	if groupBy == "" {
		all := partition{}
		for i := range t.Rows {
			all.rows = append(all.rows, i)
		}
		return []partition{all}, nil
	}

	groupIdx, ok := t.ColumnIndex(groupBy)
	if !ok {
		return nil, errs.UnknownColumn(groupBy)
	}

	seen := make(map[string]int)
	var parts []partition
	for i, row := range t.Rows {
		key := row[groupIdx].String()
		pos, exists := seen[key]
		if !exists {
			pos = len(parts)
			seen[key] = pos
			parts = append(parts, partition{key: key})
		}
		parts[pos].rows = append(parts[pos].rows, i)
	}
	return parts, nil
}

func sumColumn(t *table.Table, rows []int, colIdx int, spec IndicatorSpec) (float64, error) {
	var total float64
	for _, r := range rows {
		cell := t.Rows[r][colIdx]
		if cell.IsEmpty() {
			continue
		}
		if cell.Kind != table.KindNumber {
			return 0, nonNumericCell(spec, r)
		}
		total += cell.Num
	}
	return total, nil
}

func meanColumn(t *table.Table, rows []int, colIdx int, spec IndicatorSpec, group string) (float64, error) {
	var total float64
	used := 0
	for _, r := range rows {
		cell := t.Rows[r][colIdx]
		if cell.IsEmpty() {
			continue
		}
		if cell.Kind != table.KindNumber {
			return 0, nonNumericCell(spec, r)
		}
		total += cell.Num
		used++
	}
	if used == 0 {
		return 0, errs.EmptyPartition(spec.Label, group)
	}
	return total / float64(used), nil
}

func countColumn(t *table.Table, rows []int, colIdx int) float64 {
	n := 0
	for _, r := range rows {
		if !t.Rows[r][colIdx].IsEmpty() {
			n++
		}
	}
	return float64(n)
}

func rateColumn(t *table.Table, rows []int, matchIdx int, spec IndicatorSpec, group string) (float64, error) {
	if len(rows) == 0 {
		return 0, errs.EmptyPartition(spec.Label, group)
	}
	matched := 0
	for _, r := range rows {
		if t.Rows[r][matchIdx].String() == spec.Match.Equals {
			matched++
		}
	}
	return float64(matched) / float64(len(rows)), nil
}

func nonNumericCell(spec IndicatorSpec, row int) error {
	return errs.New(errs.KindFormat,
		fmt.Sprintf("indicator %q: column %q holds a non-numeric value at row %d",
			spec.Label, spec.Column, row+1)).
		WithDetail("column", spec.Column).
		WithDetail("indicator", spec.Label)
}
