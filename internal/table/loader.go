package table

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"reportpipe/internal/errs"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads tabular sources into a Table. It is read-only with respect to
// its inputs.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to the default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads one or more sources and concatenates them, in argument order,
// into a single Table. The first source defines the schema; every following
// source must declare the same columns in the same order.
func (l *Loader) Load(paths ...string) (*Table, error) {
	if len(paths) == 0 {
		return nil, errs.New(errs.KindNotFound, "no sources given")
	}

	var merged *Table
	for _, path := range paths {
		t, err := l.loadOne(path)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = t
			continue
		}
		if !sameColumns(merged.Columns, t.Columns) {
			return nil, errs.SchemaMismatch(path, merged.Columns, t.Columns)
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}

	l.logger.Info("sources loaded",
		slog.Int("source_count", len(paths)),
		slog.Int("column_count", len(merged.Columns)),
		slog.Int("row_count", merged.RowCount()))
	return merged, nil
}

// LoadDir discovers sources in dir whose base name matches pattern
// (filepath.Match syntax) and loads them in lexical order.
func (l *Loader) LoadDir(dir, pattern string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound(dir)
		}
		return nil, errs.Format(dir, "cannot read directory", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, errs.Format(pattern, "invalid source pattern", err)
		}
		if ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, errs.NotFound(filepath.Join(dir, pattern))
	}
	l.logger.Info("sources discovered",
		slog.String("dir", dir),
		slog.String("pattern", pattern),
		slog.Int("count", len(paths)))
	return l.Load(paths...)
}

func (l *Loader) loadOne(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound(path)
		}
		return nil, errs.Format(path, "cannot stat source", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.loadCSV(path)
	case ".xlsx":
		return l.loadXLSX(path)
	default:
		return nil, errs.Format(path, "unrecognized source extension", nil)
	}
}

func (l *Loader) loadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Format(path, "cannot read source", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errs.Format(path, "malformed delimited text", err)
	}
	if len(rows) == 0 {
		return nil, errs.Format(path, "missing header row", nil)
	}

	t, err := New(rows[0])
	if err != nil {
		return nil, attachSource(err, path)
	}
	for _, row := range rows[1:] {
		rec := make(Record, len(row))
		for i, cell := range row {
			rec[i] = ParseValue(cell)
		}
		if err := t.Append(rec); err != nil {
			return nil, attachSource(err, path)
		}
	}
	return t, nil
}

func (l *Loader) loadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.Format(path, "cannot open spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errs.Format(path, "spreadsheet has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errs.Format(path, "cannot read sheet", err)
	}

	// Header is the first non-empty row; excelize trims trailing empty
	// cells so data rows are padded to the header width.
	headerIdx := -1
	for i, row := range rows {
		if !rowIsEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, errs.Format(path, "missing header row", nil)
	}

	t, err := New(rows[headerIdx])
	if err != nil {
		return nil, attachSource(err, path)
	}
	width := len(t.Columns)
	for _, row := range rows[headerIdx+1:] {
		if rowIsEmpty(row) {
			continue
		}
		if len(row) > width {
			return nil, errs.Format(path, "row wider than header", nil)
		}
		rec := make(Record, width)
		for i := 0; i < width; i++ {
			if i < len(row) {
				rec[i] = ParseValue(row[i])
			} else {
				rec[i] = Empty()
			}
		}
		if err := t.Append(rec); err != nil {
			return nil, attachSource(err, path)
		}
	}
	return t, nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func attachSource(err error, path string) error {
	if e, ok := err.(*errs.Error); ok {
		return e.WithDetail("source", path)
	}
	return err
}
