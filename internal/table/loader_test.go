package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reportpipe/internal/errs"
)

func writeCSVFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeXLSXFile(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cellRef, cell))
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSVFile(t, dir, "tickets.csv",
		"dept,tickets,status\nA,5,resolved\nB,7,open\nA,10,resolved\n")

	loader := NewLoader(nil)
	tbl, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"dept", "tickets", "status"}, tbl.Columns)
	require.Equal(t, 3, tbl.RowCount())

	v, ok := tbl.Cell(0, "tickets")
	require.True(t, ok)
	assert.Equal(t, Number(5), v)

	v, ok = tbl.Cell(1, "dept")
	require.True(t, ok)
	assert.Equal(t, TextValue("B"), v)
}

func TestLoadCSVWithBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSVFile(t, dir, "bom.csv", "\xEF\xBB\xBFdept,tickets\nA,5\n")

	loader := NewLoader(nil)
	tbl, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"dept", "tickets"}, tbl.Columns)
}

func TestLoadCSVEmptyCells(t *testing.T) {
	dir := t.TempDir()
	path := writeCSVFile(t, dir, "gaps.csv", "dept,tickets\nA,\nB,7\n")

	loader := NewLoader(nil)
	tbl, err := loader.Load(path)
	require.NoError(t, err)

	v, ok := tbl.Cell(0, "tickets")
	require.True(t, ok)
	assert.True(t, v.IsEmpty())
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)

	tests := []struct {
		name     string
		content  string
		wantKind errs.Kind
	}{
		{name: "empty file", content: "", wantKind: errs.KindFormat},
		{name: "duplicate columns", content: "dept,dept\nA,B\n", wantKind: errs.KindFormat},
		{name: "ragged rows", content: "dept,tickets\nA,5,extra\n", wantKind: errs.KindFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSVFile(t, dir, tt.name+".csv", tt.content)
			_, err := loader.Load(path)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errs.KindOf(err))
		})
	}
}

func TestLoadMissingSource(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestLoadUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeCSVFile(t, dir, "data.json", `{"dept":"A"}`)

	loader := NewLoader(nil)
	_, err := loader.Load(path)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindFormat))
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := writeXLSXFile(t, dir, "tickets.xlsx", [][]interface{}{
		{"dept", "tickets"},
		{"A", 5},
		{"B", 7},
	})

	loader := NewLoader(nil)
	tbl, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"dept", "tickets"}, tbl.Columns)
	require.Equal(t, 2, tbl.RowCount())

	v, ok := tbl.Cell(1, "tickets")
	require.True(t, ok)
	assert.Equal(t, Number(7), v)
}

func TestLoadXLSXPadsShortRows(t *testing.T) {
	dir := t.TempDir()
	// Trailing empty cells are trimmed by the spreadsheet library, so the
	// second data row comes back shorter than the header.
	path := writeXLSXFile(t, dir, "short.xlsx", [][]interface{}{
		{"dept", "tickets"},
		{"A", 5},
		{"B"},
	})

	loader := NewLoader(nil)
	tbl, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.RowCount())

	v, ok := tbl.Cell(1, "tickets")
	require.True(t, ok)
	assert.True(t, v.IsEmpty())
}

func TestLoadConcatenatesSources(t *testing.T) {
	dir := t.TempDir()
	first := writeCSVFile(t, dir, "jan.csv", "dept,tickets\nA,5\n")
	second := writeCSVFile(t, dir, "feb.csv", "dept,tickets\nB,7\n")

	loader := NewLoader(nil)
	tbl, err := loader.Load(first, second)
	require.NoError(t, err)

	require.Equal(t, 2, tbl.RowCount())
	v, _ := tbl.Cell(0, "dept")
	assert.Equal(t, "A", v.String())
	v, _ = tbl.Cell(1, "dept")
	assert.Equal(t, "B", v.String())
}

func TestLoadSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	first := writeCSVFile(t, dir, "a.csv", "dept,tickets\nA,5\n")

	tests := []struct {
		name   string
		header string
	}{
		{name: "different columns", header: "dept,count"},
		{name: "reordered columns", header: "tickets,dept"},
		{name: "extra column", header: "dept,tickets,status"},
	}

	loader := NewLoader(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			second := writeCSVFile(t, dir, tt.name+".csv", tt.header+"\nB,7\n")
			_, err := loader.Load(first, second)
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.KindSchemaMismatch))
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCSVFile(t, dir, "tickets_02.csv", "dept,tickets\nB,7\n")
	writeCSVFile(t, dir, "tickets_01.csv", "dept,tickets\nA,5\n")
	writeCSVFile(t, dir, "unrelated.txt", "not a source")

	loader := NewLoader(nil)
	tbl, err := loader.LoadDir(dir, "tickets_*.csv")
	require.NoError(t, err)

	// Lexical order, not creation order.
	require.Equal(t, 2, tbl.RowCount())
	v, _ := tbl.Cell(0, "dept")
	assert.Equal(t, "A", v.String())
}

func TestLoadDirNoMatches(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadDir(t.TempDir(), "*.csv")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestLoadDirMissingDirectory(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadDir(filepath.Join(t.TempDir(), "absent"), "*.csv")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}
