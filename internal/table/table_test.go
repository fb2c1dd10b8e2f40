package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportpipe/internal/errs"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		wantErr bool
	}{
		{name: "valid columns", columns: []string{"dept", "tickets"}},
		{name: "columns trimmed", columns: []string{" dept ", "tickets"}},
		{name: "no columns", columns: nil, wantErr: true},
		{name: "empty column name", columns: []string{"dept", "  "}, wantErr: true},
		{name: "duplicate column", columns: []string{"dept", "dept"}, wantErr: true},
		{name: "duplicate after trim", columns: []string{"dept", " dept"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New(tt.columns)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsKind(err, errs.KindFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.columns), len(tbl.Columns))
			assert.Equal(t, 0, tbl.RowCount())
		})
	}
}

func TestAppend(t *testing.T) {
	tbl, err := New([]string{"dept", "tickets"})
	require.NoError(t, err)

	require.NoError(t, tbl.Append(Record{TextValue("A"), Number(5)}))
	assert.Equal(t, 1, tbl.RowCount())

	err = tbl.Append(Record{TextValue("B")})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindFormat))
	assert.Equal(t, 1, tbl.RowCount())
}

func TestColumnLookup(t *testing.T) {
	tbl, err := New([]string{"dept", "tickets"})
	require.NoError(t, err)
	require.NoError(t, tbl.Append(Record{TextValue("A"), Number(5)}))

	i, ok := tbl.ColumnIndex("tickets")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = tbl.ColumnIndex("missing")
	assert.False(t, ok)

	assert.True(t, tbl.HasColumn("dept"))
	assert.False(t, tbl.HasColumn("Dept"))

	v, ok := tbl.Cell(0, "tickets")
	assert.True(t, ok)
	assert.Equal(t, Number(5), v)

	_, ok = tbl.Cell(1, "tickets")
	assert.False(t, ok)
	_, ok = tbl.Cell(0, "missing")
	assert.False(t, ok)
}
