// Package align merges the two emissions series onto a single timezone-aware
// time axis. Rows from each source stay distinct (no join on equal
// timestamps); the merged table is sorted ascending, converted from UTC to a
// fixed local zone and backward-filled.
package align

import (
	"time"

	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

const moduleName = "align"

// DatetimeColumn is the common time-axis column name both sources are
// renamed to before alignment.
const DatetimeColumn = "datetime"

// timestampLayouts are the textual timestamp formats accepted from drivers
// that report timestamps as strings rather than time.Time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Align concatenates two source tables row-wise, renames each source's
// timestamp column (tsColA, tsColB) to the shared datetime column, sorts
// ascending by it, interprets timestamps as UTC converted to loc, and
// backward-fills every other column. Inputs are not mutated.
//
// An input with no columns degenerates: the result is the other table,
// backward-filled from itself. An input with columns but without its
// designated timestamp column is an alignment error.
func Align(a, b *table.Table, tsColA, tsColB string, loc *time.Location) (*table.Table, error) {
	prepared := make([]*table.Table, 0, 2)

	pa, err := prepare(a, tsColA)
	if err != nil {
		return nil, err
	}
	if pa != nil {
		prepared = append(prepared, pa)
	}

	pb, err := prepare(b, tsColB)
	if err != nil {
		return nil, err
	}
	if pb != nil {
		prepared = append(prepared, pb)
	}

	merged, err := concat(prepared)
	if err != nil {
		return nil, err
	}

	if err := normalizeTimes(merged, loc); err != nil {
		return nil, err
	}
	sortByDatetime(merged)
	backwardFill(merged)
	return merged, nil
}

// prepare clones t and renames its timestamp column to DatetimeColumn.
// A table with no columns yields nil (it contributes nothing to the concat).
func prepare(t *table.Table, tsCol string) (*table.Table, error) {
	if t == nil || t.NumCols() == 0 {
		return nil, nil
	}
	if !t.HasColumn(tsCol) {
		return nil, exception.NewAlignmentError(moduleName, "missing expected timestamp column "+tsCol, nil)
	}
	c := t.Clone()
	if err := c.Rename(tsCol, DatetimeColumn); err != nil {
		return nil, exception.NewAlignmentError(moduleName, "failed to rename timestamp column "+tsCol, err)
	}
	return c, nil
}

// concat builds the row-wise union of the prepared tables. The column order
// is the datetime column first, then remaining columns in first-seen order.
// Cells for columns a source lacks are nil.
func concat(tables []*table.Table) (*table.Table, error) {
	cols := []string{DatetimeColumn}
	seen := map[string]bool{DatetimeColumn: true}
	for _, t := range tables {
		for _, c := range t.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	merged, err := table.New(cols)
	if err != nil {
		return nil, exception.NewAlignmentError(moduleName, "failed to build merged table", err)
	}

	for _, t := range tables {
		srcCols := t.Columns()
		for i := 0; i < t.NumRows(); i++ {
			row := make([]interface{}, len(cols))
			for j, c := range srcCols {
				k, _ := merged.ColumnIndex(c)
				row[k] = t.Row(i)[j]
			}
			if err := merged.AppendRow(row); err != nil {
				return nil, exception.NewAlignmentError(moduleName, "failed to append row", err)
			}
		}
	}
	return merged, nil
}

// normalizeTimes rewrites every datetime cell as a time.Time interpreted as
// UTC and converted to loc. A cell that is neither nil, time.Time nor a
// parseable timestamp string is an alignment error.
func normalizeTimes(t *table.Table, loc *time.Location) error {
	j, _ := t.ColumnIndex(DatetimeColumn)
	for i := 0; i < t.NumRows(); i++ {
		cell := t.Row(i)[j]
		if cell == nil {
			continue
		}
		ts, err := toUTCTime(cell)
		if err != nil {
			return exception.NewAlignmentError(moduleName, "unparseable timestamp in datetime column", err)
		}
		t.SetCell(i, j, ts.In(loc))
	}
	return nil
}

// toUTCTime coerces a cell value to a UTC time.Time.
func toUTCTime(cell interface{}) (time.Time, error) {
	switch v := cell.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		var lastErr error
		for _, layout := range timestampLayouts {
			ts, err := time.Parse(layout, v)
			if err == nil {
				return ts.UTC(), nil
			}
			lastErr = err
		}
		return time.Time{}, lastErr
	default:
		return time.Time{}, &time.ParseError{Value: "non-temporal cell"}
	}
}

// sortByDatetime stably sorts rows ascending by the datetime column.
// Rows with a nil datetime sort last, preserving their relative order.
func sortByDatetime(t *table.Table) {
	j, _ := t.ColumnIndex(DatetimeColumn)
	t.SortStable(func(a, b []interface{}) bool {
		ta, oka := table.Time(a[j])
		tb, okb := table.Time(b[j])
		if !oka {
			return false
		}
		if !okb {
			return true
		}
		return ta.Before(tb)
	})
}

// backwardFill replaces each nil cell with the nearest non-nil value in the
// same column at a later row. Leading nils with no later value remain nil.
// The datetime column is the index and is not filled.
func backwardFill(t *table.Table) {
	dtIdx, _ := t.ColumnIndex(DatetimeColumn)
	for j := 0; j < t.NumCols(); j++ {
		if j == dtIdx {
			continue
		}
		var next interface{}
		for i := t.NumRows() - 1; i >= 0; i-- {
			if t.Row(i)[j] != nil {
				next = t.Row(i)[j]
			} else if next != nil {
				t.SetCell(i, j, next)
			}
		}
	}
}
