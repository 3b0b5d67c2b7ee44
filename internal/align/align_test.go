package align_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gkaczkowski/emissions-app/internal/align"
	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("US/Pacific")
	require.NoError(t, err)
	return loc
}

func mustTable(t *testing.T, cols []string, rows [][]interface{}) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(cols, rows)
	require.NoError(t, err)
	return tbl
}

func datetimes(t *testing.T, tbl *table.Table) []time.Time {
	t.Helper()
	var out []time.Time
	for i := 0; i < tbl.NumRows(); i++ {
		cell, ok := tbl.Cell(i, align.DatetimeColumn)
		require.True(t, ok)
		ts, ok := table.Time(cell)
		require.True(t, ok)
		out = append(out, ts)
	}
	return out
}

func TestAlign_InterleavesAndSorts(t *testing.T) {
	loc := pacific(t)
	base := time.Date(2023, 5, 10, 7, 0, 0, 0, time.UTC)

	avg := mustTable(t,
		[]string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{base.Add(2 * time.Hour), 0.3},
			{base, 0.2},
		})
	moer := mustTable(t,
		[]string{"moers_timestamp", "moer_tons_per_mwh"},
		[][]interface{}{
			{base.Add(time.Hour), 0.5},
			{base.Add(3 * time.Hour), 0.6},
		})

	got, err := align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		align.DatetimeColumn,
		"carbon_intensity_tons_per_mwh",
		"moer_tons_per_mwh",
	}, got.Columns())
	require.Equal(t, 4, got.NumRows())

	ts := datetimes(t, got)
	for i := 1; i < len(ts); i++ {
		assert.False(t, ts[i].Before(ts[i-1]), "rows must be sorted ascending")
	}
	// Timestamps are expressed in the local zone but denote the same instants.
	assert.Equal(t, loc, ts[0].Location())
	assert.True(t, ts[0].Equal(base))

	// No join: each source row stays its own output row, identifiable by the
	// column the other source does not carry.
	v, _ := got.Cell(0, "carbon_intensity_tons_per_mwh")
	assert.Equal(t, 0.2, v)
}

func TestAlign_BackwardFill(t *testing.T) {
	loc := pacific(t)
	base := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)

	// Source A provides values only at hours 0 and 2; rows from B at hours 1
	// and 3 get their A-column backward-filled from the next A row.
	avg := mustTable(t,
		[]string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{base, 5.0},
			{base.Add(2 * time.Hour), 9.0},
		})
	moer := mustTable(t,
		[]string{"moers_timestamp", "moer_tons_per_mwh"},
		[][]interface{}{
			{base.Add(time.Hour), 7.0},
			{base.Add(3 * time.Hour), 8.0},
		})

	got, err := align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)
	require.Equal(t, 4, got.NumRows())

	var intensities []interface{}
	for i := 0; i < got.NumRows(); i++ {
		v, _ := got.Cell(i, "carbon_intensity_tons_per_mwh")
		intensities = append(intensities, v)
	}
	// Hour 1 fills from hour 2; hour 3 has no later value and stays nil.
	assert.Equal(t, []interface{}{5.0, 9.0, 9.0, nil}, intensities)

	var moers []interface{}
	for i := 0; i < got.NumRows(); i++ {
		v, _ := got.Cell(i, "moer_tons_per_mwh")
		moers = append(moers, v)
	}
	assert.Equal(t, []interface{}{7.0, 7.0, 8.0, 8.0}, moers)
}

func TestAlign_LeadingGapFills(t *testing.T) {
	loc := pacific(t)
	base := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)

	avg := mustTable(t,
		[]string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{{base.Add(2 * time.Hour), 5.0}})
	moer := mustTable(t,
		[]string{"moers_timestamp", "moer_tons_per_mwh"},
		[][]interface{}{
			{base, 0.1},
			{base.Add(time.Hour), 0.2},
		})

	got, err := align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)

	var intensities []interface{}
	for i := 0; i < got.NumRows(); i++ {
		v, _ := got.Cell(i, "carbon_intensity_tons_per_mwh")
		intensities = append(intensities, v)
	}
	assert.Equal(t, []interface{}{5.0, 5.0, 5.0}, intensities)
}

func TestAlign_EmptyInputDegenerates(t *testing.T) {
	loc := pacific(t)
	base := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)

	empty, err := table.New(nil)
	require.NoError(t, err)
	moer := mustTable(t,
		[]string{"moers_timestamp", "moer_tons_per_mwh"},
		[][]interface{}{{base, 0.5}})

	got, err := align.Align(empty, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)

	assert.Equal(t, []string{align.DatetimeColumn, "moer_tons_per_mwh"}, got.Columns())
	require.Equal(t, 1, got.NumRows())
	v, _ := got.Cell(0, "moer_tons_per_mwh")
	assert.Equal(t, 0.5, v)
}

func TestAlign_BothEmpty(t *testing.T) {
	loc := pacific(t)
	a, err := table.New(nil)
	require.NoError(t, err)
	b, err := table.New(nil)
	require.NoError(t, err)

	got, err := align.Align(a, b, "x", "y", loc)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
}

func TestAlign_MissingTimestampColumn(t *testing.T) {
	loc := pacific(t)
	avg := mustTable(t, []string{"some_other_column"}, [][]interface{}{{1.0}})
	moer, err := table.New(nil)
	require.NoError(t, err)

	_, err = align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.Error(t, err)
	assert.True(t, exception.IsKind(err, exception.KindAlignment))
}

func TestAlign_StringTimestampsParsed(t *testing.T) {
	loc := pacific(t)

	avg := mustTable(t,
		[]string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{{"2023-05-10 07:00:00", 0.2}})
	moer, err := table.New(nil)
	require.NoError(t, err)

	got, err := align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)

	ts := datetimes(t, got)
	require.Len(t, ts, 1)
	assert.True(t, ts[0].Equal(time.Date(2023, 5, 10, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, loc, ts[0].Location())
}

func TestAlign_RealignIsIdempotent(t *testing.T) {
	loc := pacific(t)
	base := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)

	avg := mustTable(t,
		[]string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{base, 5.0},
			{base.Add(2 * time.Hour), 9.0},
		})
	moer := mustTable(t,
		[]string{"moers_timestamp", "moer_tons_per_mwh"},
		[][]interface{}{{base.Add(time.Hour), 7.0}})

	once, err := align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)

	empty, err := table.New(nil)
	require.NoError(t, err)

	// Backward fill is deterministic on sorted input: realigning an already
	// aligned table changes nothing.
	twice, err := align.Align(once, empty, align.DatetimeColumn, "", loc)
	require.NoError(t, err)

	require.Equal(t, once.NumRows(), twice.NumRows())
	assert.Equal(t, once.Columns(), twice.Columns())
	for i := 0; i < once.NumRows(); i++ {
		for _, col := range once.Columns() {
			a, _ := once.Cell(i, col)
			b, _ := twice.Cell(i, col)
			if ta, ok := table.Time(a); ok {
				tb, ok := table.Time(b)
				require.True(t, ok)
				assert.True(t, ta.Equal(tb))
				continue
			}
			assert.Equal(t, a, b)
		}
	}
}

func TestAlign_DoesNotMutateInputs(t *testing.T) {
	loc := pacific(t)
	base := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)

	avg := mustTable(t,
		[]string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{{base, 0.2}})
	moer := mustTable(t,
		[]string{"moers_timestamp", "moer_tons_per_mwh"},
		[][]interface{}{{base.Add(time.Hour), 0.5}})

	_, err := align.Align(avg, moer, "emaps_carbonintensity_timestamp", "moers_timestamp", loc)
	require.NoError(t, err)

	assert.Equal(t, []string{"emaps_carbonintensity_timestamp", "carbon_intensity_tons_per_mwh"}, avg.Columns())
	v, _ := moer.Cell(0, "moers_timestamp")
	ts, ok := table.Time(v)
	require.True(t, ok)
	assert.Equal(t, time.UTC, ts.Location())
}
