package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gkaczkowski/emissions-app/internal/aggregate"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

func testOptions() aggregate.Options {
	return aggregate.Options{
		TimeColumn:     "datetime",
		MarginalColumn: "moer_tons_per_mwh",
		AverageColumn:  "carbon_intensity_tons_per_mwh",
		DeltaColumn:    "delta_marginal_vs_average_tons_per_mwh",
	}
}

func mustTable(t *testing.T, cols []string, rows [][]interface{}) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(cols, rows)
	require.NoError(t, err)
	return tbl
}

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want aggregate.Frequency
	}{
		{"week", aggregate.Week},
		{"W", aggregate.Week},
		{"Month", aggregate.Month},
		{"m", aggregate.Month},
		{"year", aggregate.Year},
		{"y", aggregate.Year},
	}
	for _, tc := range cases {
		got, err := aggregate.ParseFrequency(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := aggregate.ParseFrequency("fortnight")
	assert.Error(t, err)
}

func TestBucketEnd_WeekEndsSunday(t *testing.T) {
	loc, err := time.LoadLocation("US/Pacific")
	require.NoError(t, err)

	// 2023-05-10 is a Wednesday; the enclosing week ends Sunday 2023-05-14.
	wed := time.Date(2023, 5, 10, 15, 30, 0, 0, loc)
	end := aggregate.BucketEnd(wed, aggregate.Week)
	assert.Equal(t, time.Date(2023, 5, 14, 0, 0, 0, 0, loc), end)

	// A Sunday belongs to the week it ends.
	sun := time.Date(2023, 5, 14, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2023, 5, 14, 0, 0, 0, 0, loc), aggregate.BucketEnd(sun, aggregate.Week))

	// The next instant starts a new week.
	mon := time.Date(2023, 5, 15, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2023, 5, 21, 0, 0, 0, 0, loc), aggregate.BucketEnd(mon, aggregate.Week))
}

func TestBucketEnd_MonthAndYear(t *testing.T) {
	ts := time.Date(2023, 2, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), aggregate.BucketEnd(ts, aggregate.Month))

	leap := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), aggregate.BucketEnd(leap, aggregate.Month))

	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), aggregate.BucketEnd(ts, aggregate.Year))
}

func TestAggregate_BucketMean(t *testing.T) {
	day := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	tbl := mustTable(t,
		[]string{"datetime", "moer_tons_per_mwh", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{day.Add(1 * time.Hour), 2.0, 1.0},
			{day.Add(2 * time.Hour), 4.0, 1.0},
			{day.Add(3 * time.Hour), 6.0, 1.0},
		})

	got, err := aggregate.Aggregate(tbl, aggregate.Week, testOptions())
	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())

	v, _ := got.Cell(0, "moer_tons_per_mwh")
	assert.Equal(t, 4.0, v)
	v, _ = got.Cell(0, "delta_marginal_vs_average_tons_per_mwh")
	assert.Equal(t, 3.0, v)
	v, _ = got.Cell(0, "datetime")
	label, ok := table.Time(v)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 14, 0, 0, 0, 0, time.UTC), label)
}

func TestAggregate_NilAwareMeanAndDelta(t *testing.T) {
	day := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	tbl := mustTable(t,
		[]string{"datetime", "moer_tons_per_mwh", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{day, 2.0, nil},
			{day.Add(time.Hour), 4.0, nil},
		})

	got, err := aggregate.Aggregate(tbl, aggregate.Week, testOptions())
	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())

	// Nil cells do not contribute to the mean denominator.
	v, _ := got.Cell(0, "moer_tons_per_mwh")
	assert.Equal(t, 3.0, v)

	// Delta is nil when one side has no readings in the bucket.
	v, _ = got.Cell(0, "delta_marginal_vs_average_tons_per_mwh")
	assert.Nil(t, v)
}

func TestAggregate_EmptyBucketsAbsent(t *testing.T) {
	// Two readings three weeks apart: only two rows come out, the empty week
	// between them is not materialized.
	loc := time.UTC
	tbl := mustTable(t,
		[]string{"datetime", "moer_tons_per_mwh", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{time.Date(2023, 5, 1, 12, 0, 0, 0, loc), 1.0, 1.0},
			{time.Date(2023, 5, 17, 12, 0, 0, 0, loc), 3.0, 1.0},
		})

	got, err := aggregate.Aggregate(tbl, aggregate.Week, testOptions())
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())

	first, _ := got.Cell(0, "datetime")
	second, _ := got.Cell(1, "datetime")
	f, _ := table.Time(first)
	s, _ := table.Time(second)
	assert.Equal(t, time.Date(2023, 5, 7, 0, 0, 0, 0, loc), f)
	assert.Equal(t, time.Date(2023, 5, 21, 0, 0, 0, 0, loc), s)
}

func TestAggregate_DeltaPerBucket(t *testing.T) {
	loc := time.UTC
	tbl := mustTable(t,
		[]string{"datetime", "moer_tons_per_mwh", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{time.Date(2023, 5, 1, 0, 0, 0, 0, loc), 5.0, 2.0},
			{time.Date(2023, 5, 10, 0, 0, 0, 0, loc), 4.0, 4.0},
		})

	got, err := aggregate.Aggregate(tbl, aggregate.Week, testOptions())
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())

	v, _ := got.Cell(0, "delta_marginal_vs_average_tons_per_mwh")
	assert.Equal(t, 3.0, v)
	v, _ = got.Cell(1, "delta_marginal_vs_average_tons_per_mwh")
	assert.Equal(t, 0.0, v)
}

func TestAggregate_DropsNonNumericColumns(t *testing.T) {
	loc := time.UTC
	tbl := mustTable(t,
		[]string{"datetime", "moer_tons_per_mwh", "carbon_intensity_tons_per_mwh", "watttime_balancing_authority"},
		[][]interface{}{
			{time.Date(2023, 5, 1, 0, 0, 0, 0, loc), 1.0, 1.0, "CAISO_NORTH"},
		})

	got, err := aggregate.Aggregate(tbl, aggregate.Month, testOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"datetime",
		"moer_tons_per_mwh",
		"carbon_intensity_tons_per_mwh",
		"delta_marginal_vs_average_tons_per_mwh",
	}, got.Columns())
}

func TestAggregate_MissingTimeColumn(t *testing.T) {
	tbl := mustTable(t, []string{"x"}, [][]interface{}{{1.0}})
	_, err := aggregate.Aggregate(tbl, aggregate.Week, testOptions())
	assert.Error(t, err)
}

func TestBuildOverlay(t *testing.T) {
	loc := time.UTC
	tbl := mustTable(t,
		[]string{"datetime", "moer_tons_per_mwh"},
		[][]interface{}{
			{time.Date(2023, 5, 1, 0, 0, 0, 0, loc), 2.0},
			{time.Date(2023, 5, 2, 0, 0, 0, 0, loc), 4.0},
			{time.Date(2023, 5, 3, 0, 0, 0, 0, loc), nil},
			{time.Date(2023, 5, 10, 0, 0, 0, 0, loc), 8.0},
		})

	ov, err := aggregate.BuildOverlay(tbl, aggregate.Week, "datetime", "moer_tons_per_mwh")
	require.NoError(t, err)
	require.Len(t, ov.Buckets, 2)

	b := ov.Buckets[0]
	assert.Equal(t, time.Date(2023, 5, 7, 0, 0, 0, 0, loc), b.Bucket)
	assert.Equal(t, []float64{2.0, 4.0}, b.Values)
	require.NotNil(t, b.Mean)
	assert.Equal(t, 3.0, *b.Mean)

	b = ov.Buckets[1]
	assert.Equal(t, []float64{8.0}, b.Values)
}

func TestBuildOverlay_MissingColumnIsSkippedNotError(t *testing.T) {
	loc := time.UTC
	tbl := mustTable(t,
		[]string{"datetime", "carbon_intensity_tons_per_mwh"},
		[][]interface{}{
			{time.Date(2023, 5, 1, 0, 0, 0, 0, loc), 1.0},
		})

	ov, err := aggregate.BuildOverlay(tbl, aggregate.Week, "datetime", "moer_tons_per_mwh")
	require.NoError(t, err)
	require.Len(t, ov.Buckets, 1)
	assert.Empty(t, ov.Buckets[0].Values)
	assert.Nil(t, ov.Buckets[0].Mean)
}
