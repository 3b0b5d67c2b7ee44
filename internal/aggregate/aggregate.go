// Package aggregate groups an aligned emissions table into calendar buckets
// and computes per-bucket column means plus the derived delta metric.
//
// Bucket boundaries are calendar aligned and labeled at the bucket end:
// weeks end Sunday, months at their last day, years at December 31. This
// mirrors the right-closed, right-labeled weekly convention the original
// presentation layer relied on, so chart output keeps visual parity.
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Gkaczkowski/emissions-app/internal/table"
)

// Frequency selects the calendar bucket size.
type Frequency int

const (
	// Week buckets end on Sunday.
	Week Frequency = iota
	// Month buckets end on the last day of the month.
	Month
	// Year buckets end on December 31.
	Year
)

// String returns the frequency name.
func (f Frequency) String() string {
	switch f {
	case Week:
		return "Week"
	case Month:
		return "Month"
	case Year:
		return "Year"
	default:
		return "Unknown"
	}
}

// ParseFrequency parses a frequency name ("week", "month", "year", or the
// single-letter forms "W", "M", "Y").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(s) {
	case "week", "w":
		return Week, nil
	case "month", "m":
		return Month, nil
	case "year", "y":
		return Year, nil
	default:
		return 0, fmt.Errorf("unknown frequency: %q", s)
	}
}

// Options names the columns the aggregator operates on.
type Options struct {
	// TimeColumn is the time-axis column of the aligned table.
	TimeColumn string
	// MarginalColumn is the marginal operating emissions rate column.
	MarginalColumn string
	// AverageColumn is the average carbon intensity column.
	AverageColumn string
	// DeltaColumn is the name of the derived difference column to append.
	DeltaColumn string
}

// BucketEnd returns the calendar-aligned end label boundary of the bucket
// containing ts, at midnight in ts's location.
func BucketEnd(ts time.Time, f Frequency) time.Time {
	y, m, d := ts.Date()
	loc := ts.Location()
	switch f {
	case Week:
		// Days until the enclosing week's Sunday; a Sunday maps to itself.
		offset := (7 - int(ts.Weekday())) % 7
		return time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
	case Month:
		// Day 0 of the next month normalizes to the last day of this month.
		return time.Date(y, m+1, 0, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, 12, 31, 0, 0, 0, 0, loc)
	}
}

// bucket accumulates per-column sums for one calendar bucket.
type bucket struct {
	label  time.Time
	sums   []float64
	counts []int
}

// Aggregate groups t by calendar bucket and returns one row per non-empty
// bucket: the bucket label under opts.TimeColumn, the nil-aware arithmetic
// mean of every numeric column, and the appended delta column
// (mean marginal − mean average). Buckets with no contributing rows are
// absent from the output. Non-numeric columns are dropped.
func Aggregate(t *table.Table, f Frequency, opts Options) (*table.Table, error) {
	timeIdx, ok := t.ColumnIndex(opts.TimeColumn)
	if !ok {
		return nil, fmt.Errorf("aggregate: missing time column %q", opts.TimeColumn)
	}

	numericCols, numericIdx := numericColumns(t, timeIdx)

	buckets := make(map[int64]*bucket)
	order := make([]int64, 0)

	for i := 0; i < t.NumRows(); i++ {
		ts, ok := table.Time(t.Row(i)[timeIdx])
		if !ok {
			continue
		}
		label := BucketEnd(ts, f)
		key := label.Unix()
		b, exists := buckets[key]
		if !exists {
			b = &bucket{
				label:  label,
				sums:   make([]float64, len(numericIdx)),
				counts: make([]int, len(numericIdx)),
			}
			buckets[key] = b
			order = append(order, key)
		}
		for k, j := range numericIdx {
			if v, ok := table.Float(t.Row(i)[j]); ok {
				b.sums[k] += v
				b.counts[k]++
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	outCols := append([]string{opts.TimeColumn}, numericCols...)
	outCols = append(outCols, opts.DeltaColumn)
	out, err := table.New(outCols)
	if err != nil {
		return nil, err
	}

	marginalPos := columnPos(numericCols, opts.MarginalColumn)
	averagePos := columnPos(numericCols, opts.AverageColumn)

	for _, key := range order {
		b := buckets[key]
		row := make([]interface{}, len(outCols))
		row[0] = b.label

		means := make([]interface{}, len(numericCols))
		for k := range numericCols {
			if b.counts[k] > 0 {
				means[k] = b.sums[k] / float64(b.counts[k])
			}
		}
		copy(row[1:], means)

		// Delta is computed independently per bucket, nil if either side is.
		if marginalPos >= 0 && averagePos >= 0 && means[marginalPos] != nil && means[averagePos] != nil {
			row[len(row)-1] = means[marginalPos].(float64) - means[averagePos].(float64)
		}

		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// numericColumns returns the names and indexes of columns whose non-nil
// cells are all numeric. Columns with no non-nil cells at all are excluded.
func numericColumns(t *table.Table, timeIdx int) ([]string, []int) {
	cols := t.Columns()
	names := make([]string, 0, len(cols))
	idx := make([]int, 0, len(cols))
	for j, name := range cols {
		if j == timeIdx {
			continue
		}
		numeric := false
		mixed := false
		for i := 0; i < t.NumRows(); i++ {
			cell := t.Row(i)[j]
			if cell == nil {
				continue
			}
			if _, ok := table.Float(cell); ok {
				numeric = true
			} else {
				mixed = true
				break
			}
		}
		if numeric && !mixed {
			names = append(names, name)
			idx = append(idx, j)
		}
	}
	return names, idx
}

// columnPos returns the index of name in cols, or -1.
func columnPos(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

