package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/Gkaczkowski/emissions-app/internal/table"
)

// OverlayBucket holds the raw per-row marginal-rate values of one calendar
// bucket plus the bucket mean. It backs the spread visualization in which
// each bucket's individual readings are drawn behind the mean trace.
type OverlayBucket struct {
	// Bucket is the calendar-aligned end label of the bucket.
	Bucket time.Time
	// Times are the row timestamps of the non-nil numeric readings.
	Times []time.Time
	// Values are the corresponding readings, parallel to Times.
	Values []float64
	// Mean is the nil-aware bucket mean, nil when the bucket has no numeric
	// readings for the column.
	Mean *float64
}

// Overlay is a read-only auxiliary view over an aligned table: one entry per
// non-empty calendar bucket, ordered ascending.
type Overlay struct {
	// Column is the column the overlay was built from.
	Column string
	// Buckets are the per-bucket value sets.
	Buckets []OverlayBucket
}

// BuildOverlay groups t by calendar bucket and collects, per bucket, the raw
// values of the named column together with the bucket mean. A table without
// the column yields an overlay with no per-row values (buckets are skipped,
// not an error) — the original visualization silently skipped such buckets
// and that behavior is preserved.
func BuildOverlay(t *table.Table, f Frequency, timeColumn, column string) (*Overlay, error) {
	timeIdx, ok := t.ColumnIndex(timeColumn)
	if !ok {
		return nil, fmt.Errorf("overlay: missing time column %q", timeColumn)
	}

	colIdx, hasColumn := t.ColumnIndex(column)

	type acc struct {
		bucket OverlayBucket
		sum    float64
		count  int
	}
	buckets := make(map[int64]*acc)
	order := make([]int64, 0)

	for i := 0; i < t.NumRows(); i++ {
		ts, ok := table.Time(t.Row(i)[timeIdx])
		if !ok {
			continue
		}
		label := BucketEnd(ts, f)
		key := label.Unix()
		a, exists := buckets[key]
		if !exists {
			a = &acc{bucket: OverlayBucket{Bucket: label}}
			buckets[key] = a
			order = append(order, key)
		}
		if !hasColumn {
			continue
		}
		if v, ok := table.Float(t.Row(i)[colIdx]); ok {
			a.bucket.Times = append(a.bucket.Times, ts)
			a.bucket.Values = append(a.bucket.Values, v)
			a.sum += v
			a.count++
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	overlay := &Overlay{Column: column, Buckets: make([]OverlayBucket, 0, len(order))}
	for _, key := range order {
		a := buckets[key]
		if a.count > 0 {
			mean := a.sum / float64(a.count)
			a.bucket.Mean = &mean
		}
		overlay.Buckets = append(overlay.Buckets, a.bucket)
	}
	return overlay, nil
}
