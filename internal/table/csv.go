package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvTimeLayout is the timestamp format used in staged CSV files.
const csvTimeLayout = time.RFC3339Nano

// WriteCSV serializes the table as delimited text with a header row. Nil
// cells are written as empty fields; the copy-into file format on the
// warehouse side maps empty fields back to NULL.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.cols))
	for i, row := range t.rows {
		for j, cell := range row {
			record[j] = formatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses delimited text produced by WriteCSV (or an equivalent
// warehouse export) back into a Table. Empty fields become nil cells; other
// fields are coerced to int64, float64 or time.Time where they parse cleanly,
// and remain strings otherwise. This mirrors the type coercion a staged CSV
// undergoes when copied into a warehouse table.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t, err := New(header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		row := make([]interface{}, len(record))
		for j, field := range record {
			row[j] = parseCell(field)
		}
		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// formatCell renders a single cell as a CSV field.
func formatCell(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(csvTimeLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// parseCell coerces a CSV field to the narrowest matching cell type.
func parseCell(field string) interface{} {
	if field == "" {
		return nil
	}
	if i, err := strconv.ParseInt(field, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	if ts, err := time.Parse(csvTimeLayout, field); err == nil {
		return ts
	}
	return field
}
