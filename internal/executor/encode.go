package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// ResultSet holds a fully materialized query result.
type ResultSet struct {
	Columns []string
	Types   []string // Database type names, as reported by the driver.
	Rows    [][]any
}

// Maps returns each row as a column name to value mapping.
func (rs ResultSet) Maps() []map[string]any {
	rows := make([]map[string]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		m := make(map[string]any, len(rs.Columns))
		for i, column := range rs.Columns {
			m[column] = row[i]
		}

		rows = append(rows, m)
	}

	return rows
}

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02T15:04:05"

	// Microseconds are always written with six digits, and omitted when zero.
	fractionLayout = ".000000"
	zoneLayout     = "-07:00"
)

// Encode renders the result set as a JSON array of objects whose keys follow the column order.
// Temporal values become ISO 8601 strings. Values of any type it does not know how to render make
// Encode fail.
func Encode(rs ResultSet) (string, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('[')
	for i, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			return "", fmt.Errorf("Row %d has %d values for %d columns", i, len(row), len(rs.Columns))
		}

		if i > 0 {
			buf.WriteString(", ")
		}

		buf.WriteByte('{')
		for j, column := range rs.Columns {
			if j > 0 {
				buf.WriteString(", ")
			}

			value, err := normalizeValue(row[j], typeName(rs.Types, j))
			if err != nil {
				return "", fmt.Errorf("Failed to encode column %q of row %d: %w", column, i, err)
			}

			err = writeJSON(buf, column)
			if err != nil {
				return "", err
			}

			buf.WriteString(": ")
			err = writeJSON(buf, value)
			if err != nil {
				return "", fmt.Errorf("Failed to encode column %q of row %d: %w", column, i, err)
			}
		}

		buf.WriteByte('}')
	}

	buf.WriteByte(']')

	return buf.String(), nil
}

func typeName(types []string, i int) string {
	if i >= len(types) {
		return ""
	}

	return types[i]
}

// writeJSON appends v without HTML escaping and without the trailing newline json.Encoder adds.
func writeJSON(buf *bytes.Buffer, v any) error {
	out := &bytes.Buffer{}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	err := enc.Encode(v)
	if err != nil {
		return err
	}

	buf.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))

	return nil
}

// normalizeValue converts a scanned value into something with a well defined JSON form.
func normalizeValue(value any, dbType string) (any, error) {
	switch v := value.(type) {
	case nil, bool:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	case string:
		if !utf8.ValidString(v) {
			return nil, fmt.Errorf("Text value is not valid UTF-8")
		}

		return v, nil
	case []byte:
		// Numeric, json, uuid and friends arrive as raw text.
		if !utf8.Valid(v) {
			return nil, fmt.Errorf("Binary value is not valid UTF-8")
		}

		return string(v), nil
	case time.Time:
		return formatTime(v, dbType), nil
	}

	return nil, fmt.Errorf("Object of type %T is not serializable", value)
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("Float value %v has no JSON representation", f)
	}

	return f, nil
}

// formatTime picks the ISO 8601 form matching the column's declared type.
func formatTime(t time.Time, dbType string) string {
	name := strings.ToUpper(strings.TrimSpace(dbType))
	name, _, _ = strings.Cut(name, "(")

	var layout string
	zoned := false
	switch {
	case name == "DATE":
		return t.Format(dateLayout)
	case name == "TIMETZ" || name == "TIME WITH TIME ZONE":
		layout, zoned = timeLayout, true
	case name == "TIME" || name == "TIME WITHOUT TIME ZONE":
		layout = timeLayout
	case name == "TIMESTAMP" || name == "DATETIME" || name == "TIMESTAMP WITHOUT TIME ZONE":
		layout = timestampLayout
	default:
		layout, zoned = timestampLayout, true
	}

	if t.Nanosecond()/int(time.Microsecond) != 0 {
		layout += fractionLayout
	}

	if zoned {
		layout += zoneLayout
	}

	return t.Format(layout)
}
