package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes one JSON object per row with keys in column order. NULL
// is null.
func (j *JSONFormatter) Format(t Table) error {
	bw := bufio.NewWriter(j.writer)
	keys := make([][]byte, len(t.Columns))
	for i, col := range t.Columns {
		k, err := json.Marshal(col)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	for _, row := range t.Rows {
		_ = bw.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				_ = bw.WriteByte(',')
			}
			var v interface{}
			if i < len(row) {
				v = row[i]
			}
			value, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to encode column %s: %w", t.Columns[i], err)
			}
			_, _ = bw.Write(key)
			_ = bw.WriteByte(':')
			_, _ = bw.Write(value)
		}
		_, _ = bw.WriteString("}\n")
	}
	return bw.Flush()
}
