package output

import (
	"fmt"
	"io"
	"strconv"
)

// Table is a column-ordered result set. Row values line up with Columns;
// a nil value is NULL.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes t in the formatter's specific format
	Format(t Table) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Format names.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// Formats lists the supported format names.
var Formats = []string{FormatTable, FormatCSV, FormatJSON}

// New returns the formatter for name writing to w.
func New(name string, w io.Writer) (Formatter, error) {
	switch name {
	case FormatTable, "":
		return NewTableFormatter(w), nil
	case FormatCSV:
		return NewCSVFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want one of %v)", name, Formats)
}

// formatValue renders a scalar for text output. Floats get two decimals.
func formatValue(v interface{}, null string) string {
	switch val := v.(type) {
	case nil:
		return null
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', 2, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
