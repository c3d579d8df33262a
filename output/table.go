package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// NullText is how the table format prints NULL.
const NullText = "NULL"

// TableFormatter prints an aligned text table.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders t with a header row. Column names are printed as given.
func (f *TableFormatter) Format(t Table) error {
	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i := range record {
			if i < len(row) {
				record[i] = formatValue(row[i], NullText)
			} else {
				record[i] = NullText
			}
		}
		tw.Append(record)
	}
	tw.Render()
	return nil
}
