// Package output renders column-ordered result tables.
//
// All formatters take an output.Table: a list of column names and rows
// whose values line up with them. A nil value is NULL.
//
// # Supported Formats
//
//   - table: aligned text table with a header row; NULL is printed as
//     "NULL" and floats with two decimals
//   - csv: comma-separated values with a header row; NULL is an empty
//     field and string values that a spreadsheet would evaluate as a
//     formula are prefixed with a quote
//   - json: JSON Lines, one object per row with keys in column order;
//     NULL is null and numbers keep full precision
//
// # Basic Usage
//
//	f, err := output.New(output.FormatTable, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	return f.Format(output.Table{
//	    Columns: []string{"country", "total_sales"},
//	    Rows:    [][]interface{}{{"Germany", 1520.5}},
//	})
//
// Formatters can be pointed at another writer with SetOutput, e.g. a
// bytes.Buffer to capture the rendered text.
package output
