// Package reader reads Apache Parquet files into memory.
//
// Rows are returned as maps keyed by column name, which lets callers decode
// files whose physical column types vary (INT32 vs INT64 keys, DECIMAL vs
// DOUBLE amounts) without a fixed Go struct per file.
//
// # Basic Usage
//
//	r, err := reader.NewReader("archive/parquet/orders.parquet")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	if err := r.RequireColumns("order_id", "total_amount"); err != nil {
//	    return err
//	}
//	rows, err := r.ReadAll()
//
// # Part Files
//
// Glob expands a pattern to the matching part files in lexical order, which
// is how partitioned tables are usually laid out. ReadFile reads one file by
// its exact path, with no glob expansion:
//
//	paths, err := reader.Glob("lake/orders/*.parquet")
//	...
//	rows, err := reader.ReadFile(paths[0])
//
// # In-memory Sources
//
// NewReaderFrom opens any io.ReaderAt, for example a bytes.Reader holding an
// object downloaded from S3.
//
// # Type Handling
//
// DECIMAL columns are converted to float64 using the scale recorded in the
// schema. UUID columns become uuid.UUID; other byte arrays are returned as
// []byte. Null values are nil.
//
// The package uses github.com/parquet-go/parquet-go for the underlying
// parquet file operations.
package reader
