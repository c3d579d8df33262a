package shop

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// WriteRows writes rows to a new Parquet file at path, using the struct's
// parquet tags as the schema.
func WriteRows[T any](path string, rows []T, opts ...parquet.WriterOption) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[T](f, opts...)
	if _, err := w.Write(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// WriteTable writes the relation t of ds to path in its canonical schema.
func (ds *Dataset) WriteTable(path string, t Table, opts ...parquet.WriterOption) error {
	switch t {
	case Orders:
		return WriteRows(path, ds.Orders, opts...)
	case OrderItems:
		return WriteRows(path, ds.OrderItems, opts...)
	case Products:
		return WriteRows(path, ds.Products, opts...)
	case ProductReviews:
		return WriteRows(path, ds.Reviews, opts...)
	case Customers:
		return WriteRows(path, ds.Customers, opts...)
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
}

// WriteTable decodes raw rows of t and writes them to path in the
// canonical schema. It returns the number of rows written.
func WriteTable(path string, t Table, rows []map[string]interface{}, opts ...parquet.WriterOption) (int, error) {
	var ds Dataset
	if err := ds.decode(t, rows); err != nil {
		return 0, err
	}
	if err := ds.WriteTable(path, t, opts...); err != nil {
		return 0, err
	}
	return ds.Len(t), nil
}
