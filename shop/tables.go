package shop

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownTable is returned when a name is not one of the five tables.
	ErrUnknownTable = errors.New("unknown table")

	// ErrMalformedInput is returned when a relation lacks a required column
	// or holds a value that cannot be coerced to the column's type.
	ErrMalformedInput = errors.New("malformed input")
)

// Table names one of the five input relations.
type Table string

const (
	Orders         Table = "orders"
	OrderItems     Table = "order_items"
	Products       Table = "products"
	ProductReviews Table = "product_reviews"
	Customers      Table = "customers"
)

// Tables lists the input relations in load order.
var Tables = []Table{Orders, OrderItems, Products, ProductReviews, Customers}

var tableColumns = map[Table][]string{
	Orders:         {"order_id", "customer_id", "shipping_country", "total_amount"},
	OrderItems:     {"order_id", "product_id", "quantity"},
	Products:       {"product_id", "product_name"},
	ProductReviews: {"product_id", "rating"},
	Customers:      {"customer_id", "gender"},
}

// ParseTable validates a table name.
func ParseTable(name string) (Table, error) {
	t := Table(name)
	if _, ok := tableColumns[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// Columns returns the columns the pipeline reads from the table. Files may
// carry more; these must be present.
func (t Table) Columns() []string {
	return tableColumns[t]
}

func (t Table) String() string {
	return string(t)
}

// Resolver resolves a table to its rows. Implementations decide where the
// table lives: a Parquet file, a glob of part files, an object in S3 or a
// catalog table.
type Resolver interface {
	Rows(ctx context.Context, t Table) ([]map[string]interface{}, error)
}

// Dataset holds the five decoded relations.
type Dataset struct {
	Orders     []Order
	OrderItems []OrderItem
	Products   []Product
	Reviews    []ProductReview
	Customers  []Customer
}

// Load resolves and decodes all five tables. The first failure aborts the
// load; no partially populated Dataset is returned.
func Load(ctx context.Context, r Resolver) (*Dataset, error) {
	ds := &Dataset{}
	for _, t := range Tables {
		rows, err := r.Rows(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", t, err)
		}
		if err := ds.decode(t, rows); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func (ds *Dataset) decode(t Table, rows []map[string]interface{}) error {
	var err error
	switch t {
	case Orders:
		ds.Orders, err = DecodeOrders(rows)
	case OrderItems:
		ds.OrderItems, err = DecodeOrderItems(rows)
	case Products:
		ds.Products, err = DecodeProducts(rows)
	case ProductReviews:
		ds.Reviews, err = DecodeProductReviews(rows)
	case Customers:
		ds.Customers, err = DecodeCustomers(rows)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	return err
}

// Len returns the number of rows held for t.
func (ds *Dataset) Len(t Table) int {
	switch t {
	case Orders:
		return len(ds.Orders)
	case OrderItems:
		return len(ds.OrderItems)
	case Products:
		return len(ds.Products)
	case ProductReviews:
		return len(ds.Reviews)
	case Customers:
		return len(ds.Customers)
	}
	return 0
}
