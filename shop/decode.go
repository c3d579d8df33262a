package shop

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// decoder pulls typed values out of map rows and remembers the first
// failure, so the per-table decoders read as straight-line code.
type decoder struct {
	table Table
	index int
	row   map[string]interface{}
	err   error
}

func (d *decoder) fail(column string, format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	d.err = fmt.Errorf("%w: %s row %d column %s: %s",
		ErrMalformedInput, d.table, d.index, column, fmt.Sprintf(format, args...))
}

func (d *decoder) value(column string) interface{} {
	v, ok := d.row[column]
	if !ok {
		d.fail(column, "column not found")
	}
	return v
}

func (d *decoder) id(column string) ID {
	v := d.value(column)
	id, ok := toID(v)
	if !ok {
		d.fail(column, "unsupported key type %T", v)
	}
	return id
}

func (d *decoder) str(column string) string {
	switch v := d.value(column).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// nullableStr is str that keeps NULL apart from the empty string.
func (d *decoder) nullableStr(column string) *string {
	if d.value(column) == nil {
		return nil
	}
	s := d.str(column)
	return &s
}

// float returns the value and whether it was non-NULL.
func (d *decoder) float(column string) (float64, bool) {
	v := d.value(column)
	if v == nil {
		return 0, false
	}
	f, ok := toFloat64(v)
	if !ok || math.IsNaN(f) {
		d.fail(column, "expected a number, got %T %v", v, v)
		return 0, false
	}
	return f, true
}

// integer reads integer columns exactly. Floats and numeric strings must
// hold a whole number.
func (d *decoder) integer(column string) int64 {
	v := d.value(column)
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return d.unsigned(column, uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return d.unsigned(column, val)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return n
		}
	}

	f, ok := d.float(column)
	if !ok {
		return 0
	}
	if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		d.fail(column, "expected an integer, got %v", f)
		return 0
	}
	return int64(f)
}

func (d *decoder) unsigned(column string, v uint64) int64 {
	if v > math.MaxInt64 {
		d.fail(column, "integer %d overflows int64", v)
		return 0
	}
	return int64(v)
}

func decodeRows[T any](t Table, rows []map[string]interface{}, fn func(d *decoder) (T, bool)) ([]T, error) {
	out := make([]T, 0, len(rows))
	d := &decoder{table: t}
	for i, row := range rows {
		d.index, d.row = i, row
		rec, keep := fn(d)
		if d.err != nil {
			return nil, d.err
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DecodeOrders decodes rows of the orders relation.
func DecodeOrders(rows []map[string]interface{}) ([]Order, error) {
	return decodeRows(Orders, rows, func(d *decoder) (Order, bool) {
		amount, _ := d.float("total_amount")
		return Order{
			OrderID:         d.id("order_id"),
			CustomerID:      d.id("customer_id"),
			ShippingCountry: d.nullableStr("shipping_country"),
			TotalAmount:     amount,
		}, true
	})
}

// DecodeOrderItems decodes rows of the order_items relation.
func DecodeOrderItems(rows []map[string]interface{}) ([]OrderItem, error) {
	return decodeRows(OrderItems, rows, func(d *decoder) (OrderItem, bool) {
		return OrderItem{
			OrderID:   d.id("order_id"),
			ProductID: d.id("product_id"),
			Quantity:  d.integer("quantity"),
		}, true
	})
}

// DecodeProducts decodes rows of the products relation.
func DecodeProducts(rows []map[string]interface{}) ([]Product, error) {
	return decodeRows(Products, rows, func(d *decoder) (Product, bool) {
		return Product{
			ProductID:   d.id("product_id"),
			ProductName: d.str("product_name"),
		}, true
	})
}

// DecodeProductReviews decodes rows of the product_reviews relation,
// dropping reviews without a rating.
func DecodeProductReviews(rows []map[string]interface{}) ([]ProductReview, error) {
	return decodeRows(ProductReviews, rows, func(d *decoder) (ProductReview, bool) {
		rating, ok := d.float("rating")
		return ProductReview{
			ProductID: d.id("product_id"),
			Rating:    rating,
		}, ok
	})
}

// DecodeCustomers decodes rows of the customers relation.
func DecodeCustomers(rows []map[string]interface{}) ([]Customer, error) {
	return decodeRows(Customers, rows, func(d *decoder) (Customer, bool) {
		return Customer{
			CustomerID: d.id("customer_id"),
			Gender:     d.str("gender"),
		}, true
	})
}

// toID normalizes a key so that the same logical key compares equal across
// files with different physical types (INT32 vs INT64 vs DOUBLE). Raw byte
// arrays are taken as text whatever their length; only values the reader
// decoded as uuid.UUID get the canonical UUID form.
func toID(v interface{}) (ID, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return ID(val), true
	case []byte:
		return ID(val), true
	case uuid.UUID:
		return ID(val.String()), true
	case int:
		return ID(strconv.FormatInt(int64(val), 10)), true
	case int8:
		return ID(strconv.FormatInt(int64(val), 10)), true
	case int16:
		return ID(strconv.FormatInt(int64(val), 10)), true
	case int32:
		return ID(strconv.FormatInt(int64(val), 10)), true
	case int64:
		return ID(strconv.FormatInt(val, 10)), true
	case uint, uint8, uint16, uint32, uint64:
		return ID(fmt.Sprintf("%d", val)), true
	case float32, float64:
		f, _ := toFloat64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return ID(strconv.FormatInt(int64(f), 10)), true
		}
		return ID(strconv.FormatFloat(f, 'g', -1, 64)), true
	}
	return "", false
}

// toFloat64 converts a numeric value, or a string holding one, to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
