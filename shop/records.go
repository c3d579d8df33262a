package shop

import (
	"cmp"
	"strconv"
	"strings"
)

// ID is a join key normalized to text. The empty ID is SQL NULL and never
// matches another key.
type ID string

// Null reports whether the key is NULL.
func (id ID) Null() bool {
	return id == ""
}

// Int returns the key as an integer when it is the canonical decimal form
// of one. "7" is an integer key; "07" and "7.5" are not.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(id) {
		return 0, false
	}
	return n, true
}

// Compare orders integer keys numerically and ahead of every other key.
// The rest compare as text. This is how SQLite orders a column holding
// both INTEGER and TEXT values.
func (id ID) Compare(other ID) int {
	a, aInt := id.Int()
	b, bInt := other.Int()
	switch {
	case aInt && bInt:
		return cmp.Compare(a, b)
	case aInt:
		return -1
	case bInt:
		return 1
	}
	return strings.Compare(string(id), string(other))
}

// Order is one row of the orders relation. A NULL shipping_country is a
// nil pointer, distinct from the empty country name. A NULL total_amount
// is carried as zero.
type Order struct {
	OrderID         ID      `parquet:"order_id"`
	CustomerID      ID      `parquet:"customer_id"`
	ShippingCountry *string `parquet:"shipping_country"`
	TotalAmount     float64 `parquet:"total_amount"`
}

// Country returns a non-NULL shipping country.
func Country(name string) *string {
	return &name
}

// OrderItem is one row of the order_items relation.
type OrderItem struct {
	OrderID   ID    `parquet:"order_id"`
	ProductID ID    `parquet:"product_id"`
	Quantity  int64 `parquet:"quantity"`
}

// Product is one row of the products relation.
type Product struct {
	ProductID   ID     `parquet:"product_id"`
	ProductName string `parquet:"product_name"`
}

// ProductReview is one row of the product_reviews relation. Reviews with
// a NULL rating are dropped while decoding since AVG ignores them.
type ProductReview struct {
	ProductID ID      `parquet:"product_id"`
	Rating    float64 `parquet:"rating"`
}

// Gender values counted by the demographic breakdown. Anything else,
// including NULL, counts as neither.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Customer is one row of the customers relation.
type Customer struct {
	CustomerID ID     `parquet:"customer_id"`
	Gender     string `parquet:"gender"`
}
