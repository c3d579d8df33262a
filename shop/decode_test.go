package shop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOrders(t *testing.T) {
	rows := []map[string]interface{}{
		{"order_id": int32(1), "customer_id": int64(10), "shipping_country": "US", "total_amount": 99.5},
		{"order_id": int64(2), "customer_id": nil, "shipping_country": nil, "total_amount": nil},
		{"order_id": "3", "customer_id": float64(12), "shipping_country": "IT", "total_amount": "12.25", "extra": true},
	}

	orders, err := DecodeOrders(rows)
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.Equal(t, Order{OrderID: "1", CustomerID: "10", ShippingCountry: Country("US"), TotalAmount: 99.5}, orders[0])
	assert.Equal(t, Order{OrderID: "2"}, orders[1])
	assert.True(t, orders[1].CustomerID.Null())
	assert.Equal(t, Order{OrderID: "3", CustomerID: "12", ShippingCountry: Country("IT"), TotalAmount: 12.25}, orders[2])
}

func TestDecodeOrders_EmptyCountryIsNotNull(t *testing.T) {
	orders, err := DecodeOrders([]map[string]interface{}{
		{"order_id": int64(1), "customer_id": int64(1), "shipping_country": "", "total_amount": 1.0},
		{"order_id": int64(2), "customer_id": int64(1), "shipping_country": nil, "total_amount": 1.0},
	})
	require.NoError(t, err)
	require.NotNil(t, orders[0].ShippingCountry)
	assert.Equal(t, "", *orders[0].ShippingCountry)
	assert.Nil(t, orders[1].ShippingCountry)
}

func TestDecodeOrderItems_Quantity(t *testing.T) {
	items, err := DecodeOrderItems([]map[string]interface{}{
		{"order_id": int64(1), "product_id": int64(5), "quantity": int32(3)},
		{"order_id": int64(1), "product_id": int64(6), "quantity": float64(2)},
		{"order_id": int64(1), "product_id": int64(7), "quantity": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 0}, []int64{items[0].Quantity, items[1].Quantity, items[2].Quantity})

	_, err = DecodeOrderItems([]map[string]interface{}{
		{"order_id": int64(1), "product_id": int64(5), "quantity": 1.5},
	})
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "order_items row 0 column quantity")
}

func TestDecodeOrderItems_LargeQuantity(t *testing.T) {
	items, err := DecodeOrderItems([]map[string]interface{}{
		{"order_id": int64(1), "product_id": int64(5), "quantity": int64(1<<53 + 1)},
		{"order_id": int64(1), "product_id": int64(6), "quantity": uint64(math.MaxInt64)},
		{"order_id": int64(1), "product_id": int64(7), "quantity": "9007199254740993"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1<<53+1), items[0].Quantity)
	assert.Equal(t, int64(math.MaxInt64), items[1].Quantity)
	assert.Equal(t, int64(9007199254740993), items[2].Quantity)

	_, err = DecodeOrderItems([]map[string]interface{}{
		{"order_id": int64(1), "product_id": int64(5), "quantity": uint64(math.MaxUint64)},
	})
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestDecodeProductReviews_DropsNullRatings(t *testing.T) {
	reviews, err := DecodeProductReviews([]map[string]interface{}{
		{"product_id": int64(1), "rating": int32(5)},
		{"product_id": int64(1), "rating": nil},
		{"product_id": int64(2), "rating": float32(3.5)},
	})
	require.NoError(t, err)
	assert.Equal(t, []ProductReview{{ProductID: "1", Rating: 5}, {ProductID: "2", Rating: 3.5}}, reviews)
}

func TestDecode_MalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		decode  func() error
		wantMsg string
	}{
		{
			name: "missing column",
			decode: func() error {
				_, err := DecodeProducts([]map[string]interface{}{{"product_id": int64(1)}})
				return err
			},
			wantMsg: "products row 0 column product_name: column not found",
		},
		{
			name: "non numeric amount",
			decode: func() error {
				_, err := DecodeOrders([]map[string]interface{}{
					{"order_id": int64(1), "customer_id": int64(1), "shipping_country": "US", "total_amount": "lots"},
				})
				return err
			},
			wantMsg: "orders row 0 column total_amount",
		},
		{
			name: "unsupported key",
			decode: func() error {
				_, err := DecodeCustomers([]map[string]interface{}{
					{"customer_id": true, "gender": "Male"},
				})
				return err
			},
			wantMsg: "unsupported key type bool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			require.ErrorIs(t, err, ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestToID(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		in   interface{}
		want ID
	}{
		{int32(7), "7"},
		{int64(7), "7"},
		{uint16(7), "7"},
		{float64(7), "7"},
		{float64(7.5), "7.5"},
		{"abc", "abc"},
		{u, ID(u.String())},
		{[]byte("0123456789abcdef"), "0123456789abcdef"},
		{nil, ""},
	}
	for _, tt := range tests {
		got, ok := toID(tt.in)
		assert.True(t, ok, "%T", tt.in)
		assert.Equal(t, tt.want, got, "%T %v", tt.in, tt.in)
	}
}

func TestID_Compare(t *testing.T) {
	ids := []ID{"b", "10", "a", "9", "07", "-3"}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	assert.Equal(t, []ID{"-3", "9", "10", "07", "a", "b"}, ids)

	n, ok := ID("42").Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)
	for _, id := range []ID{"", "07", "4.2", "+4", "99999999999999999999"} {
		_, ok := id.Int()
		assert.False(t, ok, "%q", id)
	}
}

func TestParseTable(t *testing.T) {
	for _, table := range Tables {
		got, err := ParseTable(string(table))
		require.NoError(t, err)
		assert.Equal(t, table, got)
		assert.NotEmpty(t, got.Columns())
	}

	_, err := ParseTable("invoices")
	require.ErrorIs(t, err, ErrUnknownTable)
}

type mapResolver map[Table][]map[string]interface{}

func (m mapResolver) Rows(_ context.Context, t Table) ([]map[string]interface{}, error) {
	rows, ok := m[t]
	if !ok {
		return nil, fmt.Errorf("no table %s", t)
	}
	return rows, nil
}

func TestLoad(t *testing.T) {
	r := mapResolver{
		Orders:         {{"order_id": int64(1), "customer_id": int64(1), "shipping_country": "US", "total_amount": 10.0}},
		OrderItems:     {{"order_id": int64(1), "product_id": int64(1), "quantity": int64(2)}},
		Products:       {{"product_id": int64(1), "product_name": "Lamp"}},
		ProductReviews: {},
		Customers:      {{"customer_id": int64(1), "gender": "Female"}},
	}

	ds, err := Load(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len(Orders))
	assert.Equal(t, 0, ds.Len(ProductReviews))
	assert.Equal(t, "Lamp", ds.Products[0].ProductName)

	delete(r, Customers)
	ds, err = Load(context.Background(), r)
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.Contains(t, err.Error(), "failed to load customers")
	assert.False(t, errors.Is(err, ErrMalformedInput))
}
