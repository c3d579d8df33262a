// Package shop defines the five e-commerce relations the report reads
// (orders, order items, products, product reviews, customers), their
// decoding from loosely typed Parquet rows and the Resolver abstraction
// that hides where a relation is stored.
package shop
