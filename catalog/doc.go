// Package catalog is a small lakehouse catalog: table metadata lives in an
// SQLite database and table data in Parquet files under a data directory,
// one file per table snapshot.
//
// A Catalog implements shop.Resolver, so the report can run against it
// the same way it runs against the input files. Bootstrap fills the
// catalog from the input files on first use.
package catalog
