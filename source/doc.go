// Package source resolves the report's tables to Parquet files on local
// disk or in S3.
//
// A Layout names a location per table. Locations may be plain paths, glob
// patterns matching part files ("lake/orders/*.parquet") or s3://bucket/key
// URIs. Files implements shop.Resolver over a Layout and is what the
// direct-file mode reads through; the catalog bootstrap uses it to find and
// read the files it materializes.
package source
