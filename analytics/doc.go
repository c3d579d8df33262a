// Package analytics computes the best-selling product report.
//
// For every country, products are ranked by total sales (the sum of the
// order totals of the orders that contain them). The rank-1 product of each
// of the N countries with the highest single-product sales is reported,
// enriched with its average review rating and the gender split of its
// distinct buyers.
//
// The report is computed in two interchangeable ways:
//
//   - Run / Pipeline.Execute evaluate it in Go with hash joins, hash
//     aggregation and a per-country RANK.
//   - SQL renders the same report as one SQL statement for an embedded
//     engine; QuerySQL runs it and scans the result.
//
// Both read the input through a shop.Resolver, so the same code serves
// Parquet files and catalog tables.
//
// Exact ties are resolved according to Options.TieBreak.
package analytics
