package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	"github.com/vegasq/shopstats/shop"
)

var reportTemplate = template.Must(template.New("report").Parse(`WITH product_sales AS (
    SELECT
        o.shipping_country AS country,
        oi.product_id AS product_id,
        p.product_name AS product_name,
        SUM(o.total_amount) AS total_sales,
        SUM(oi.quantity) AS total_quantity
    FROM {{.Orders}} o
    JOIN {{.OrderItems}} oi ON o.order_id = oi.order_id
    JOIN {{.Products}} p ON oi.product_id = p.product_id
    GROUP BY o.shipping_country, oi.product_id, p.product_name
),
product_ratings AS (
    SELECT product_id, AVG(rating) AS avg_rating
    FROM {{.ProductReviews}}
    GROUP BY product_id
),
product_customers AS (
    SELECT
        oi.product_id AS product_id,
        COUNT(DISTINCT o.customer_id) AS customer_count,
        100.0 * COUNT(DISTINCT CASE WHEN c.gender = 'Male' THEN o.customer_id END)
            / NULLIF(COUNT(DISTINCT o.customer_id), 0) AS male_percent,
        100.0 * COUNT(DISTINCT CASE WHEN c.gender = 'Female' THEN o.customer_id END)
            / NULLIF(COUNT(DISTINCT o.customer_id), 0) AS female_percent
    FROM {{.Orders}} o
    JOIN {{.OrderItems}} oi ON o.order_id = oi.order_id
    JOIN {{.Customers}} c ON o.customer_id = c.customer_id
    GROUP BY oi.product_id
),
ranked_sales AS (
    SELECT
        ps.country, ps.product_id, ps.product_name, ps.total_sales, ps.total_quantity,
        pr.avg_rating, pc.customer_count, pc.male_percent, pc.female_percent,
        RANK() OVER (PARTITION BY ps.country ORDER BY ps.total_sales DESC{{if .Deterministic}}, ps.product_id, ps.product_name{{end}}) AS sales_rank
    FROM product_sales ps
    LEFT JOIN product_ratings pr ON ps.product_id = pr.product_id
    LEFT JOIN product_customers pc ON ps.product_id = pc.product_id
),
top_countries AS (
    SELECT country, MAX(total_sales) AS max_sales
    FROM product_sales
    GROUP BY country
    ORDER BY max_sales DESC{{if .Deterministic}}, country{{end}}
    LIMIT {{.Limit}}
)
SELECT
    rs.country, rs.product_name, rs.total_sales, rs.total_quantity, rs.avg_rating,
    rs.customer_count, rs.male_percent, rs.female_percent
FROM ranked_sales rs
JOIN top_countries tc ON rs.country = tc.country
WHERE rs.sales_rank = 1
ORDER BY rs.total_sales DESC, rs.country, rs.product_name`))

// SQL renders the report as a single SQL statement. ref maps each relation
// to the expression the target engine reads it from, e.g. a table name or
// read_parquet('orders.parquet').
func SQL(opts Options, ref func(shop.Table) string) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	err := reportTemplate.Execute(&b, struct {
		Orders, OrderItems, Products, ProductReviews, Customers string
		Deterministic                                          bool
		Limit                                                  int
	}{
		Orders:         ref(shop.Orders),
		OrderItems:     ref(shop.OrderItems),
		Products:       ref(shop.Products),
		ProductReviews: ref(shop.ProductReviews),
		Customers:      ref(shop.Customers),
		Deterministic:  opts.TieBreak == TieBreakProductID,
		Limit:          opts.TopCountries,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render report query: %w", err)
	}
	return b.String(), nil
}

// TableName references a relation by its table name.
func TableName(t shop.Table) string {
	return string(t)
}

// Querier is the subset of *sql.DB and *sql.Conn the SQL path needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// QuerySQL executes the rendered report on db and scans the rows.
func QuerySQL(ctx context.Context, db Querier, opts Options, ref func(shop.Table) string) ([]Result, error) {
	query, err := SQL(opts, ref)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute report query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Result
	for rows.Next() {
		var (
			r             Result
			avg, male     sql.NullFloat64
			female        sql.NullFloat64
			customerCount sql.NullInt64
		)
		if err := rows.Scan(&r.Country, &r.ProductName, &r.TotalSales, &r.TotalQuantity,
			&avg, &customerCount, &male, &female); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.AvgRating = nullFloat(avg)
		r.MalePercent = nullFloat(male)
		r.FemalePercent = nullFloat(female)
		if customerCount.Valid {
			n := customerCount.Int64
			r.CustomerCount = &n
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report rows: %w", err)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
