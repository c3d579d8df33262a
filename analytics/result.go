package analytics

// Columns are the report columns in output order.
var Columns = []string{
	"country",
	"product_name",
	"total_sales",
	"total_quantity",
	"avg_rating",
	"customer_count",
	"male_percent",
	"female_percent",
}

// Result is one report row: the best-selling product of a top country.
// Nil pointers are SQL NULLs: no reviews for AvgRating, no matching
// customers for the demographic fields.
type Result struct {
	Country       string   `json:"country"`
	ProductName   string   `json:"product_name"`
	TotalSales    float64  `json:"total_sales"`
	TotalQuantity int64    `json:"total_quantity"`
	AvgRating     *float64 `json:"avg_rating"`
	CustomerCount *int64   `json:"customer_count"`
	MalePercent   *float64 `json:"male_percent"`
	FemalePercent *float64 `json:"female_percent"`
}

// Values returns the row in Columns order with NULLs as untyped nil.
func (r Result) Values() []interface{} {
	return []interface{}{
		r.Country,
		r.ProductName,
		r.TotalSales,
		r.TotalQuantity,
		nullable(r.AvgRating),
		nullable(r.CustomerCount),
		nullable(r.MalePercent),
		nullable(r.FemalePercent),
	}
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
