package analytics

import (
	"sort"

	"github.com/vegasq/shopstats/shop"
)

// country is a shipping_country value. NULL forms its own group but never
// equals another country, not even another NULL.
type country struct {
	Name string
	Null bool
}

func countryOf(s *string) country {
	if s == nil {
		return country{Null: true}
	}
	return country{Name: *s}
}

// before orders NULL ahead of every name, as SQLite does in ascending
// order.
func (c country) before(o country) bool {
	if c.Null != o.Null {
		return c.Null
	}
	return c.Name < o.Name
}

// productSales is one (country, product_id, product_name) group.
type productSales struct {
	Country       country
	ProductID     shop.ID
	ProductName   string
	TotalSales    float64
	TotalQuantity int64
}

type salesKey struct {
	country country
	product shop.ID
	name    string
}

// customerStats is the demographic breakdown of one product's buyers.
type customerStats struct {
	Count         int64
	MalePercent   *float64
	FemalePercent *float64
}

// rankedSales is a productSales row after the left joins and ranking.
type rankedSales struct {
	productSales
	AvgRating *float64
	Customers *customerStats
	Rank      int64
}

// countryMax is a country with its best single-product sales.
type countryMax struct {
	Country  country
	MaxSales float64
}

// indexBy builds a hash-join build side. NULL keys are left out since they
// never match.
func indexBy[T any](rows []T, key func(T) shop.ID) map[shop.ID][]T {
	idx := make(map[shop.ID][]T, len(rows))
	for _, row := range rows {
		k := key(row)
		if k.Null() {
			continue
		}
		idx[k] = append(idx[k], row)
	}
	return idx
}

// computeProductSales joins order items to orders and products and sums
// order totals and quantities per (country, product_id, product_name).
// Groups come back in first-seen order.
func computeProductSales(ds *shop.Dataset) []productSales {
	orders := indexBy(ds.Orders, func(o shop.Order) shop.ID { return o.OrderID })
	products := indexBy(ds.Products, func(p shop.Product) shop.ID { return p.ProductID })

	groups := make(map[salesKey]int)
	var out []productSales

	for _, item := range ds.OrderItems {
		for _, order := range orders[item.OrderID] {
			for _, product := range products[item.ProductID] {
				key := salesKey{country: countryOf(order.ShippingCountry), product: product.ProductID, name: product.ProductName}
				i, ok := groups[key]
				if !ok {
					i = len(out)
					groups[key] = i
					out = append(out, productSales{
						Country:     key.country,
						ProductID:   key.product,
						ProductName: key.name,
					})
				}
				out[i].TotalSales += order.TotalAmount
				out[i].TotalQuantity += item.Quantity
			}
		}
	}
	return out
}

// computeRatings averages review ratings per product.
func computeRatings(reviews []shop.ProductReview) map[shop.ID]float64 {
	type acc struct {
		sum   float64
		count int
	}
	accs := make(map[shop.ID]*acc)
	for _, r := range reviews {
		if r.ProductID.Null() {
			continue
		}
		a, ok := accs[r.ProductID]
		if !ok {
			a = &acc{}
			accs[r.ProductID] = a
		}
		a.sum += r.Rating
		a.count++
	}

	out := make(map[shop.ID]float64, len(accs))
	for id, a := range accs {
		out[id] = a.sum / float64(a.count)
	}
	return out
}

// computeCustomerStats joins order items to orders and customers and
// counts distinct buyers per product, overall and per gender.
func computeCustomerStats(ds *shop.Dataset) map[shop.ID]customerStats {
	orders := indexBy(ds.Orders, func(o shop.Order) shop.ID { return o.OrderID })
	customers := indexBy(ds.Customers, func(c shop.Customer) shop.ID { return c.CustomerID })

	type buyers struct {
		all, male, female map[shop.ID]struct{}
	}
	perProduct := make(map[shop.ID]*buyers)

	for _, item := range ds.OrderItems {
		for _, order := range orders[item.OrderID] {
			for _, customer := range customers[order.CustomerID] {
				b, ok := perProduct[item.ProductID]
				if !ok {
					b = &buyers{
						all:    make(map[shop.ID]struct{}),
						male:   make(map[shop.ID]struct{}),
						female: make(map[shop.ID]struct{}),
					}
					perProduct[item.ProductID] = b
				}
				b.all[order.CustomerID] = struct{}{}
				switch customer.Gender {
				case shop.GenderMale:
					b.male[order.CustomerID] = struct{}{}
				case shop.GenderFemale:
					b.female[order.CustomerID] = struct{}{}
				}
			}
		}
	}

	out := make(map[shop.ID]customerStats, len(perProduct))
	for id, b := range perProduct {
		stats := customerStats{Count: int64(len(b.all))}
		stats.MalePercent = percent(len(b.male), len(b.all))
		stats.FemalePercent = percent(len(b.female), len(b.all))
		out[id] = stats
	}
	return out
}

// percent is NULL when the denominator is zero.
func percent(part, whole int) *float64 {
	if whole == 0 {
		return nil
	}
	p := 100 * float64(part) / float64(whole)
	return &p
}

// rankSales left-joins ratings and customer stats onto the sales groups
// and ranks each country partition by total_sales descending. Ties share a
// rank unless the tie-break orders them.
func rankSales(sales []productSales, ratings map[shop.ID]float64, stats map[shop.ID]customerStats, tb TieBreak) []rankedSales {
	partitions := make(map[country][]rankedSales)
	var countries []country

	for _, ps := range sales {
		rs := rankedSales{productSales: ps}
		if avg, ok := ratings[ps.ProductID]; ok {
			rs.AvgRating = &avg
		}
		if cs, ok := stats[ps.ProductID]; ok {
			rs.Customers = &cs
		}
		if _, seen := partitions[ps.Country]; !seen {
			countries = append(countries, ps.Country)
		}
		partitions[ps.Country] = append(partitions[ps.Country], rs)
	}

	var out []rankedSales
	for _, c := range countries {
		partition := partitions[c]
		sort.SliceStable(partition, func(i, j int) bool {
			return compareSales(partition[i].productSales, partition[j].productSales, tb) < 0
		})

		rank := int64(1)
		for i := range partition {
			if i > 0 && compareSales(partition[i-1].productSales, partition[i].productSales, tb) != 0 {
				rank = int64(i + 1)
			}
			partition[i].Rank = rank
		}
		out = append(out, partition...)
	}
	return out
}

// compareSales orders by total_sales descending, then by the tie-break
// columns. Zero means the rows tie.
func compareSales(a, b productSales, tb TieBreak) int {
	switch {
	case a.TotalSales > b.TotalSales:
		return -1
	case a.TotalSales < b.TotalSales:
		return 1
	}
	if tb != TieBreakProductID {
		return 0
	}
	if c := a.ProductID.Compare(b.ProductID); c != 0 {
		return c
	}
	return compareStrings(a.ProductName, b.ProductName)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// topCountries picks the n countries with the highest single-product
// sales.
func topCountries(sales []productSales, n int, tb TieBreak) []countryMax {
	idx := make(map[country]int)
	var maxima []countryMax
	for _, ps := range sales {
		i, ok := idx[ps.Country]
		if !ok {
			idx[ps.Country] = len(maxima)
			maxima = append(maxima, countryMax{Country: ps.Country, MaxSales: ps.TotalSales})
			continue
		}
		if ps.TotalSales > maxima[i].MaxSales {
			maxima[i].MaxSales = ps.TotalSales
		}
	}

	sort.SliceStable(maxima, func(i, j int) bool {
		if maxima[i].MaxSales != maxima[j].MaxSales {
			return maxima[i].MaxSales > maxima[j].MaxSales
		}
		return tb == TieBreakProductID && maxima[i].Country.before(maxima[j].Country)
	})

	if len(maxima) > n {
		maxima = maxima[:n]
	}
	return maxima
}

// selectReport keeps the rank-1 rows of the top countries, ordered by
// total_sales descending, then country and product name. The NULL country
// is dropped here since it never matches in the join.
func selectReport(ranked []rankedSales, top []countryMax) []Result {
	inTop := make(map[string]bool, len(top))
	for _, c := range top {
		if !c.Country.Null {
			inTop[c.Country.Name] = true
		}
	}

	var out []Result
	for _, rs := range ranked {
		if rs.Rank != 1 || rs.Country.Null || !inTop[rs.Country.Name] {
			continue
		}
		r := Result{
			Country:       rs.Country.Name,
			ProductName:   rs.ProductName,
			TotalSales:    rs.TotalSales,
			TotalQuantity: rs.TotalQuantity,
			AvgRating:     rs.AvgRating,
		}
		if rs.Customers != nil {
			count := rs.Customers.Count
			r.CustomerCount = &count
			r.MalePercent = rs.Customers.MalePercent
			r.FemalePercent = rs.Customers.FemalePercent
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}
