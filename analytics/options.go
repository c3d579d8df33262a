package analytics

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned for option values the pipeline cannot run
// with.
var ErrInvalidOptions = errors.New("invalid options")

// DefaultTopCountries is the number of countries reported.
const DefaultTopCountries = 10

// TieBreak selects how exact ties on total_sales are resolved.
type TieBreak string

const (
	// TieBreakProductID ranks equal sales by product_id then product_name,
	// and equal country maxima by country name. Integer product ids order
	// numerically, see shop.ID.Compare. Every country then has
	// exactly one rank-1 product and the report is fully deterministic.
	TieBreakProductID TieBreak = "product_id"

	// TieBreakNone is plain RANK(): tied products share rank 1 and all of
	// them are reported. The order of countries with equal maxima at the
	// top-N boundary is whatever the engine produces.
	TieBreakNone TieBreak = "none"
)

// ParseTieBreak validates a tie-break name.
func ParseTieBreak(s string) (TieBreak, error) {
	switch tb := TieBreak(s); tb {
	case TieBreakProductID, TieBreakNone:
		return tb, nil
	}
	return "", fmt.Errorf("%w: unknown tie-break %q (want %q or %q)",
		ErrInvalidOptions, s, TieBreakProductID, TieBreakNone)
}

// Options tunes the report.
type Options struct {
	// TopCountries is how many countries, by best single-product sales,
	// make it into the report.
	TopCountries int
	TieBreak     TieBreak
}

// DefaultOptions returns the options that reproduce the reference report:
// top 10 countries, deterministic tie-break.
func DefaultOptions() Options {
	return Options{
		TopCountries: DefaultTopCountries,
		TieBreak:     TieBreakProductID,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.TopCountries <= 0 {
		return fmt.Errorf("%w: top countries must be positive, got %d", ErrInvalidOptions, o.TopCountries)
	}
	if _, err := ParseTieBreak(string(o.TieBreak)); err != nil {
		return err
	}
	return nil
}
