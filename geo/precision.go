package geo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// PrecisionMaintain is the precision value meaning "do not round coordinates".
const PrecisionMaintain = "maintain"

// Precision is the number of decimal places coordinates are rounded to, offset by one so that the
// zero value leaves coordinates as-is. Use Decimals to construct a rounding precision.
type Precision int

// Maintain leaves coordinates untouched.
const Maintain Precision = 0

// Decimals returns the Precision rounding coordinates to n decimal places.
func Decimals(n int) Precision {
	return Precision(n + 1)
}

// ParsePrecision parses a decimal places count or the sentinel "maintain".
func ParsePrecision(str string) (Precision, error) {

	if str == PrecisionMaintain || str == "" {
		return Maintain, nil
	}

	i, err := strconv.Atoi(str)

	if err != nil {
		return Maintain, fmt.Errorf("Invalid precision '%s', %w", str, err)
	}

	if i < 0 || i > 15 {
		return Maintain, fmt.Errorf("Precision '%d' out of range (0-15)", i)
	}

	return Decimals(i), nil
}

func (p Precision) String() string {

	if p <= Maintain {
		return PrecisionMaintain
	}

	return strconv.Itoa(int(p) - 1)
}

// Round returns a copy of g with coordinates rounded to p decimal places.
func Round(g orb.Geometry, p Precision) orb.Geometry {

	if g == nil || p <= Maintain {
		return g
	}

	factor := int(math.Pow10(int(p) - 1))
	return orb.Round(orb.Clone(g), factor)
}
