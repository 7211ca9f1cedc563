package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Pence is a price in minor currency units. All price arithmetic and
// comparisons in the pipeline happen on this type; decimal amounts only
// exist at the upstream-API and JSON boundaries.
type Pence int64

// PenceFromFloat converts a decimal currency amount (e.g. 45.99) to
// minor units, rounding half away from zero.
func PenceFromFloat(amount float64) Pence {
	return Pence(math.Round(amount * 100))
}

// ParsePence parses a decimal string like "44", "44.5" or "44.00" into
// minor units without going through floating point.
func ParsePence(s string) (Pence, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	pounds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	var pence int64
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		pence, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}
	total := pounds*100 + pence
	if neg {
		total = -total
	}
	return Pence(total), nil
}

// Float returns the decimal currency amount.
func (p Pence) Float() float64 { return float64(p) / 100 }

func (p Pence) String() string {
	sign := ""
	v := int64(p)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
