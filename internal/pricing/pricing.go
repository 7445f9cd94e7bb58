// internal/pricing/pricing.go
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Round rounds to currency precision (2 decimal places), half-up. The
// decision is made on the shortest decimal form of the value, not on the
// raw float64, so an input like 0.285 (whose nearest float64 sits just
// below the half) still rounds up. Every discounted figure that is shown
// or stored goes through this so totals reconcile no matter where they
// were computed.
func Round(amount float64) float64 {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatFloat(amount, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > 2 {
		cents, err := strconv.ParseInt(s[:dot]+s[dot+1:dot+3], 10, 64)
		if err != nil {
			// beyond int64 cents; an ulp there exceeds a cent anyway
			return math.Floor(amount*100+0.5) / 100
		}
		if s[dot+3] >= '5' {
			cents++
		}
		amount = float64(cents) / 100
	}

	if neg {
		return -amount
	}
	return amount
}

// EffectivePrice returns the list price less the percentage discount,
// rounded to currency precision. Discounts outside 0-100 are treated as
// no discount; the result is never negative.
func EffectivePrice(listPrice float64, discountPercent int) float64 {
	if discountPercent <= 0 || discountPercent > 100 {
		return Round(listPrice)
	}
	discounted := listPrice - listPrice*float64(discountPercent)/100
	if discounted < 0 {
		return 0
	}
	return Round(discounted)
}

// Subtotal is the effective price times quantity, rounded.
func Subtotal(listPrice float64, discountPercent, quantity int) float64 {
	return Round(EffectivePrice(listPrice, discountPercent) * float64(quantity))
}
