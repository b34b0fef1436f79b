// Package pricing derives a duck's unit price from its family position and
// applies the loyalty discount to sale lines.
//
// Prices are recomputed on every read from the live direct-child count; they are
// never cached or stored, so a new duckling immediately lowers its mother's price.
package pricing

import "github.com/shopspring/decimal"

var (
	priceNoChildren = decimal.RequireFromString("70.00")
	priceOneChild   = decimal.RequireFromString("50.00")
	priceManyChild  = decimal.RequireFromString("25.00")

	discountFactor = decimal.RequireFromString("0.80")
	fullPrice      = decimal.NewFromInt(1)
)

// Price maps a direct-child count to a unit price:
// 0 children → 70.00, 1 child → 50.00, 2 or more → 25.00.
// Negative counts cannot come from the store and are priced as childless.
func Price(childCount int64) decimal.Decimal {
	switch {
	case childCount <= 0:
		return priceNoChildren
	case childCount == 1:
		return priceOneChild
	default:
		return priceManyChild
	}
}

// DiscountFactor is 0.80 for customers holding the sales discount, 1.00 otherwise.
func DiscountFactor(hasSalesDiscount bool) decimal.Decimal {
	if hasSalesDiscount {
		return discountFactor
	}
	return fullPrice
}

// Discounted returns price × factor rounded half-up to cents.
func Discounted(price, factor decimal.Decimal) decimal.Decimal {
	// Round is half away from zero, which is half-up for non-negative prices.
	return price.Mul(factor).Round(2)
}
