// Package convert holds the pure unit conversions shared by the source
// adapters: troy ounce to gram, currency application, and karat scaling.
package convert

import (
	"github.com/shopspring/decimal"
)

// GramsPerTroyOunce is the physical constant used for all ounce/gram
// conversions. Not configurable.
var GramsPerTroyOunce = decimal.NewFromFloat(31.1035)

var (
	ten          = decimal.NewFromInt(10)
	karat22      = decimal.NewFromInt(22)
	karat24      = decimal.NewFromInt(24)
	hundredPct   = decimal.NewFromInt(100)
	divPrecision = int32(8)
)

// PerOunceToPerGram converts a per-troy-ounce price to per gram.
func PerOunceToPerGram(perOunce decimal.Decimal) decimal.Decimal {
	return perOunce.DivRound(GramsPerTroyOunce, divPrecision)
}

// PerGramToPerOunce converts a per-gram price to per troy ounce.
func PerGramToPerOunce(perGram decimal.Decimal) decimal.Decimal {
	return perGram.Mul(GramsPerTroyOunce)
}

// PerTenGramsToPerGram converts the per-10g quoting convention used by the
// Indian commodity pages to per gram.
func PerTenGramsToPerGram(perTenGrams decimal.Decimal) decimal.Decimal {
	return perTenGrams.DivRound(ten, divPrecision)
}

// ApplyExchangeRate converts a price across currencies at the given rate.
func ApplyExchangeRate(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate)
}

// Karat22To24 estimates a 24K (999) per-gram rate from a published 22K
// rate: rate / 22 * 24. Used to put single-tier retailers on the common
// 999 basis.
func Karat22To24(rate22k decimal.Decimal) decimal.Decimal {
	return rate22k.DivRound(karat22, divPrecision).Mul(karat24)
}

// PremiumPercent computes the relative premium of price over baseline as a
// percentage. Baseline must be positive; callers guard for that.
func PremiumPercent(price, baseline decimal.Decimal) decimal.Decimal {
	return price.Sub(baseline).DivRound(baseline, divPrecision).Mul(hundredPct)
}
