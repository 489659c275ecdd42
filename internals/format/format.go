// Package format renders amounts and rates for display. Floats coming out
// of the resolver go through decimals here so surfaces never print
// 90.00000000000001.
package format

import (
	"github.com/shopspring/decimal"

	"coinvert/internals/core/domain"
	"coinvert/internals/refdata"
)

const rateDecimals = 8

// Amount renders value with a fixed number of decimal places.
func Amount(value float64, decimals int) string {
	return decimal.NewFromFloat(value).StringFixed(int32(decimals))
}

// AmountFor renders value with the conventional decimals of the currency.
func AmountFor(value float64, code string, kind domain.Kind, tables *refdata.Tables) string {
	return Amount(value, tables.Decimals(code, kind))
}

// Rate renders a multiplicative rate rounded to eight places with
// trailing zeros trimmed, so tiny crypto rates stay legible.
func Rate(value float64) string {
	return decimal.NewFromFloat(value).Round(rateDecimals).String()
}
