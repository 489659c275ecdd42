package domain

import "time"

// ConversionRequest carries both confirmed selections and the amount to
// convert. Validation happens in the service before any network call.
type ConversionRequest struct {
	From   Selection `json:"from"`
	To     Selection `json:"to"`
	Amount float64   `json:"amount"`
}

// ConversionResult is transient: recomputed per request, never persisted.
type ConversionResult struct {
	ID          string    `json:"id"`
	CurrencyIn  string    `json:"currency_in"`
	CurrencyOut string    `json:"currency_out"`
	AmountIn    float64   `json:"amount_in"`
	AmountOut   float64   `json:"amount_out"`
	Rate        float64   `json:"rate"`
	At          time.Time `json:"at"`
}

// RatePoint is one day of a historical series.
type RatePoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// RateSeries is an ordered historical series, oldest point first.
type RateSeries []RatePoint

// SearchResult groups autocomplete matches: fiat section first, crypto
// section after, each in catalog order. NoMatches marks the "no results"
// state, which only arises for queries of two or more characters.
type SearchResult struct {
	Fiat      []CurrencyEntry `json:"fiat"`
	Crypto    []CurrencyEntry `json:"crypto"`
	NoMatches bool            `json:"no_matches"`
}

// Total returns the number of entries across both groups.
func (r SearchResult) Total() int {
	return len(r.Fiat) + len(r.Crypto)
}
