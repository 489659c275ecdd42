// Package refdata loads the bundled lookup tables the catalog and the
// surfaces rely on: currency display metadata, the ordered popular-codes
// list, and the fallback crypto list used when the ranking provider is
// unreachable. Loading never fails; a malformed table degrades to a small
// built-in subset.
package refdata

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"strings"

	"coinvert/internals/core/domain"
)

//go:embed data/currencies.json
var currenciesJSON []byte

//go:embed data/popular.json
var popularJSON []byte

//go:embed data/fallback_coins.json
var fallbackCoinsJSON []byte

// DefaultDecimals is used for any currency without bundled metadata.
const DefaultDecimals = 2

// CryptoDecimals is the display precision for crypto amounts.
const CryptoDecimals = 8

// CurrencyMeta is the bundled display metadata for one fiat currency.
type CurrencyMeta struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Coin is one bundled fallback crypto entry.
type Coin struct {
	Code string `json:"code"`
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Tables holds the three lookup structures in memory.
type Tables struct {
	Currencies    map[string]CurrencyMeta
	Popular       []string
	FallbackCoins []Coin
}

// Load parses the embedded tables. A table that fails to parse is replaced
// by its hardcoded subset and the failure is logged, not returned.
func Load(logger *slog.Logger) *Tables {
	t := &Tables{}

	if err := json.Unmarshal(currenciesJSON, &t.Currencies); err != nil {
		logger.Warn("currency table unreadable, using built-in subset", "error", err)
		t.Currencies = builtinCurrencies()
	}
	if err := json.Unmarshal(popularJSON, &t.Popular); err != nil {
		logger.Warn("popular list unreadable, using built-in subset", "error", err)
		t.Popular = builtinPopular()
	}
	if err := json.Unmarshal(fallbackCoinsJSON, &t.FallbackCoins); err != nil {
		logger.Warn("fallback coin list unreadable, using built-in subset", "error", err)
		t.FallbackCoins = builtinCoins()
	}

	return t
}

// DisplayName resolves a currency code to its bundled name, falling back to
// the code itself.
func (t *Tables) DisplayName(code string) string {
	if meta, ok := t.Currencies[strings.ToUpper(code)]; ok && meta.Name != "" {
		return meta.Name
	}
	return strings.ToUpper(code)
}

// Symbol returns the bundled currency symbol, or the empty string.
func (t *Tables) Symbol(code string) string {
	return t.Currencies[strings.ToUpper(code)].Symbol
}

// Decimals returns the display precision for a currency code.
func (t *Tables) Decimals(code string, kind domain.Kind) int {
	if kind == domain.Crypto {
		return CryptoDecimals
	}
	if meta, ok := t.Currencies[strings.ToUpper(code)]; ok {
		return meta.Decimals
	}
	return DefaultDecimals
}

// FallbackCoinEntries returns the bundled coins as catalog entries.
func (t *Tables) FallbackCoinEntries() []domain.CurrencyEntry {
	entries := make([]domain.CurrencyEntry, 0, len(t.FallbackCoins))
	for _, c := range t.FallbackCoins {
		entries = append(entries, domain.CurrencyEntry{
			Code:   strings.ToUpper(c.Code),
			Name:   c.Name,
			Kind:   domain.Crypto,
			CoinID: c.ID,
		})
	}
	return entries
}

func builtinCurrencies() map[string]CurrencyMeta {
	return map[string]CurrencyMeta{
		"USD": {Name: "US Dollar", Symbol: "$", Decimals: 2},
		"EUR": {Name: "Euro", Symbol: "€", Decimals: 2},
		"GBP": {Name: "British Pound", Symbol: "£", Decimals: 2},
		"JPY": {Name: "Japanese Yen", Symbol: "¥", Decimals: 0},
		"ARS": {Name: "Argentine Peso", Symbol: "$", Decimals: 2},
		"BRL": {Name: "Brazilian Real", Symbol: "R$", Decimals: 2},
	}
}

func builtinPopular() []string {
	return []string{"USD", "EUR", "GBP", "BTC", "ETH"}
}

func builtinCoins() []Coin {
	return []Coin{
		{Code: "BTC", Name: "Bitcoin", ID: "bitcoin"},
		{Code: "ETH", Name: "Ethereum", ID: "ethereum"},
		{Code: "USDT", Name: "Tether", ID: "tether"},
		{Code: "SOL", Name: "Solana", ID: "solana"},
	}
}
