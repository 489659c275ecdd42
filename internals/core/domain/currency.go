package domain

import "strings"

// CurrencyEntry is one selectable currency in a catalog snapshot. CoinID is
// the pricing provider's identifier and is set only for Crypto entries.
type CurrencyEntry struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	CoinID string `json:"coin_id,omitempty"`
}

// Selection returns the entry reduced to the fields a conversion needs.
func (e CurrencyEntry) Selection() Selection {
	return Selection{Code: e.Code, Kind: e.Kind, CoinID: e.CoinID}
}

// Selection is a confirmed pick from the catalog, one per conversion side.
type Selection struct {
	Code   string `json:"code"`
	Kind   Kind   `json:"kind"`
	CoinID string `json:"coin_id,omitempty"`
}

// Confirmed reports whether the selection actually points at a catalog entry.
func (s Selection) Confirmed() bool {
	return s.Code != "" && s.Kind != KindUnknown
}

// Catalog is an immutable snapshot of every selectable currency: fiat entries
// first, crypto entries after, in build order. Lookups are case-insensitive;
// when a code appears in both legs the entry earlier in the list wins.
type Catalog struct {
	entries []CurrencyEntry
	byCode  map[string]int
	coinIDs map[string]string
}

// NewCatalog indexes the given entries. The coin-id index is derived from the
// entries themselves and is rebuilt wholesale on every catalog build.
func NewCatalog(entries []CurrencyEntry) *Catalog {
	c := &Catalog{
		entries: entries,
		byCode:  make(map[string]int, len(entries)),
		coinIDs: make(map[string]string),
	}
	for i, e := range entries {
		code := strings.ToUpper(e.Code)
		if _, seen := c.byCode[code]; !seen {
			c.byCode[code] = i
		}
		if e.Kind == Crypto && e.CoinID != "" {
			if _, seen := c.coinIDs[code]; !seen {
				c.coinIDs[code] = e.CoinID
			}
		}
	}
	return c
}

// Entries returns the snapshot in catalog order.
func (c *Catalog) Entries() []CurrencyEntry {
	return c.entries
}

// Len returns the number of entries in the snapshot.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup finds the first entry for a code, ignoring case.
func (c *Catalog) Lookup(code string) (CurrencyEntry, bool) {
	i, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return CurrencyEntry{}, false
	}
	return c.entries[i], true
}

// CoinID resolves a crypto display code to the pricing provider's identifier.
func (c *Catalog) CoinID(code string) (string, bool) {
	id, ok := c.coinIDs[strings.ToUpper(strings.TrimSpace(code))]
	return id, ok
}
