// Package catalog assembles the currency catalog from the fiat and crypto
// providers and keeps a shared snapshot of it for the rest of the app.
package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"coinvert/internals/adapter/coingecko"
	"coinvert/internals/adapter/fiatrates"
	"coinvert/internals/core/domain"
	"coinvert/internals/refdata"

	"golang.org/x/sync/errgroup"
)

const (
	catalogBase  = "USD"
	topCoinCount = 100
)

// fallbackFiatCodes is the degraded fiat catalog used when the rates
// provider is unreachable. Fixed order, not sorted.
var fallbackFiatCodes = []string{"USD", "EUR", "GBP", "JPY", "ARS", "BRL"}

// Builder fetches both catalog legs and merges them into one snapshot.
type Builder struct {
	fiat   fiatrates.API
	coins  coingecko.API
	tables *refdata.Tables
	logger *slog.Logger
}

// NewBuilder wires a Builder from its two providers and the bundled
// reference tables.
func NewBuilder(fiat fiatrates.API, coins coingecko.API, tables *refdata.Tables, logger *slog.Logger) *Builder {
	return &Builder{fiat: fiat, coins: coins, tables: tables, logger: logger}
}

// Build fetches both legs concurrently and returns the merged catalog:
// fiat entries sorted by code, then crypto entries in market-cap order.
// A failed leg degrades to its bundled fallback set, so Build never
// fails; live reports whether both legs came from their providers, so a
// degraded catalog never displaces a stored snapshot.
func (b *Builder) Build(ctx context.Context) (cat *domain.Catalog, live bool) {
	var (
		fiatEntries, cryptoEntries []domain.CurrencyEntry
		fiatLive, cryptoLive       bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fiatEntries, fiatLive = b.buildFiatLeg(gctx)
		return nil
	})
	g.Go(func() error {
		cryptoEntries, cryptoLive = b.buildCryptoLeg(gctx)
		return nil
	})
	// Both legs degrade instead of failing, so Wait cannot error.
	_ = g.Wait()

	entries := make([]domain.CurrencyEntry, 0, len(fiatEntries)+len(cryptoEntries))
	entries = append(entries, fiatEntries...)
	entries = append(entries, cryptoEntries...)

	live = fiatLive && cryptoLive
	b.logger.Info("catalog built", "fiat", len(fiatEntries), "crypto", len(cryptoEntries), "live", live)
	return domain.NewCatalog(entries), live
}

func (b *Builder) buildFiatLeg(ctx context.Context) ([]domain.CurrencyEntry, bool) {
	rates, err := b.fiat.Latest(ctx, catalogBase)
	if err != nil {
		b.logger.Warn("fiat catalog leg degraded to fallback set", "error", err)
		return b.fiatEntries(fallbackFiatCodes), false
	}

	// The base does not appear among its own quotes, so USD is added by
	// hand. A set keeps mirrors that do include it from duplicating it.
	seen := map[string]struct{}{catalogBase: {}}
	codes := []string{catalogBase}
	for code := range rates {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return b.fiatEntries(codes), true
}

func (b *Builder) fiatEntries(codes []string) []domain.CurrencyEntry {
	entries := make([]domain.CurrencyEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, domain.CurrencyEntry{
			Code: code,
			Name: b.tables.DisplayName(code),
			Kind: domain.Fiat,
		})
	}
	return entries
}

func (b *Builder) buildCryptoLeg(ctx context.Context) ([]domain.CurrencyEntry, bool) {
	markets, err := b.coins.TopMarkets(ctx, strings.ToLower(catalogBase), topCoinCount)
	if err != nil {
		b.logger.Warn("crypto catalog leg degraded to fallback set", "error", err)
		return b.tables.FallbackCoinEntries(), false
	}

	entries := make([]domain.CurrencyEntry, 0, len(markets))
	for _, m := range markets {
		entries = append(entries, domain.CurrencyEntry{
			Code:   strings.ToUpper(m.Symbol),
			Name:   m.Name,
			Kind:   domain.Crypto,
			CoinID: m.ID,
		})
	}
	return entries, true
}
