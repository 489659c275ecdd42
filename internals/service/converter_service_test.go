package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"coinvert/internals/adapter/coingecko"
	"coinvert/internals/catalog"
	"coinvert/internals/core/domain"
	"coinvert/internals/history"

	"github.com/stretchr/testify/assert"
)

// --- Mock Providers ---

type MockFiatAPI struct {
	Tables map[string]map[string]float64
	Err    error
	Calls  int
}

func (m *MockFiatAPI) Latest(ctx context.Context, base string) (map[string]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	table, ok := m.Tables[base]
	if !ok {
		return nil, errors.New("no table for base " + base)
	}
	return table, nil
}

type MockCoinsAPI struct {
	Prices     map[string]float64
	PriceErr   error
	PriceCalls int
	LastIDs    []string
}

func (m *MockCoinsAPI) SimplePrice(ctx context.Context, ids []string, quote string) (map[string]float64, error) {
	m.PriceCalls++
	m.LastIDs = ids
	if m.PriceErr != nil {
		return nil, m.PriceErr
	}
	prices := make(map[string]float64)
	for _, id := range ids {
		if p, ok := m.Prices[id]; ok {
			prices[id] = p
		}
	}
	return prices, nil
}
func (m *MockCoinsAPI) TopMarkets(ctx context.Context, quote string, count int) ([]coingecko.Market, error) {
	return nil, errors.New("not used in service tests")
}
func (m *MockCoinsAPI) MarketChart(ctx context.Context, id, quote string, days int) ([]coingecko.PricePoint, error) {
	return nil, errors.New("not used in service tests")
}

// --- Fixtures ---

var (
	selUSD = domain.Selection{Code: "USD", Kind: domain.Fiat}
	selEUR = domain.Selection{Code: "EUR", Kind: domain.Fiat}
	selBTC = domain.Selection{Code: "BTC", Kind: domain.Crypto, CoinID: "bitcoin"}
	selETH = domain.Selection{Code: "ETH", Kind: domain.Crypto, CoinID: "ethereum"}
)

func fixtureHolder() *catalog.Holder {
	return catalog.NewHolder(domain.NewCatalog([]domain.CurrencyEntry{
		{Code: "USD", Name: "US Dollar", Kind: domain.Fiat},
		{Code: "EUR", Name: "Euro", Kind: domain.Fiat},
		{Code: "GBP", Name: "British Pound", Kind: domain.Fiat},
		{Code: "BTC", Name: "Bitcoin", Kind: domain.Crypto, CoinID: "bitcoin"},
		{Code: "ETH", Name: "Ethereum", Kind: domain.Crypto, CoinID: "ethereum"},
	}))
}

func newTestService(fiat *MockFiatAPI, coins *MockCoinsAPI) ConverterService {
	charts := history.New(coins, fiat, slog.Default())
	popular := []string{"USD", "EUR", "BTC", "ETH"}
	return NewConverterService(fixtureHolder(), fiat, coins, charts, popular, slog.Default())
}

// --- Tests ---

func TestConvert_FiatToFiat(t *testing.T) {
	fiat := &MockFiatAPI{Tables: map[string]map[string]float64{
		"USD": {"EUR": 0.9},
	}}
	svc := newTestService(fiat, &MockCoinsAPI{})

	res, err := svc.Convert(context.Background(), domain.ConversionRequest{
		From: selUSD, To: selEUR, Amount: 100,
	})

	assert.NoError(t, err)
	assert.Equal(t, 90.0, res.AmountOut)
	assert.Equal(t, 0.9, res.Rate)
	assert.Equal(t, "USD", res.CurrencyIn)
	assert.Equal(t, "EUR", res.CurrencyOut)
	assert.NotEmpty(t, res.ID)
	assert.False(t, res.At.IsZero())
}

func TestConvert_CryptoToUSDShortcut(t *testing.T) {
	fiat := &MockFiatAPI{}
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 60000}}
	svc := newTestService(fiat, coins)

	res, err := svc.Convert(context.Background(), domain.ConversionRequest{
		From: selBTC, To: selUSD, Amount: 2,
	})

	assert.NoError(t, err)
	assert.Equal(t, 60000.0, res.Rate)
	assert.Equal(t, 120000.0, res.AmountOut)
	// USD target needs no fiat table at all.
	assert.Equal(t, 0, fiat.Calls)
}

func TestResolve_CryptoToNonUSDFiat(t *testing.T) {
	fiat := &MockFiatAPI{Tables: map[string]map[string]float64{
		"USD": {"EUR": 0.9},
	}}
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 60000}}
	svc := newTestService(fiat, coins)

	rate, err := svc.Resolve(context.Background(), selBTC, selEUR)

	assert.NoError(t, err)
	assert.InDelta(t, 54000.0, rate, 1e-9)
}

func TestResolve_USDToCryptoShortcut(t *testing.T) {
	fiat := &MockFiatAPI{}
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 60000}}
	svc := newTestService(fiat, coins)

	rate, err := svc.Resolve(context.Background(), selUSD, selBTC)

	assert.NoError(t, err)
	assert.InDelta(t, 1.0/60000.0, rate, 1e-12)
	assert.Equal(t, 0, fiat.Calls)
}

func TestResolve_NonUSDFiatToCrypto(t *testing.T) {
	fiat := &MockFiatAPI{Tables: map[string]map[string]float64{
		"EUR": {"USD": 1.1},
	}}
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 60000}}
	svc := newTestService(fiat, coins)

	rate, err := svc.Resolve(context.Background(), selEUR, selBTC)

	assert.NoError(t, err)
	assert.InDelta(t, 1.1/60000.0, rate, 1e-12)
	// The USD quote comes from the source currency's own table.
	assert.Equal(t, 1, fiat.Calls)
}

func TestResolve_CryptoToCryptoBatchesOneCall(t *testing.T) {
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 60000, "ethereum": 3000}}
	svc := newTestService(&MockFiatAPI{}, coins)

	rate, err := svc.Resolve(context.Background(), selETH, selBTC)

	assert.NoError(t, err)
	assert.InDelta(t, 0.05, rate, 1e-12)
	assert.Equal(t, 1, coins.PriceCalls)
	assert.Equal(t, []string{"ethereum", "bitcoin"}, coins.LastIDs)
}

func TestResolve_FiatFiatReciprocal(t *testing.T) {
	fiat := &MockFiatAPI{Tables: map[string]map[string]float64{
		"USD": {"EUR": 0.9},
		"EUR": {"USD": 1.0 / 0.9},
	}}
	svc := newTestService(fiat, &MockCoinsAPI{})

	forward, err := svc.Resolve(context.Background(), selUSD, selEUR)
	assert.NoError(t, err)
	backward, err := svc.Resolve(context.Background(), selEUR, selUSD)
	assert.NoError(t, err)

	assert.InEpsilon(t, 1.0, forward*backward, 1e-9)
}

func TestResolve_CryptoCryptoReciprocal(t *testing.T) {
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 61234.56, "ethereum": 2987.65}}
	svc := newTestService(&MockFiatAPI{}, coins)

	forward, err := svc.Resolve(context.Background(), selETH, selBTC)
	assert.NoError(t, err)
	backward, err := svc.Resolve(context.Background(), selBTC, selETH)
	assert.NoError(t, err)

	assert.InEpsilon(t, 1.0, forward*backward, 1e-9)
}

func TestConvert_SameCurrencyRejectedBeforeNetwork(t *testing.T) {
	fiat := &MockFiatAPI{Tables: map[string]map[string]float64{"USD": {"EUR": 0.9}}}
	coins := &MockCoinsAPI{Prices: map[string]float64{"bitcoin": 60000}}
	svc := newTestService(fiat, coins)

	_, err := svc.Convert(context.Background(), domain.ConversionRequest{
		From: selUSD, To: selUSD, Amount: 10,
	})

	assert.ErrorIs(t, err, ErrSameCurrency)
	assert.Equal(t, 0, fiat.Calls)
	assert.Equal(t, 0, coins.PriceCalls)
}

func TestConvert_UnconfirmedSelectionRejected(t *testing.T) {
	fiat := &MockFiatAPI{}
	svc := newTestService(fiat, &MockCoinsAPI{})

	_, err := svc.Convert(context.Background(), domain.ConversionRequest{
		From: domain.Selection{}, To: selEUR, Amount: 10,
	})

	assert.ErrorIs(t, err, ErrSelectionIncomplete)
	assert.Equal(t, 0, fiat.Calls)
}

func TestConvert_NonPositiveAmountRejected(t *testing.T) {
	fiat := &MockFiatAPI{}
	svc := newTestService(fiat, &MockCoinsAPI{})

	for _, amount := range []float64{0, -5} {
		_, err := svc.Convert(context.Background(), domain.ConversionRequest{
			From: selUSD, To: selEUR, Amount: amount,
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Equal(t, 0, fiat.Calls)
}

func TestConvert_ProviderFailureCollapsesToQuoteUnavailable(t *testing.T) {
	fiat := &MockFiatAPI{Err: errors.New("connection refused")}
	svc := newTestService(fiat, &MockCoinsAPI{})

	_, err := svc.Convert(context.Background(), domain.ConversionRequest{
		From: selUSD, To: selEUR, Amount: 10,
	})

	assert.ErrorIs(t, err, ErrQuoteUnavailable)
	// Exactly one attempt, no retry.
	assert.Equal(t, 1, fiat.Calls)
}

func TestResolve_MissingTableKeyIsQuoteFailure(t *testing.T) {
	fiat := &MockFiatAPI{Tables: map[string]map[string]float64{
		"USD": {"GBP": 0.78},
	}}
	svc := newTestService(fiat, &MockCoinsAPI{})

	_, err := svc.Resolve(context.Background(), selUSD, selEUR)

	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestResolve_MissingPriceIsQuoteFailure(t *testing.T) {
	coins := &MockCoinsAPI{Prices: map[string]float64{"ethereum": 3000}}
	svc := newTestService(&MockFiatAPI{}, coins)

	_, err := svc.Resolve(context.Background(), selETH, selBTC)

	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestResolve_MissingCoinIDIsQuoteFailure(t *testing.T) {
	svc := newTestService(&MockFiatAPI{}, &MockCoinsAPI{})

	bare := domain.Selection{Code: "BTC", Kind: domain.Crypto}
	_, err := svc.Resolve(context.Background(), bare, selETH)

	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestSearch_EmptyQueryReturnsPopular(t *testing.T) {
	svc := newTestService(&MockFiatAPI{}, &MockCoinsAPI{})

	res := svc.Search("  ")

	var codes []string
	for _, e := range res.Fiat {
		codes = append(codes, e.Code)
	}
	for _, e := range res.Crypto {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"USD", "EUR", "BTC", "ETH"}, codes)
}

func TestSearch_QueryHitsMatcher(t *testing.T) {
	svc := newTestService(&MockFiatAPI{}, &MockCoinsAPI{})

	res := svc.Search("bit")

	assert.Empty(t, res.Fiat)
	assert.Len(t, res.Crypto, 1)
	assert.Equal(t, "BTC", res.Crypto[0].Code)
}

func TestResolveCode_CaseInsensitive(t *testing.T) {
	svc := newTestService(&MockFiatAPI{}, &MockCoinsAPI{})

	entry, err := svc.ResolveCode("btc")

	assert.NoError(t, err)
	assert.Equal(t, "BTC", entry.Code)
	assert.Equal(t, "bitcoin", entry.CoinID)
}

func TestResolveCode_Unknown(t *testing.T) {
	svc := newTestService(&MockFiatAPI{}, &MockCoinsAPI{})

	_, err := svc.ResolveCode("ZZZ")

	assert.ErrorIs(t, err, ErrCurrencyNotSupported)
}

func TestHistory_DelegatesToBuilder(t *testing.T) {
	coins := &MockCoinsAPI{PriceErr: errors.New("down")}
	svc := newTestService(&MockFiatAPI{Err: errors.New("down")}, coins)

	res := svc.History(context.Background(), selUSD, selEUR)

	// Builder degrades instead of failing, so the service never errors.
	assert.Len(t, res.Points, 30)
	assert.True(t, res.Degraded)
}
