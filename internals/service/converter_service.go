package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coinvert/internals/adapter/coingecko"
	"coinvert/internals/adapter/fiatrates"
	"coinvert/internals/catalog"
	"coinvert/internals/core/domain"
	"coinvert/internals/history"
	"coinvert/internals/search"

	"github.com/google/uuid"
)

var (
	ErrCurrencyNotSupported = errors.New("currency not supported")
	ErrSelectionIncomplete  = errors.New("both currencies must be selected from the list")
	ErrSameCurrency         = errors.New("source and target currencies cannot be the same")
	ErrInvalidAmount        = errors.New("invalid amount, must be positive")
	ErrQuoteUnavailable     = errors.New("quotation unavailable")
)

// ConverterService defines the business logic of the converter: catalog
// access, autocomplete, rate resolution and chart series.
type ConverterService interface {
	Catalog() *domain.Catalog
	ResolveCode(code string) (domain.CurrencyEntry, error)
	Search(query string) domain.SearchResult
	Popular() domain.SearchResult
	Resolve(ctx context.Context, from, to domain.Selection) (float64, error)
	Convert(ctx context.Context, req domain.ConversionRequest) (*domain.ConversionResult, error)
	History(ctx context.Context, from, to domain.Selection) history.Result
}

type converterServiceImpl struct {
	holder  *catalog.Holder
	fiat    fiatrates.API
	coins   coingecko.API
	charts  *history.Builder
	popular []string
	logger  *slog.Logger
}

// NewConverterService creates a new ConverterService over the given
// catalog holder, providers and popular-codes list.
func NewConverterService(holder *catalog.Holder, fiat fiatrates.API, coins coingecko.API, charts *history.Builder, popular []string, logger *slog.Logger) ConverterService {
	return &converterServiceImpl{
		holder:  holder,
		fiat:    fiat,
		coins:   coins,
		charts:  charts,
		popular: popular,
		logger:  logger,
	}
}

func (s *converterServiceImpl) Catalog() *domain.Catalog {
	return s.holder.Get()
}

// ResolveCode maps a bare currency code onto its catalog entry.
func (s *converterServiceImpl) ResolveCode(code string) (domain.CurrencyEntry, error) {
	entry, ok := s.holder.Get().Lookup(code)
	if !ok {
		return domain.CurrencyEntry{}, fmt.Errorf("%w: %s", ErrCurrencyNotSupported, strings.ToUpper(strings.TrimSpace(code)))
	}
	return entry, nil
}

// Search routes empty queries to the popular set and everything else
// through the substring matcher.
func (s *converterServiceImpl) Search(query string) domain.SearchResult {
	if strings.TrimSpace(query) == "" {
		return s.Popular()
	}
	return search.Match(query, s.holder.Get())
}

func (s *converterServiceImpl) Popular() domain.SearchResult {
	return search.Popular(s.holder.Get(), s.popular)
}

// Resolve returns the multiplicative rate for the pair, dispatching on
// the four kind combinations. Every provider-side failure collapses into
// ErrQuoteUnavailable; there is no retry and no partial result.
func (s *converterServiceImpl) Resolve(ctx context.Context, from, to domain.Selection) (float64, error) {
	switch {
	case from.Kind == domain.Fiat && to.Kind == domain.Fiat:
		return s.fiatToFiat(ctx, from, to)
	case from.Kind == domain.Crypto && to.Kind == domain.Crypto:
		return s.cryptoToCrypto(ctx, from, to)
	case from.Kind == domain.Fiat && to.Kind == domain.Crypto:
		return s.fiatToCrypto(ctx, from, to)
	case from.Kind == domain.Crypto && to.Kind == domain.Fiat:
		return s.cryptoToFiat(ctx, from, to)
	default:
		return 0, fmt.Errorf("%w: pair %s/%s has unknown kinds", ErrQuoteUnavailable, from.Code, to.Code)
	}
}

// Convert validates the request, resolves the rate and assembles the
// result. Validation failures surface before any provider call.
func (s *converterServiceImpl) Convert(ctx context.Context, req domain.ConversionRequest) (*domain.ConversionResult, error) {
	if !req.From.Confirmed() || !req.To.Confirmed() {
		return nil, ErrSelectionIncomplete
	}
	if req.From.Code == req.To.Code {
		return nil, ErrSameCurrency
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	rate, err := s.Resolve(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}

	result := &domain.ConversionResult{
		ID:          uuid.NewString(),
		CurrencyIn:  req.From.Code,
		CurrencyOut: req.To.Code,
		AmountIn:    req.Amount,
		AmountOut:   req.Amount * rate,
		Rate:        rate,
		At:          time.Now().UTC(),
	}
	s.logger.Info("conversion resolved",
		"id", result.ID, "from", result.CurrencyIn, "to", result.CurrencyOut, "rate", rate)
	return result, nil
}

// History builds the 30-day chart series for the pair. It never fails;
// degraded results carry the flag instead.
func (s *converterServiceImpl) History(ctx context.Context, from, to domain.Selection) history.Result {
	return s.charts.Build(ctx, from, to)
}

func (s *converterServiceImpl) fiatToFiat(ctx context.Context, from, to domain.Selection) (float64, error) {
	table, err := s.fiat.Latest(ctx, from.Code)
	if err != nil {
		return 0, s.quoteFailure(from, to, err)
	}
	rate, ok := table[to.Code]
	if !ok {
		return 0, s.quoteFailure(from, to, fmt.Errorf("no %s quote in %s table", to.Code, from.Code))
	}
	return rate, nil
}

func (s *converterServiceImpl) cryptoToCrypto(ctx context.Context, from, to domain.Selection) (float64, error) {
	if from.CoinID == "" || to.CoinID == "" {
		return 0, s.quoteFailure(from, to, errors.New("selection carries no coin id"))
	}

	// One batched request covers both legs.
	prices, err := s.coins.SimplePrice(ctx, []string{from.CoinID, to.CoinID}, "usd")
	if err != nil {
		return 0, s.quoteFailure(from, to, err)
	}
	fromPrice, okFrom := prices[from.CoinID]
	toPrice, okTo := prices[to.CoinID]
	if !okFrom || !okTo || toPrice == 0 {
		return 0, s.quoteFailure(from, to, errors.New("price missing for one leg"))
	}
	return fromPrice / toPrice, nil
}

func (s *converterServiceImpl) fiatToCrypto(ctx context.Context, from, to domain.Selection) (float64, error) {
	price, err := s.coinPrice(ctx, to)
	if err != nil {
		return 0, s.quoteFailure(from, to, err)
	}

	if from.Code == usdCode {
		return 1 / price, nil
	}

	// Non-USD source: its USD quote comes from its own table.
	table, err := s.fiat.Latest(ctx, from.Code)
	if err != nil {
		return 0, s.quoteFailure(from, to, err)
	}
	usdRate, ok := table[usdCode]
	if !ok {
		return 0, s.quoteFailure(from, to, fmt.Errorf("no USD quote in %s table", from.Code))
	}
	return usdRate / price, nil
}

func (s *converterServiceImpl) cryptoToFiat(ctx context.Context, from, to domain.Selection) (float64, error) {
	price, err := s.coinPrice(ctx, from)
	if err != nil {
		return 0, s.quoteFailure(from, to, err)
	}

	if to.Code == usdCode {
		return price, nil
	}

	table, err := s.fiat.Latest(ctx, usdCode)
	if err != nil {
		return 0, s.quoteFailure(from, to, err)
	}
	fiatRate, ok := table[to.Code]
	if !ok {
		return 0, s.quoteFailure(from, to, fmt.Errorf("no %s quote in USD table", to.Code))
	}
	return price * fiatRate, nil
}

const usdCode = "USD"

func (s *converterServiceImpl) coinPrice(ctx context.Context, sel domain.Selection) (float64, error) {
	if sel.CoinID == "" {
		return 0, errors.New("selection carries no coin id")
	}
	prices, err := s.coins.SimplePrice(ctx, []string{sel.CoinID}, "usd")
	if err != nil {
		return 0, err
	}
	price, ok := prices[sel.CoinID]
	if !ok || price == 0 {
		return 0, fmt.Errorf("no USD price for %s", sel.CoinID)
	}
	return price, nil
}

func (s *converterServiceImpl) quoteFailure(from, to domain.Selection, cause error) error {
	s.logger.Warn("quote failed", "from", from.Code, "to", to.Code, "error", cause)
	return fmt.Errorf("%w: %s/%s", ErrQuoteUnavailable, from.Code, to.Code)
}
