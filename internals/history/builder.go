// Package history builds the 30-day chart series for a resolved pair.
// Crypto legs get real provider data; fiat-fiat pairs get a synthetic
// series around the live rate; every failure degrades to a flat
// placeholder so the chart always has something to draw.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"coinvert/internals/adapter/coingecko"
	"coinvert/internals/adapter/fiatrates"
	"coinvert/internals/core/domain"
)

const (
	// Days is the fixed series length; every Result carries exactly
	// this many points, oldest first.
	Days = 30

	dateFmt = "2006-01-02"

	syntheticJitter   = 0.02
	placeholderJitter = 0.01
)

var (
	errMissingCoinID = errors.New("crypto selection carries no coin id")
	errZeroPrice     = errors.New("provider returned a zero price")
)

// Result is a built series plus how trustworthy it is. Simulated values
// are synthesized rather than fetched; Degraded means a provider failure
// forced the flat placeholder and surfaces should mark the chart.
type Result struct {
	Points    domain.RateSeries `json:"points"`
	Simulated bool              `json:"simulated"`
	Degraded  bool              `json:"degraded"`
}

// Builder constructs chart series from the pricing provider, the fiat
// table and, when all else fails, thin air.
type Builder struct {
	coins  coingecko.API
	fiat   fiatrates.API
	logger *slog.Logger

	now    func() time.Time
	jitter func() float64
}

// New returns a Builder over the two providers.
func New(coins coingecko.API, fiat fiatrates.API, logger *slog.Logger) *Builder {
	return &Builder{
		coins:  coins,
		fiat:   fiat,
		logger: logger,
		now:    time.Now,
		jitter: rand.Float64,
	}
}

// Build returns the trailing-30-day series for the pair, oldest first.
// It never fails: any provider trouble is logged and degraded to the
// placeholder series.
func (b *Builder) Build(ctx context.Context, from, to domain.Selection) Result {
	switch {
	case from.Kind == domain.Crypto:
		// Covers crypto→crypto too: the chart tracks the source asset's
		// USD series, matching the orientation of the live rate.
		points, err := b.cryptoSeries(ctx, from.CoinID, false)
		if err != nil {
			return b.placeholder(from, to, err)
		}
		return Result{Points: points}
	case to.Kind == domain.Crypto:
		// Fiat source, crypto target: invert so the series stays
		// "source units per target unit".
		points, err := b.cryptoSeries(ctx, to.CoinID, true)
		if err != nil {
			return b.placeholder(from, to, err)
		}
		return Result{Points: points}
	default:
		points, err := b.syntheticSeries(ctx, from.Code, to.Code)
		if err != nil {
			return b.placeholder(from, to, err)
		}
		return Result{Points: points, Simulated: true}
	}
}

func (b *Builder) cryptoSeries(ctx context.Context, coinID string, invert bool) (domain.RateSeries, error) {
	if coinID == "" {
		return nil, errMissingCoinID
	}

	points, err := b.coins.MarketChart(ctx, coinID, "usd", Days)
	if err != nil {
		return nil, err
	}
	if len(points) < Days {
		return nil, fmt.Errorf("chart for %s has %d points, want %d", coinID, len(points), Days)
	}
	// A daily window often includes a partial point for today; keep the
	// most recent 30.
	points = points[len(points)-Days:]

	series := make(domain.RateSeries, 0, Days)
	for _, p := range points {
		value := p.Price
		if invert {
			if value == 0 {
				return nil, errZeroPrice
			}
			value = 1 / value
		}
		series = append(series, domain.RatePoint{
			Label: p.Time.Format(dateFmt),
			Value: value,
		})
	}
	return series, nil
}

// syntheticSeries fakes a fiat-fiat history: no provider offers one
// without a key, so the live rate is perturbed ±2% per day purely for
// visual texture.
func (b *Builder) syntheticSeries(ctx context.Context, fromCode, toCode string) (domain.RateSeries, error) {
	table, err := b.fiat.Latest(ctx, fromCode)
	if err != nil {
		return nil, err
	}
	baseline, ok := table[toCode]
	if !ok {
		return nil, fmt.Errorf("no %s quote in %s table", toCode, fromCode)
	}

	return b.perturbedSeries(baseline, syntheticJitter), nil
}

func (b *Builder) placeholder(from, to domain.Selection, cause error) Result {
	b.logger.Warn("chart series degraded to placeholder",
		"from", from.Code, "to", to.Code, "error", cause)
	return Result{
		Points:    b.perturbedSeries(1.0, placeholderJitter),
		Simulated: true,
		Degraded:  true,
	}
}

func (b *Builder) perturbedSeries(baseline, jitter float64) domain.RateSeries {
	today := b.now().UTC()
	series := make(domain.RateSeries, 0, Days)
	for i := 0; i < Days; i++ {
		day := today.AddDate(0, 0, -(Days - 1 - i))
		value := baseline * (1 + jitter*(b.jitter()*2-1))
		series = append(series, domain.RatePoint{
			Label: day.Format(dateFmt),
			Value: value,
		})
	}
	return series
}
