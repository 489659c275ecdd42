// Package coingecko talks to the CoinGecko v3 REST API for coin rankings,
// spot prices and daily price history.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinvert/internals/adapter/rest"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public no-key API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// ErrMalformed is returned when a response does not carry the expected
// shape.
var ErrMalformed = errors.New("malformed provider response")

// Market is one row of the market-cap ranking.
type Market struct {
	ID     string
	Symbol string
	Name   string
}

// PricePoint is one sample of a daily price series.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// API exposes the three endpoints the catalog, converter and chart need.
type API interface {
	TopMarkets(ctx context.Context, quote string, count int) ([]Market, error)
	SimplePrice(ctx context.Context, ids []string, quote string) (map[string]float64, error)
	MarketChart(ctx context.Context, id, quote string, days int) ([]PricePoint, error)
}

type client struct {
	rest    *rest.Client
	baseURL string
	logger  *slog.Logger
}

// New returns a CoinGecko client rooted at baseURL.
func New(restClient *rest.Client, baseURL string, logger *slog.Logger) API {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &client{
		rest:    restClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// TopMarkets returns up to count assets ordered by market cap descending.
func (c *client) TopMarkets(ctx context.Context, quote string, count int) ([]Market, error) {
	params := url.Values{}
	params.Add("vs_currency", strings.ToLower(quote))
	params.Add("order", "market_cap_desc")
	params.Add("per_page", strconv.Itoa(count))
	params.Add("page", "1")
	params.Add("sparkline", "false")

	body, err := c.rest.Get(ctx, c.baseURL+"/coins/markets", params)
	if err != nil {
		return nil, fmt.Errorf("fetching coin markets: %w", err)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: markets payload is not an array", ErrMalformed)
	}

	markets := make([]Market, 0, count)
	parsed.ForEach(func(_, row gjson.Result) bool {
		m := Market{
			ID:     row.Get("id").String(),
			Symbol: row.Get("symbol").String(),
			Name:   row.Get("name").String(),
		}
		if m.ID != "" && m.Symbol != "" {
			markets = append(markets, m)
		}
		return len(markets) < count
	})

	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: markets payload is empty", ErrMalformed)
	}

	c.logger.Debug("fetched coin markets", "count", len(markets))
	return markets, nil
}

// SimplePrice returns spot prices for the given coin ids quoted in quote.
// Ids the provider does not know are simply absent from the result map.
func (c *client) SimplePrice(ctx context.Context, ids []string, quote string) (map[string]float64, error) {
	lowered := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			lowered = append(lowered, id)
		}
	}
	if len(lowered) == 0 {
		return nil, fmt.Errorf("%w: no coin ids requested", ErrMalformed)
	}

	quote = strings.ToLower(quote)
	params := url.Values{}
	params.Add("ids", strings.Join(lowered, ","))
	params.Add("vs_currencies", quote)

	body, err := c.rest.Get(ctx, c.baseURL+"/simple/price", params)
	if err != nil {
		return nil, fmt.Errorf("fetching spot prices: %w", err)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: price payload is not an object", ErrMalformed)
	}

	prices := make(map[string]float64, len(lowered))
	for _, id := range lowered {
		if value := parsed.Get(id + "." + quote); value.Exists() {
			prices[id] = value.Float()
		}
	}

	c.logger.Debug("fetched spot prices", "requested", len(lowered), "returned", len(prices))
	return prices, nil
}

// MarketChart returns the daily price series for one coin over the trailing
// days window, oldest first.
func (c *client) MarketChart(ctx context.Context, id, quote string, days int) ([]PricePoint, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("%w: empty coin id", ErrMalformed)
	}

	params := url.Values{}
	params.Add("vs_currency", strings.ToLower(quote))
	params.Add("days", strconv.Itoa(days))
	params.Add("interval", "daily")

	body, err := c.rest.Get(ctx, c.baseURL+"/coins/"+id+"/market_chart", params)
	if err != nil {
		return nil, fmt.Errorf("fetching market chart for %s: %w", id, err)
	}

	rows := gjson.GetBytes(body, "prices")
	if !rows.IsArray() {
		return nil, fmt.Errorf("%w: prices missing from chart payload", ErrMalformed)
	}

	var points []PricePoint
	rows.ForEach(func(_, pair gjson.Result) bool {
		cells := pair.Array()
		if len(cells) == 2 {
			points = append(points, PricePoint{
				Time:  time.UnixMilli(cells[0].Int()).UTC(),
				Price: cells[1].Float(),
			})
		}
		return true
	})

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: chart payload is empty", ErrMalformed)
	}

	c.logger.Debug("fetched market chart", "id", id, "points", len(points))
	return points, nil
}
