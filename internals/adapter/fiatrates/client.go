// Package fiatrates fetches USD-based fiat exchange tables from an
// open.er-api.com style endpoint.
package fiatrates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"coinvert/internals/adapter/rest"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public no-key endpoint. The base currency is part
// of the path.
const DefaultBaseURL = "https://open.er-api.com/v6/latest"

// ErrNoRates is returned when the response parses but carries no usable
// rate table.
var ErrNoRates = errors.New("rate table missing from response")

// API exposes the latest-rates lookup the catalog and converter need.
type API interface {
	Latest(ctx context.Context, base string) (map[string]float64, error)
}

type client struct {
	rest    *rest.Client
	baseURL string
	logger  *slog.Logger
}

// New returns a fiat rates client rooted at baseURL.
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

// Latest fetches the full rate table quoted against base. Mirror hosts
// name the table either "rates" or "conversion_rates"; both are accepted.
func (c *client) Latest(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	c.logger.Debug("fetching fiat rate table", "base", base)

	body, err := c.rest.Get(ctx, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching fiat rates for %s: %w", base, err)
	}

	if result := gjson.GetBytes(body, "result"); result.Exists() && result.String() != "success" {
		return nil, fmt.Errorf("%w: provider result %q", ErrNoRates, result.String())
	}

	table := gjson.GetBytes(body, "rates")
	if !table.Exists() {
		table = gjson.GetBytes(body, "conversion_rates")
	}
	if !table.IsObject() {
		return nil, ErrNoRates
	}

	rates := make(map[string]float64)
	table.ForEach(func(key, value gjson.Result) bool {
		code := strings.ToUpper(strings.TrimSpace(key.String()))
		if code != "" {
			rates[code] = value.Float()
		}
		return true
	})

	if len(rates) == 0 {
		return nil, ErrNoRates
	}

	c.logger.Debug("fetched fiat rate table", "base", base, "currencies", len(rates))
	return rates, nil
}
