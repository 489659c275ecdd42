package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"coinvert/internals/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestHolder_SwapReplacesSnapshot(t *testing.T) {
	first := domain.NewCatalog([]domain.CurrencyEntry{{Code: "USD", Name: "US Dollar", Kind: domain.Fiat}})
	second := domain.NewCatalog([]domain.CurrencyEntry{{Code: "EUR", Name: "Euro", Kind: domain.Fiat}})

	holder := NewHolder(first)
	assert.Same(t, first, holder.Get())

	holder.Swap(second)
	assert.Same(t, second, holder.Get())
}

func TestHolder_SwapIgnoresNil(t *testing.T) {
	first := domain.NewCatalog([]domain.CurrencyEntry{{Code: "USD", Name: "US Dollar", Kind: domain.Fiat}})
	holder := NewHolder(first)

	holder.Swap(nil)
	assert.Same(t, first, holder.Get())
}

func TestStartBackgroundRefresh_SwapsOnTickAndStops(t *testing.T) {
	fiat := &MockFiatAPI{LatestResp: map[string]float64{"EUR": 0.9}}
	coins := &MockCoinsAPI{MarketsErr: errors.New("down")}
	builder := newTestBuilder(fiat, coins)

	seed := domain.NewCatalog(nil)
	holder := NewHolder(seed)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartBackgroundRefresh(ctx, 10*time.Millisecond, builder, holder, slog.Default())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return holder.Get() != seed
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh worker did not stop on context cancel")
	}
}
