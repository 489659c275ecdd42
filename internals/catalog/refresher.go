package catalog

import (
	"context"
	"log/slog"
	"time"

	"coinvert/internals/core/domain"
)

// SnapshotStore persists the last fully live catalog so instances can
// warm-start, and reuse each other's refreshes, while a provider is down.
type SnapshotStore interface {
	Load(ctx context.Context) (*domain.Catalog, error)
	Save(ctx context.Context, cat *domain.Catalog) error
}

// RefreshLock lets exactly one instance of a fleet run a refresh cycle;
// the others pick up its stored snapshot instead of duplicating provider
// calls.
type RefreshLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// StartBackgroundRefresh rebuilds the catalog on every tick and swaps the
// holder's snapshot. The initial build is the caller's job, so the server
// starts with a catalog before this worker runs. Blocks until ctx is done.
func StartBackgroundRefresh(ctx context.Context, interval time.Duration, builder *Builder, holder *Holder, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("catalog refresh worker started", "interval", interval)

	for {
		select {
		case <-ticker.C:
			logger.Info("catalog refresh triggered")
			cat, _ := builder.Build(ctx)
			holder.Swap(cat)
		case <-ctx.Done():
			logger.Info("catalog refresh worker stopping")
			return
		}
	}
}

// StartBackgroundRefreshWithLock is the multi-instance variant: each tick
// the lock elects one refresher, which stores its result for the rest of
// the fleet. Blocks until ctx is done.
func StartBackgroundRefreshWithLock(ctx context.Context, interval time.Duration, builder *Builder, holder *Holder, store SnapshotStore, lock RefreshLock, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("catalog refresh worker started", "interval", interval, "locked", true)

	for {
		select {
		case <-ticker.C:
			logger.Info("catalog refresh triggered")
			refreshWithLock(ctx, builder, holder, store, lock, logger)
		case <-ctx.Done():
			logger.Info("catalog refresh worker stopping")
			return
		}
	}
}

func refreshWithLock(ctx context.Context, builder *Builder, holder *Holder, store SnapshotStore, lock RefreshLock, logger *slog.Logger) {
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		// Redis being down must not stop refreshes, only coordination.
		logger.Warn("refresh lock unavailable, refreshing locally", "error", err)
		cat, _ := builder.Build(ctx)
		holder.Swap(cat)
		return
	}
	if !acquired {
		// Another instance is refreshing; pick up its result.
		snap, err := store.Load(ctx)
		if err != nil {
			logger.Warn("refresh lock held elsewhere and no snapshot to reuse", "error", err)
			return
		}
		holder.Swap(snap)
		return
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			logger.Warn("releasing refresh lock", "error", err)
		}
	}()

	cat, live := builder.Build(ctx)
	holder.Swap(cat)
	if !live {
		return
	}
	if err := store.Save(ctx, cat); err != nil {
		logger.Warn("storing catalog snapshot", "error", err)
	}
}
