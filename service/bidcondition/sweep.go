package bidcondition

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/bidmanager"
)

const (
	defaultSweepInterval     = 6 * time.Second
	defaultReconcileInterval = 120 * time.Second
)

// Canceler withdraws a bid by local id.
type Canceler interface {
	CancelBid(ctx context.Context, bidID int64) bidmanager.BidResult
}

// Reconciler trues the local bid book up against the marketplace.
type Reconciler interface {
	RemoveInvalidBids(ctx context.Context) error
}

// Store is the read surface the sweep evaluates conditions against.
type Store interface {
	GetActiveBidOrders(ctx context.Context) ([]model.BidOrder, error)
	GetCurrentFloorPrice(ctx context.Context, collectionID string) (decimal.Decimal, error)
}

// Config tunes the sweep cadences.
type Config struct {
	SweepIntervalMs     int64 `toml:"sweep_interval_ms" mapstructure:"sweep_interval_ms" json:"sweep_interval_ms"`
	ReconcileIntervalMs int64 `toml:"reconcile_interval_ms" mapstructure:"reconcile_interval_ms" json:"reconcile_interval_ms"`
}

func (c Config) sweepInterval() time.Duration {
	if c.SweepIntervalMs <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}

func (c Config) reconcileInterval() time.Duration {
	if c.ReconcileIntervalMs <= 0 {
		return defaultReconcileInterval
	}
	return time.Duration(c.ReconcileIntervalMs) * time.Millisecond
}

// Sweeper periodically checks every ACTIVE bid's exit condition and
// cancels the ones whose collection floor has fallen below the bid's
// configured minimum. It also drives the slower reconciliation cadence.
type Sweeper struct {
	cfg       Config
	canceler  Canceler
	reconcile Reconciler
	store     Store

	sweeping atomic.Bool
}

func New(cfg Config, canceler Canceler, reconcile Reconciler, store Store) *Sweeper {
	return &Sweeper{cfg: cfg, canceler: canceler, reconcile: reconcile, store: store}
}

// Start launches both tickers. They stop when ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	threading.GoSafe(func() {
		s.runSweep(ctx)
	})
	threading.GoSafe(func() {
		s.runReconcile(ctx)
	})
}

func (s *Sweeper) runSweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.sweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) runReconcile(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.reconcileInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.reconcile.RemoveInvalidBids(ctx); err != nil {
				xzap.WithContext(ctx).Error("bid reconciliation failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce evaluates the exit condition for every ACTIVE bid. A sweep
// already in flight absorbs the tick.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer s.sweeping.Store(false)

	bids, err := s.store.GetActiveBidOrders(ctx)
	if err != nil {
		xzap.WithContext(ctx).Error("failed on load active bids for sweep", zap.Error(err))
		return
	}

	// One floor lookup per collection per sweep.
	floors := make(map[string]decimal.Decimal)
	for _, bid := range bids {
		floor, ok := floors[bid.CollectionID]
		if !ok {
			floor, err = s.store.GetCurrentFloorPrice(ctx, bid.CollectionID)
			if err != nil {
				xzap.WithContext(ctx).Error("failed on fetch floor price for sweep",
					zap.String("collection_id", bid.CollectionID), zap.Error(err))
				continue
			}
			floors[bid.CollectionID] = floor
		}

		if !triggered(floor, bid.MinFloorPrice) {
			continue
		}

		xzap.WithContext(ctx).Info("bid exit condition met",
			zap.Int64("bid_id", bid.ID),
			zap.String("collection_id", bid.CollectionID),
			zap.String("floor_price", floor.String()),
			zap.String("min_floor_price", bid.MinFloorPrice.String()))

		if res := s.canceler.CancelBid(ctx, bid.ID); !res.Success {
			xzap.WithContext(ctx).Error("failed on cancel triggered bid",
				zap.Int64("bid_id", bid.ID),
				zap.String("error", res.Error))
		}
	}
}

// triggered compares floor and threshold in integer wei so differing
// decimal scales cannot mask a breach.
func triggered(floor, minFloor decimal.Decimal) bool {
	return floor.Shift(18).Truncate(0).LessThan(minFloor.Shift(18).Truncate(0))
}
