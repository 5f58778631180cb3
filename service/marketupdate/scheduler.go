package marketupdate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
)

const (
	defaultCycleInterval = 5 * time.Second
	defaultMaxRestarts   = 3
)

// Config tunes the market update cadence and recovery.
type Config struct {
	CycleIntervalMs int64 `toml:"cycle_interval_ms" mapstructure:"cycle_interval_ms" json:"cycle_interval_ms"`
	MaxRestarts     int   `toml:"max_restarts" mapstructure:"max_restarts" json:"max_restarts"`
	FloorMarginBPS  int64 `toml:"floor_margin_bps" mapstructure:"floor_margin_bps" json:"floor_margin_bps"`
}

func (c Config) cycleInterval() time.Duration {
	if c.CycleIntervalMs <= 0 {
		return defaultCycleInterval
	}
	return time.Duration(c.CycleIntervalMs) * time.Millisecond
}

func (c Config) maxRestarts() int {
	if c.MaxRestarts <= 0 {
		return defaultMaxRestarts
	}
	return c.MaxRestarts
}

// Restarter restores the automation engine after a fatal failure.
type Restarter interface {
	Restart() error
}

// Scheduler drives the recurring market update cycle: activity events,
// floor and metrics, then the bid level snapshot, per tracked collection.
// Per-collection failures are absorbed so one collection cannot starve
// the rest; only a destroyed automation engine escalates.
type Scheduler struct {
	cfg       Config
	store     Store
	events    *EventService
	bidLevels *BidLevelService
	floor     *FloorService
	engine    Restarter

	updating atomic.Bool
}

func NewScheduler(cfg Config, api MarketAPI, store Store, engine Restarter) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		events:    NewEventService(api, store),
		bidLevels: NewBidLevelService(api, store),
		floor:     NewFloorService(api, store, cfg.FloorMarginBPS),
		engine:    engine,
	}
}

// Run executes cycles back to back, keeping at least the configured
// interval between cycle starts. A fatal cycle failure triggers an
// engine restart; once the restart budget is spent (or a restart itself
// fails) Run returns the error so the caller can bring the process down
// instead of idling with dead ingestion. A canceled context returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	restarts := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		err := s.RunCycle(ctx)
		if gateway.IsFatal(err) {
			restarts++
			if restarts > s.cfg.maxRestarts() {
				return errors.Wrap(err, "market update engine restart budget spent")
			}
			xzap.WithContext(ctx).Warn("restarting automation engine",
				zap.Int("restart", restarts), zap.Error(err))
			if rerr := s.engine.Restart(); rerr != nil {
				return errors.Wrap(rerr, "failed on restart automation engine")
			}
		} else if err != nil {
			xzap.WithContext(ctx).Error("market update cycle failed", zap.Error(err))
		} else {
			restarts = 0
		}

		sleep := s.cfg.cycleInterval() - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleep):
		}
	}
}

// RunCycle runs one full pass over every tracked collection. A cycle
// already in flight absorbs the call.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	if !s.updating.CompareAndSwap(false, true) {
		return nil
	}
	defer s.updating.Store(false)

	collections, err := s.store.GetAllCollections(ctx)
	if err != nil {
		return errors.Wrap(err, "failed on load collections")
	}

	for i := range collections {
		if err := s.updateCollection(ctx, &collections[i]); err != nil {
			if gateway.IsFatal(err) {
				return err
			}
			xzap.WithContext(ctx).Error("collection update failed",
				zap.String("collection_id", collections[i].CollectionID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Scheduler) updateCollection(ctx context.Context, collection *model.Collection) error {
	if err := s.events.Process(ctx, collection); err != nil {
		return errors.Wrap(err, "failed on process activity events")
	}
	if err := s.floor.Update(ctx, collection); err != nil {
		return errors.Wrap(err, "failed on update floor")
	}
	if err := s.bidLevels.Refresh(ctx, collection); err != nil {
		return errors.Wrap(err, "failed on refresh bid levels")
	}
	return nil
}
