package collectioncrawler

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

const (
	defaultTopCount        = 100
	defaultRefreshInterval = time.Hour
)

// Config tunes the collection discovery crawl.
type Config struct {
	TopCount          int   `toml:"top_count" mapstructure:"top_count" json:"top_count"`
	RefreshIntervalMs int64 `toml:"refresh_interval_ms" mapstructure:"refresh_interval_ms" json:"refresh_interval_ms"`
}

func (c Config) topCount() int {
	if c.TopCount <= 0 {
		return defaultTopCount
	}
	return c.TopCount
}

func (c Config) refreshInterval() time.Duration {
	if c.RefreshIntervalMs <= 0 {
		return defaultRefreshInterval
	}
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// MarketAPI is the slice of the marketplace client the crawler needs.
type MarketAPI interface {
	GetTopCollections(ctx context.Context, count int) ([]marketplace.Collection, error)
}

// Store persists discovered collections.
type Store interface {
	UpsertCollection(ctx context.Context, collection model.Collection) error
}

// Crawler seeds and refreshes the tracked collection set from the
// marketplace's volume ranking, so the update and sweep loops have rows
// to work on from the first boot.
type Crawler struct {
	cfg   Config
	api   MarketAPI
	store Store
}

func New(cfg Config, api MarketAPI, store Store) *Crawler {
	return &Crawler{cfg: cfg, api: api, store: store}
}

// Sync pulls the current top collections and upserts them. Entries
// without a contract address cannot be traded against and are skipped.
func (c *Crawler) Sync(ctx context.Context) error {
	collections, err := c.api.GetTopCollections(ctx, c.cfg.topCount())
	if err != nil {
		return errors.Wrap(err, "failed on fetch top collections")
	}

	stored := 0
	for _, collection := range collections {
		if collection.ContractAddress == "" {
			continue
		}

		floor := decimal.Zero
		if collection.FloorPrice != nil {
			floor = collection.FloorPrice.Amount
		}
		row := model.Collection{
			CollectionID:      strings.ToLower(collection.ContractAddress),
			Name:              collection.Name,
			ContractAddress:   collection.ContractAddress,
			CurrentFloorPrice: floor,
		}
		if err := c.store.UpsertCollection(ctx, row); err != nil {
			return errors.Wrap(err, "failed on upsert collection")
		}
		stored++
	}

	xzap.WithContext(ctx).Info("collection crawl complete",
		zap.Int("fetched", len(collections)), zap.Int("stored", stored))
	return nil
}

// Start runs one crawl immediately and then refreshes on the configured
// interval until the context is canceled.
func (c *Crawler) Start(ctx context.Context) {
	threading.GoSafe(func() {
		if err := c.Sync(ctx); err != nil {
			xzap.WithContext(ctx).Error("collection crawl failed", zap.Error(err))
		}

		ticker := time.NewTicker(c.cfg.refreshInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Sync(ctx); err != nil {
					xzap.WithContext(ctx).Error("collection crawl failed", zap.Error(err))
				}
			}
		}
	})
}
