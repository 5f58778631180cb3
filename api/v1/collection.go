package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/service/svc"
)

type collectionItem struct {
	CollectionID      string          `json:"collection_id"`
	Name              string          `json:"name"`
	ContractAddress   string          `json:"contract_address"`
	CurrentFloorPrice decimal.Decimal `json:"current_floor_price"`
	BestBidPrice      decimal.Decimal `json:"best_bid_price"`
	BestBidDepth      int             `json:"best_bid_depth"`
	Volume24h         decimal.Decimal `json:"volume_24h"`
	Sales24h          int64           `json:"sales_24h"`
	AsksTaken24h      int64           `json:"asks_taken_24h"`
	BidsTaken24h      int64           `json:"bids_taken_24h"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CollectionsHandler lists tracked collections with their latest floor,
// best bid level and 24h trade stats.
// GET /api/v1/collections
func CollectionsHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		collections, err := svcCtx.Dao.GetAllCollections(ctx)
		if err != nil {
			xzap.WithContext(ctx).Error("failed on list collections", zap.Error(err))
			serverError(c)
			return
		}

		since := time.Now().Add(-24 * time.Hour)
		items := make([]collectionItem, 0, len(collections))
		for _, collection := range collections {
			item := collectionItem{
				CollectionID:      collection.CollectionID,
				Name:              collection.Name,
				ContractAddress:   collection.ContractAddress,
				CurrentFloorPrice: collection.CurrentFloorPrice,
				UpdatedAt:         collection.UpdatedAt,
			}

			if best, err := svcCtx.Dao.GetBestPriceLevel(ctx, collection.CollectionID); err == nil && best != nil {
				item.BestBidPrice = best.Price
				item.BestBidDepth = best.ExecutableSize
			}
			if volume, sales, err := svcCtx.Dao.GetSalesVolumeSince(ctx, collection.CollectionID, since); err == nil {
				item.Volume24h = volume
				item.Sales24h = sales
			}
			if stats, err := svcCtx.Dao.GetSalesStatsSince(ctx, collection.CollectionID, since); err == nil {
				item.AsksTaken24h = stats.AskTaken
				item.BidsTaken24h = stats.BidsTaken
			}
			items = append(items, item)
		}
		okJson(c, items)
	}
}

// FloorPriceHistoryHandler serves floor samples across every tracked
// collection, for the dashboard's multi-line chart.
// GET /api/v1/floor-price-history?hours=24
func FloorPriceHistoryHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		hours := 24
		if raw := c.Query("hours"); raw != "" {
			parsed, err := time.ParseDuration(raw + "h")
			if err != nil || parsed <= 0 {
				badRequest(c, "invalid hours")
				return
			}
			hours = int(parsed.Hours())
		}

		samples, err := svcCtx.Dao.FindMetricsSince(c.Request.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
		if err != nil {
			xzap.WithContext(c.Request.Context()).Error("failed on load floor price history", zap.Error(err))
			serverError(c)
			return
		}
		okJson(c, samples)
	}
}

// FloorHistoryHandler serves the collection's floor price samples.
// GET /api/v1/collections/:id/floor-history?hours=24
func FloorHistoryHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		collectionID := c.Params.ByName("id")
		if collectionID == "" {
			badRequest(c, "collection id is required")
			return
		}

		hours := 24
		if raw := c.Query("hours"); raw != "" {
			parsed, err := time.ParseDuration(raw + "h")
			if err != nil || parsed <= 0 {
				badRequest(c, "invalid hours")
				return
			}
			hours = int(parsed.Hours())
		}

		now := time.Now()
		samples, err := svcCtx.Dao.FindMetricsInRange(c.Request.Context(), collectionID,
			now.Add(-time.Duration(hours)*time.Hour), now)
		if err != nil {
			xzap.WithContext(c.Request.Context()).Error("failed on load floor history",
				zap.String("collection_id", collectionID), zap.Error(err))
			serverError(c)
			return
		}
		okJson(c, samples)
	}
}
