package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/service/svc"
)

// PriceDataHandler serves OHLC candles for one collection.
// GET /api/v1/price-data?collection_id=..&timeframe=1h&from=..&to=..
func PriceDataHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		collectionID := c.Query("collection_id")
		if collectionID == "" {
			badRequest(c, "collection_id is required")
			return
		}

		timeframe, err := time.ParseDuration(c.DefaultQuery("timeframe", "1h"))
		if err != nil || timeframe <= 0 {
			badRequest(c, "invalid timeframe")
			return
		}

		to := time.Now()
		if raw := c.Query("to"); raw != "" {
			if to, err = time.Parse(time.RFC3339, raw); err != nil {
				badRequest(c, "invalid to timestamp")
				return
			}
		}
		from := to.Add(-24 * time.Hour)
		if raw := c.Query("from"); raw != "" {
			if from, err = time.Parse(time.RFC3339, raw); err != nil {
				badRequest(c, "invalid from timestamp")
				return
			}
		}
		if !to.After(from) {
			badRequest(c, "from must precede to")
			return
		}

		bars, err := svcCtx.Prices.GetPriceData(c.Request.Context(), collectionID, timeframe, from, to)
		if err != nil {
			xzap.WithContext(c.Request.Context()).Error("failed on build price data",
				zap.String("collection_id", collectionID), zap.Error(err))
			serverError(c)
			return
		}
		okJson(c, bars)
	}
}
