package v1

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/service/bidmanager"
	"github.com/ProjectsTask/EasySwapAgent/service/svc"
)

type placeBidRequest struct {
	CollectionID  string          `json:"collection_id" binding:"required"`
	BidPrice      decimal.Decimal `json:"bid_price" binding:"required"`
	MinFloorPrice decimal.Decimal `json:"min_floor_price" binding:"required"`
}

// ActiveBidsHandler lists the agent's ACTIVE bids.
// GET /api/v1/bids
func ActiveBidsHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		bids, err := svcCtx.Dao.GetActiveBidOrders(c.Request.Context())
		if err != nil {
			xzap.WithContext(c.Request.Context()).Error("failed on list active bids", zap.Error(err))
			serverError(c)
			return
		}
		okJson(c, bids)
	}
}

// PlaceBidHandler places one collection bid.
// POST /api/v1/bids
func PlaceBidHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeBidRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid bid request")
			return
		}

		res := svcCtx.Bids.PostBid(c.Request.Context(), bidmanager.BidDetails{
			CollectionID:  req.CollectionID,
			BidPrice:      req.BidPrice,
			MinFloorPrice: req.MinFloorPrice,
		})
		okJson(c, res)
	}
}

// CancelBidHandler withdraws a bid by local id.
// DELETE /api/v1/bids/:id
func CancelBidHandler(svcCtx *svc.ServerCtx) gin.HandlerFunc {
	return func(c *gin.Context) {
		bidID, err := strconv.ParseInt(c.Params.ByName("id"), 10, 64)
		if err != nil || bidID <= 0 {
			badRequest(c, "invalid bid id")
			return
		}
		okJson(c, svcCtx.Bids.CancelBid(c.Request.Context(), bidID))
	}
}
