package svc

import (
	"github.com/ProjectsTask/EasySwapAgent/dao"
	"github.com/ProjectsTask/EasySwapAgent/service/bidmanager"
	"github.com/ProjectsTask/EasySwapAgent/service/config"
	"github.com/ProjectsTask/EasySwapAgent/service/pricedata"
)

// ServerCtx bundles everything the API handlers reach for.
type ServerCtx struct {
	C      *config.Config
	Dao    *dao.Dao
	Bids   *bidmanager.Manager
	Prices *pricedata.Aggregator
}

func NewServerCtx(c *config.Config, d *dao.Dao, bids *bidmanager.Manager, prices *pricedata.Aggregator) *ServerCtx {
	return &ServerCtx{C: c, Dao: d, Bids: bids, Prices: prices}
}
