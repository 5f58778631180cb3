package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricSample is one per-cycle snapshot of a collection's market state.
// Append-only, ordered by Timestamp.
type MetricSample struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CollectionID  string          `gorm:"column:collection_id;index;type:varchar(66)" json:"collection_id"`
	Timestamp     time.Time       `gorm:"column:timestamp;index" json:"timestamp"`
	FloorPrice    decimal.Decimal `gorm:"column:floor_price;type:decimal(40,18)" json:"floor_price"`
	FloorDepth    int             `gorm:"column:floor_depth" json:"floor_depth"`
	BestBidPrice  decimal.Decimal `gorm:"column:best_bid_price;type:decimal(40,18)" json:"best_bid_price"`
	BestBidDepth  int             `gorm:"column:best_bid_depth" json:"best_bid_depth"`
	Volume        decimal.Decimal `gorm:"column:volume;type:decimal(40,18)" json:"volume"`
	TotalListings int             `gorm:"column:total_listings" json:"total_listings"`
	TotalSales    int             `gorm:"column:total_sales" json:"total_sales"`
}

func (MetricSample) TableName() string {
	return "ag_metric_sample"
}
