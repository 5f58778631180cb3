package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel is the latest snapshot of one executable bid level on a
// collection. The whole set for a collection is replaced every cycle.
type PriceLevel struct {
	ID                    int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CollectionID          string          `gorm:"column:collection_id;index;type:varchar(66)" json:"collection_id"`
	Price                 decimal.Decimal `gorm:"column:price;type:decimal(40,18)" json:"price"`
	ExecutableSize        int             `gorm:"column:executable_size" json:"executable_size"`
	NumberBidders         int             `gorm:"column:number_bidders" json:"number_bidders"`
	BidderAddressesSample string          `gorm:"column:bidder_addresses_sample;type:text" json:"bidder_addresses_sample"`
	CriteriaType          string          `gorm:"column:criteria_type;type:varchar(16)" json:"criteria_type"`
	LastUpdated           time.Time       `gorm:"column:last_updated" json:"last_updated"`
}

func (PriceLevel) TableName() string {
	return "ag_price_level"
}

// PriceLevelHistory keeps every snapshot row for charting bid depth over
// time. Append-only.
type PriceLevelHistory struct {
	ID                    int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CollectionID          string          `gorm:"column:collection_id;index;type:varchar(66)" json:"collection_id"`
	Price                 decimal.Decimal `gorm:"column:price;type:decimal(40,18)" json:"price"`
	ExecutableSize        int             `gorm:"column:executable_size" json:"executable_size"`
	NumberBidders         int             `gorm:"column:number_bidders" json:"number_bidders"`
	BidderAddressesSample string          `gorm:"column:bidder_addresses_sample;type:text" json:"bidder_addresses_sample"`
	CriteriaType          string          `gorm:"column:criteria_type;type:varchar(16)" json:"criteria_type"`
	Timestamp             time.Time       `gorm:"column:timestamp;index" json:"timestamp"`
}

func (PriceLevelHistory) TableName() string {
	return "ag_price_level_history"
}
