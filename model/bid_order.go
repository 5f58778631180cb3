package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid order lifecycle. ACTIVE is the only non-terminal state: CANCELED is
// reached through an explicit cancellation, COMPLETED through
// reconciliation against the remote order book.
const (
	BidStatusActive    = "ACTIVE"
	BidStatusCanceled  = "CANCELED"
	BidStatusCompleted = "COMPLETED"
)

// BidOrder is a collection bid this agent has placed on the marketplace.
type BidOrder struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CollectionID  string          `gorm:"column:collection_id;index;type:varchar(66)" json:"collection_id"`
	BidPrice      decimal.Decimal `gorm:"column:bid_price;type:decimal(40,18)" json:"bid_price"`
	MinFloorPrice decimal.Decimal `gorm:"column:min_floor_price;type:decimal(40,18)" json:"min_floor_price"`
	BidderAddress string          `gorm:"column:bidder_address;type:varchar(42)" json:"bidder_address"`
	Status        string          `gorm:"column:status;index;type:varchar(16)" json:"status"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	CanceledAt    *time.Time      `gorm:"column:canceled_at" json:"canceled_at,omitempty"`
}

func (BidOrder) TableName() string {
	return "ag_bid_order"
}
