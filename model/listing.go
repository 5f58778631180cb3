package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ListingStatusActive      = "ACTIVE"
	ListingStatusSold        = "SOLD"
	ListingStatusTransferred = "TRANSFERRED"
)

// Listing is a currently or previously listed token. NftID is
// "<collectionID>-<tokenID>".
type Listing struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NftID         string          `gorm:"column:nft_id;index;type:varchar(128)" json:"nft_id"`
	TokenID       string          `gorm:"column:token_id;type:varchar(78)" json:"token_id"`
	CollectionID  string          `gorm:"column:collection_id;index;type:varchar(66)" json:"collection_id"`
	SellerAddress string          `gorm:"column:seller_address;type:varchar(42)" json:"seller_address"`
	CurrentPrice  decimal.Decimal `gorm:"column:current_price;type:decimal(40,18)" json:"current_price"`
	InitialPrice  decimal.Decimal `gorm:"column:initial_price;type:decimal(40,18)" json:"initial_price"`
	Marketplace   string          `gorm:"column:marketplace;type:varchar(32)" json:"marketplace"`
	ListedAt      time.Time       `gorm:"column:listed_at" json:"listed_at"`
	LastUpdatedAt time.Time       `gorm:"column:last_updated_at" json:"last_updated_at"`
	IsFloor       bool            `gorm:"column:is_floor" json:"is_floor"`
	Status        string          `gorm:"column:status;index;type:varchar(16)" json:"status"`
	RarityScore   float64         `gorm:"column:rarity_score" json:"rarity_score"`
	UpdateCount   int             `gorm:"column:update_count" json:"update_count"`
}

func (Listing) TableName() string {
	return "ag_listing"
}
