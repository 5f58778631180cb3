package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SaleSideAsk = "ASK"
	SaleSideBid = "BID"
)

// Sale is an observed marketplace sale, deduplicated by transaction hash.
type Sale struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NftID           string          `gorm:"column:nft_id;index;type:varchar(128)" json:"nft_id"`
	CollectionID    string          `gorm:"column:collection_id;index;type:varchar(66)" json:"collection_id"`
	BuyerAddress    string          `gorm:"column:buyer_address;type:varchar(42)" json:"buyer_address"`
	SellerAddress   string          `gorm:"column:seller_address;type:varchar(42)" json:"seller_address"`
	Price           decimal.Decimal `gorm:"column:price;type:decimal(40,18)" json:"price"`
	Marketplace     string          `gorm:"column:marketplace;type:varchar(32)" json:"marketplace"`
	TransactionHash string          `gorm:"column:transaction_hash;uniqueIndex;type:varchar(66)" json:"transaction_hash"`
	SoldAt          time.Time       `gorm:"column:sold_at;index" json:"sold_at"`
	Side            string          `gorm:"column:side;type:varchar(8)" json:"side"`
}

func (Sale) TableName() string {
	return "ag_sale"
}
