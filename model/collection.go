package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is a tracked NFT collection. CollectionID doubles as the
// marketplace contract address.
type Collection struct {
	CollectionID      string          `gorm:"column:collection_id;primaryKey;type:varchar(66)" json:"collection_id"`
	Name              string          `gorm:"column:name;type:varchar(128)" json:"name"`
	ContractAddress   string          `gorm:"column:contract_address;type:varchar(66)" json:"contract_address"`
	CurrentFloorPrice decimal.Decimal `gorm:"column:current_floor_price;type:decimal(40,18)" json:"current_floor_price"`
	UpdatedAt         time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Collection) TableName() string {
	return "ag_collection"
}
