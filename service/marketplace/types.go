package marketplace

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Challenge is the login challenge to sign. Raw keeps every server-issued
// field so the login call can echo the full object back alongside the
// signature.
type Challenge struct {
	Raw     json.RawMessage
	Message string
}

// PriceLevel is one executable bid level attributed to this wallet when
// fetched through the authenticated open-bids endpoint.
type PriceLevel struct {
	ContractAddress string          `json:"contractAddress"`
	Price           decimal.Decimal `json:"price"`
	ExecutableSize  int             `json:"executableSize"`
	OpenSize        int             `json:"openSize"`
}

// BidLevel is one public executable bid level on a collection.
type BidLevel struct {
	CriteriaType          string          `json:"criteriaType"`
	Price                 decimal.Decimal `json:"price"`
	ExecutableSize        int             `json:"executableSize"`
	NumberBidders         int             `json:"numberBidders"`
	BidderAddressesSample []string        `json:"bidderAddressesSample"`
}

// Token is one listed token from the collection tokens endpoint, floor
// first.
type Token struct {
	TokenID string `json:"tokenId"`
	Price   struct {
		Amount      decimal.Decimal `json:"amount"`
		Unit        string          `json:"unit"`
		ListedAt    string          `json:"listedAt"`
		Marketplace string          `json:"marketplace"`
	} `json:"price"`
	RarityScore float64 `json:"rarityScore"`
	Owner       struct {
		Address string `json:"address"`
	} `json:"owner"`
}

// Collection is one entry from the ranked collections endpoint.
type Collection struct {
	Name            string `json:"name"`
	ContractAddress string `json:"contractAddress"`
	FloorPrice      *struct {
		Amount decimal.Decimal `json:"amount"`
		Unit   string          `json:"unit"`
	} `json:"floorPrice"`
}

// Event is one activity item (sale, transfer, order lifecycle).
type Event struct {
	ID              int64  `json:"id"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	EventType       string `json:"eventType"`
	Price           struct {
		Amount decimal.Decimal `json:"amount"`
		Unit   string          `json:"unit"`
	} `json:"price"`
	FromTrader struct {
		Address string `json:"address"`
	} `json:"fromTrader"`
	ToTrader *struct {
		Address string `json:"address"`
	} `json:"toTrader"`
	CreatedAt       string  `json:"createdAt"`
	TransactionHash *string `json:"transactionHash"`
	Marketplace     string  `json:"marketplace"`
	MakerSide       *string `json:"makerSide"`
}

// Event types surfaced by the activity endpoint.
const (
	EventTypeOrderCreated = "ORDER_CREATED"
	EventTypeSale         = "SALE"
	EventTypeTransfer     = "TRANSFER"
)

// FormatBidResponse is the server-computed signable order.
type FormatBidResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Signatures []struct {
		SignData        json.RawMessage `json:"signData"`
		MarketplaceData string          `json:"marketplaceData"`
	} `json:"signatures"`
}

// SubmitResult is the generic success/error shape of order mutations.
type SubmitResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
