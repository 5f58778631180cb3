package bidmanager

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

// bidLifetime is how far in the future placed bids expire.
const bidLifetime = 365 * 24 * time.Hour

// MarketAPI is the slice of the marketplace client the manager uses.
type MarketAPI interface {
	FormatBid(ctx context.Context, cookies []gateway.Cookie, req marketplace.FormatBidRequest) (*marketplace.FormatBidResponse, error)
	SubmitBid(ctx context.Context, cookies []gateway.Cookie, signature, marketplaceData string) (*marketplace.SubmitResult, error)
	CancelBid(ctx context.Context, cookies []gateway.Cookie, contractAddress, price string) (*marketplace.SubmitResult, error)
}

// Wallet is the authenticated session the manager signs and calls with.
type Wallet interface {
	Address() string
	Authenticated() bool
	Login(ctx context.Context) error
	AuthCookies() []gateway.Cookie
	SignTypedData(raw json.RawMessage) (string, error)
}

// Store is the persistence surface for bid rows.
type Store interface {
	SaveBidOrder(ctx context.Context, bid *model.BidOrder) error
	GetBidOrderByID(ctx context.Context, id int64) (*model.BidOrder, error)
	UpdateBidOrderStatus(ctx context.Context, id int64, from, to string) (bool, error)
	GetCollectionByID(ctx context.Context, collectionID string) (*model.Collection, error)
}

// BidDetails is a request to place one collection bid.
type BidDetails struct {
	CollectionID  string
	BidPrice      decimal.Decimal
	MinFloorPrice decimal.Decimal
}

// BidResult reports the outcome of a placement or cancel attempt.
// Error text is bounded so a quoted upstream document cannot flood the
// caller.
type BidResult struct {
	Success bool   `json:"success"`
	BidID   int64  `json:"bidId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Manager places and cancels collection bids. A bid row is only
// persisted ACTIVE after the marketplace confirms the submission, so
// the local book never gets ahead of the remote one.
type Manager struct {
	api    MarketAPI
	wallet Wallet
	store  Store
}

func New(api MarketAPI, wallet Wallet, store Store) *Manager {
	return &Manager{api: api, wallet: wallet, store: store}
}

func failure(msg string) BidResult {
	return BidResult{Success: false, Error: gateway.Truncate(msg, 250)}
}

// PostBid walks the full placement pipeline: format the order
// server-side, sign the returned typed data, submit it, and persist the
// ACTIVE row once the marketplace confirms.
func (m *Manager) PostBid(ctx context.Context, details BidDetails) BidResult {
	if details.BidPrice.LessThanOrEqual(decimal.Zero) {
		return failure("bid price must be positive")
	}

	if err := m.ensureSession(ctx); err != nil {
		return failure("failed on establish session: " + err.Error())
	}

	contractAddress, err := m.contractAddress(ctx, details.CollectionID)
	if err != nil {
		return failure(err.Error())
	}

	formatted, err := m.api.FormatBid(ctx, m.wallet.AuthCookies(), marketplace.FormatBidRequest{
		ContractAddress: contractAddress,
		PriceAmount:     details.BidPrice.String(),
		Quantity:        1,
		ExpirationTime:  time.Now().Add(bidLifetime).UTC().Format(time.RFC3339),
	})
	if err != nil {
		return failure("failed on format bid: " + err.Error())
	}
	if !formatted.Success || len(formatted.Signatures) == 0 {
		msg := formatted.Message
		if msg == "" {
			msg = "format bid rejected"
		}
		return failure(msg)
	}

	order := formatted.Signatures[0]
	signature, err := m.wallet.SignTypedData(order.SignData)
	if err != nil {
		return failure("failed on sign bid order: " + err.Error())
	}

	submitted, err := m.api.SubmitBid(ctx, m.wallet.AuthCookies(), signature, order.MarketplaceData)
	if err != nil {
		return failure("failed on submit bid: " + err.Error())
	}
	if !submitted.Success {
		msg := submitted.Error
		if msg == "" {
			msg = submitted.Message
		}
		if msg == "" {
			msg = "bid submission rejected"
		}
		return failure(msg)
	}

	bid := &model.BidOrder{
		CollectionID:  details.CollectionID,
		BidPrice:      details.BidPrice,
		MinFloorPrice: details.MinFloorPrice,
		BidderAddress: m.wallet.Address(),
		Status:        model.BidStatusActive,
	}
	if err := m.store.SaveBidOrder(ctx, bid); err != nil {
		// The bid is live on the marketplace but missing locally;
		// reconciliation will not see it, so the operator has to.
		xzap.WithContext(ctx).Error("bid confirmed remotely but not persisted",
			zap.String("collection_id", details.CollectionID),
			zap.String("bid_price", details.BidPrice.String()),
			zap.Error(err))
		return failure("failed on persist confirmed bid: " + err.Error())
	}

	xzap.WithContext(ctx).Info("bid placed",
		zap.Int64("bid_id", bid.ID),
		zap.String("collection_id", details.CollectionID),
		zap.String("bid_price", details.BidPrice.String()))
	return BidResult{Success: true, BidID: bid.ID}
}

// CancelBid withdraws a bid by local id. The row must exist and still be
// ACTIVE before any remote call is made. A cancel that loses the status
// race to reconciliation still counts as success, since the bid is gone
// either way.
func (m *Manager) CancelBid(ctx context.Context, bidID int64) BidResult {
	bid, err := m.store.GetBidOrderByID(ctx, bidID)
	if err != nil {
		return failure("failed on load bid: " + err.Error())
	}
	if bid == nil {
		return failure("bid not found")
	}
	if bid.Status != model.BidStatusActive {
		return failure("bid is not active")
	}

	if err := m.ensureSession(ctx); err != nil {
		return failure("failed on establish session: " + err.Error())
	}

	contractAddress, err := m.contractAddress(ctx, bid.CollectionID)
	if err != nil {
		return failure(err.Error())
	}

	res, err := m.api.CancelBid(ctx, m.wallet.AuthCookies(), contractAddress, bid.BidPrice.String())
	if err != nil {
		return failure("failed on cancel bid: " + err.Error())
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "bid cancellation rejected"
		}
		return failure(msg)
	}

	if _, err := m.store.UpdateBidOrderStatus(ctx, bidID, model.BidStatusActive, model.BidStatusCanceled); err != nil {
		return failure("failed on mark bid canceled: " + err.Error())
	}

	xzap.WithContext(ctx).Info("bid canceled",
		zap.Int64("bid_id", bidID),
		zap.String("collection_id", bid.CollectionID))
	return BidResult{Success: true, BidID: bidID}
}

func (m *Manager) ensureSession(ctx context.Context) error {
	if m.wallet.Authenticated() {
		return nil
	}
	return m.wallet.Login(ctx)
}

func (m *Manager) contractAddress(ctx context.Context, collectionID string) (string, error) {
	collection, err := m.store.GetCollectionByID(ctx, collectionID)
	if err != nil {
		return "", err
	}
	if collection == nil {
		return "", gateway.NewValidation("unknown collection %s", collectionID)
	}
	if collection.ContractAddress != "" {
		return collection.ContractAddress, nil
	}
	return collection.CollectionID, nil
}
