package reconcile

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

// LevelsAPI fetches the wallet's live bid levels from the marketplace.
type LevelsAPI interface {
	GetMyPriceLevels(ctx context.Context, cookies []gateway.Cookie, walletAddress string) ([]marketplace.PriceLevel, error)
}

// Wallet is the authenticated session used for the levels call.
type Wallet interface {
	Address() string
	Authenticated() bool
	Login(ctx context.Context) error
	AuthCookies() []gateway.Cookie
}

// Store is the persistence surface reconciliation reads and repairs.
type Store interface {
	GetActiveBidOrders(ctx context.Context) ([]model.BidOrder, error)
	GetAllCollections(ctx context.Context) ([]model.Collection, error)
	UpdateBidOrderStatus(ctx context.Context, id int64, from, to string) (bool, error)
}

// Engine trues up the local bid book against the marketplace's view.
// Local ACTIVE rows with no matching remote level were filled or expired
// out from under us; they move to COMPLETED so downstream accounting
// stops treating them as live.
type Engine struct {
	api    LevelsAPI
	wallet Wallet
	store  Store

	busy atomic.Bool
}

func New(api LevelsAPI, wallet Wallet, store Store) *Engine {
	return &Engine{api: api, wallet: wallet, store: store}
}

// RemoveInvalidBids runs one reconciliation pass. Overlapping passes are
// collapsed: if one is already in flight the call returns immediately.
// A mid-pass failure aborts the pass but keeps the rows already
// repaired.
func (e *Engine) RemoveInvalidBids(ctx context.Context) error {
	if !e.busy.CompareAndSwap(false, true) {
		return nil
	}
	defer e.busy.Store(false)

	bids, err := e.store.GetActiveBidOrders(ctx)
	if err != nil {
		return err
	}
	if len(bids) == 0 {
		return nil
	}

	if !e.wallet.Authenticated() {
		if err := e.wallet.Login(ctx); err != nil {
			return errors.Wrap(err, "failed on establish session for reconcile")
		}
	}

	levels, err := e.api.GetMyPriceLevels(ctx, e.wallet.AuthCookies(), e.wallet.Address())
	if err != nil {
		return errors.Wrap(err, "failed on fetch remote bid levels")
	}

	contractByCollection, err := e.contractIndex(ctx)
	if err != nil {
		return err
	}

	// Remote open size per (contract, wei price).
	remote := make(map[string]int, len(levels))
	for _, level := range levels {
		remote[levelKey(level.ContractAddress, level.Price)] = level.OpenSize
	}

	// Local ACTIVE bids grouped the same way, insertion order by id.
	groups := make(map[string][]model.BidOrder)
	for _, bid := range bids {
		contract := contractByCollection[bid.CollectionID]
		if contract == "" {
			contract = bid.CollectionID
		}
		key := levelKey(contract, bid.BidPrice)
		groups[key] = append(groups[key], bid)
	}

	completed := 0
	for key, group := range groups {
		open := remote[key]
		if open >= len(group) {
			continue
		}
		// Trim the excess, oldest rows first.
		for _, bid := range group[:len(group)-open] {
			changed, err := e.store.UpdateBidOrderStatus(ctx, bid.ID, model.BidStatusActive, model.BidStatusCompleted)
			if err != nil {
				return errors.Wrap(err, "failed on complete stale bid")
			}
			if changed {
				completed++
			}
		}
	}

	if completed > 0 {
		xzap.WithContext(ctx).Info("reconciled local bid book",
			zap.Int("active_bids", len(bids)),
			zap.Int("completed", completed))
	}
	return nil
}

func (e *Engine) contractIndex(ctx context.Context) (map[string]string, error) {
	collections, err := e.store.GetAllCollections(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed on load collections for reconcile")
	}
	index := make(map[string]string, len(collections))
	for _, c := range collections {
		index[c.CollectionID] = c.ContractAddress
	}
	return index, nil
}

// levelKey normalizes a price to integer wei so decimal formatting
// differences between the local rows and the remote levels cannot break
// the match.
func levelKey(contractAddress string, price decimal.Decimal) string {
	return contractAddress + "|" + price.Shift(18).Truncate(0).String()
}
