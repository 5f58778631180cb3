package reconcile

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

type fakeLevelsAPI struct {
	levels  []marketplace.PriceLevel
	err     error
	block   chan struct{}
	entered chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeLevelsAPI) GetMyPriceLevels(ctx context.Context, cookies []gateway.Cookie, walletAddress string) ([]marketplace.PriceLevel, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		<-f.block
	}
	return f.levels, f.err
}

func (f *fakeLevelsAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWallet struct{}

func (fakeWallet) Address() string                 { return "0xBidder" }
func (fakeWallet) Authenticated() bool             { return true }
func (fakeWallet) Login(ctx context.Context) error { return nil }
func (fakeWallet) AuthCookies() []gateway.Cookie   { return nil }

type fakeStore struct {
	mu        sync.Mutex
	bids      []model.BidOrder
	completed []int64
	casErr    error
}

func (f *fakeStore) GetActiveBidOrders(ctx context.Context) ([]model.BidOrder, error) {
	return f.bids, nil
}

func (f *fakeStore) GetAllCollections(ctx context.Context) ([]model.Collection, error) {
	return []model.Collection{{CollectionID: "col-1", ContractAddress: "0xContract"}}, nil
}

func (f *fakeStore) UpdateBidOrderStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	if f.casErr != nil {
		return false, f.casErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return true, nil
}

func bid(id int64, price string) model.BidOrder {
	return model.BidOrder{
		ID:           id,
		CollectionID: "col-1",
		BidPrice:     decimal.RequireFromString(price),
		Status:       model.BidStatusActive,
	}
}

func level(price string, openSize int) marketplace.PriceLevel {
	return marketplace.PriceLevel{
		ContractAddress: "0xContract",
		Price:           decimal.RequireFromString(price),
		OpenSize:        openSize,
	}
}

func TestRemoveInvalidBidsTrimsOverCount(t *testing.T) {
	// Three local rows at one level but only one still open remotely:
	// the two oldest rows complete, the newest stays active.
	store := &fakeStore{bids: []model.BidOrder{bid(10, "0.4"), bid(11, "0.4"), bid(12, "0.4")}}
	api := &fakeLevelsAPI{levels: []marketplace.PriceLevel{level("0.4", 1)}}
	e := New(api, fakeWallet{}, store)

	require.NoError(t, e.RemoveInvalidBids(context.Background()))
	assert.Equal(t, []int64{10, 11}, store.completed)
}

func TestRemoveInvalidBidsCompletesOrphans(t *testing.T) {
	store := &fakeStore{bids: []model.BidOrder{bid(5, "0.4")}}
	api := &fakeLevelsAPI{levels: nil}
	e := New(api, fakeWallet{}, store)

	require.NoError(t, e.RemoveInvalidBids(context.Background()))
	assert.Equal(t, []int64{5}, store.completed)
}

func TestRemoveInvalidBidsMatchesAcrossDecimalScales(t *testing.T) {
	// "0.40" locally vs "0.4" remotely is the same wei price.
	store := &fakeStore{bids: []model.BidOrder{bid(5, "0.40")}}
	api := &fakeLevelsAPI{levels: []marketplace.PriceLevel{level("0.4", 1)}}
	e := New(api, fakeWallet{}, store)

	require.NoError(t, e.RemoveInvalidBids(context.Background()))
	assert.Empty(t, store.completed)
}

func TestRemoveInvalidBidsSkipsRemoteCallWhenIdle(t *testing.T) {
	store := &fakeStore{}
	api := &fakeLevelsAPI{}
	e := New(api, fakeWallet{}, store)

	require.NoError(t, e.RemoveInvalidBids(context.Background()))
	assert.Zero(t, api.callCount())
}

func TestRemoveInvalidBidsSingleFlight(t *testing.T) {
	store := &fakeStore{bids: []model.BidOrder{bid(5, "0.4")}}
	api := &fakeLevelsAPI{block: make(chan struct{}), entered: make(chan struct{})}
	entered := api.entered
	e := New(api, fakeWallet{}, store)

	done := make(chan error, 1)
	go func() {
		done <- e.RemoveInvalidBids(context.Background())
	}()

	// Wait for the first pass to reach the remote call.
	<-entered
	// Overlapping pass collapses to a no-op.
	require.NoError(t, e.RemoveInvalidBids(context.Background()))
	assert.Equal(t, 1, api.callCount())

	close(api.block)
	require.NoError(t, <-done)
}

func TestRemoveInvalidBidsAbortsOnStoreError(t *testing.T) {
	store := &fakeStore{
		bids:   []model.BidOrder{bid(5, "0.4")},
		casErr: errors.New("db gone"),
	}
	api := &fakeLevelsAPI{}
	e := New(api, fakeWallet{}, store)

	require.Error(t, e.RemoveInvalidBids(context.Background()))
}
