package bidcondition

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/bidmanager"
)

type fakeCanceler struct {
	canceled []int64
	result   bidmanager.BidResult
}

func (f *fakeCanceler) CancelBid(ctx context.Context, bidID int64) bidmanager.BidResult {
	f.canceled = append(f.canceled, bidID)
	return f.result
}

type fakeReconciler struct {
	calls int
}

func (f *fakeReconciler) RemoveInvalidBids(ctx context.Context) error {
	f.calls++
	return nil
}

type fakeStore struct {
	bids       []model.BidOrder
	floors     map[string]decimal.Decimal
	floorCalls int
}

func (f *fakeStore) GetActiveBidOrders(ctx context.Context) ([]model.BidOrder, error) {
	return f.bids, nil
}

func (f *fakeStore) GetCurrentFloorPrice(ctx context.Context, collectionID string) (decimal.Decimal, error) {
	f.floorCalls++
	return f.floors[collectionID], nil
}

func bid(id int64, collection, minFloor string) model.BidOrder {
	return model.BidOrder{
		ID:            id,
		CollectionID:  collection,
		BidPrice:      decimal.RequireFromString("0.25"),
		MinFloorPrice: decimal.RequireFromString(minFloor),
		Status:        model.BidStatusActive,
	}
}

func TestSweepCancelsBidBelowMinFloor(t *testing.T) {
	store := &fakeStore{
		bids:   []model.BidOrder{bid(1, "col-1", "0.31")},
		floors: map[string]decimal.Decimal{"col-1": decimal.RequireFromString("0.30")},
	}
	canceler := &fakeCanceler{result: bidmanager.BidResult{Success: true}}
	s := New(Config{}, canceler, &fakeReconciler{}, store)

	s.SweepOnce(context.Background())
	assert.Equal(t, []int64{1}, canceler.canceled)
}

func TestSweepKeepsBidAtExactThreshold(t *testing.T) {
	store := &fakeStore{
		bids:   []model.BidOrder{bid(1, "col-1", "0.30")},
		floors: map[string]decimal.Decimal{"col-1": decimal.RequireFromString("0.30")},
	}
	canceler := &fakeCanceler{result: bidmanager.BidResult{Success: true}}
	s := New(Config{}, canceler, &fakeReconciler{}, store)

	s.SweepOnce(context.Background())
	assert.Empty(t, canceler.canceled)
}

func TestSweepComparesAtWeiPrecision(t *testing.T) {
	// 0.300 vs threshold 0.3 must not trigger on formatting alone.
	store := &fakeStore{
		bids:   []model.BidOrder{bid(1, "col-1", "0.3")},
		floors: map[string]decimal.Decimal{"col-1": decimal.RequireFromString("0.300")},
	}
	canceler := &fakeCanceler{result: bidmanager.BidResult{Success: true}}
	s := New(Config{}, canceler, &fakeReconciler{}, store)

	s.SweepOnce(context.Background())
	assert.Empty(t, canceler.canceled)
}

func TestSweepFetchesFloorOncePerCollection(t *testing.T) {
	store := &fakeStore{
		bids: []model.BidOrder{
			bid(1, "col-1", "0.10"),
			bid(2, "col-1", "0.20"),
			bid(3, "col-2", "0.10"),
		},
		floors: map[string]decimal.Decimal{
			"col-1": decimal.RequireFromString("0.50"),
			"col-2": decimal.RequireFromString("0.50"),
		},
	}
	canceler := &fakeCanceler{result: bidmanager.BidResult{Success: true}}
	s := New(Config{}, canceler, &fakeReconciler{}, store)

	s.SweepOnce(context.Background())
	assert.Equal(t, 2, store.floorCalls)
}

func TestSweepCancelsOnlyTriggeredBids(t *testing.T) {
	store := &fakeStore{
		bids: []model.BidOrder{
			bid(1, "col-1", "0.31"),
			bid(2, "col-1", "0.25"),
		},
		floors: map[string]decimal.Decimal{"col-1": decimal.RequireFromString("0.30")},
	}
	canceler := &fakeCanceler{result: bidmanager.BidResult{Success: true}}
	s := New(Config{}, canceler, &fakeReconciler{}, store)

	s.SweepOnce(context.Background())
	assert.Equal(t, []int64{1}, canceler.canceled)
}
