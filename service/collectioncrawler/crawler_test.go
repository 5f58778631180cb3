package collectioncrawler

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

type fakeMarketAPI struct {
	collections []marketplace.Collection
	err         error
	gotCount    int
}

func (f *fakeMarketAPI) GetTopCollections(ctx context.Context, count int) ([]marketplace.Collection, error) {
	f.gotCount = count
	return f.collections, f.err
}

type fakeStore struct {
	upserts []model.Collection
	err     error
}

func (f *fakeStore) UpsertCollection(ctx context.Context, collection model.Collection) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, collection)
	return nil
}

func col(name, contract, floor string) marketplace.Collection {
	c := marketplace.Collection{Name: name, ContractAddress: contract}
	if floor != "" {
		c.FloorPrice = &struct {
			Amount decimal.Decimal `json:"amount"`
			Unit   string          `json:"unit"`
		}{Amount: decimal.RequireFromString(floor), Unit: "ETH"}
	}
	return c
}

func TestSyncStoresTopCollections(t *testing.T) {
	api := &fakeMarketAPI{collections: []marketplace.Collection{
		col("Alpha", "0xAbC1", "1.25"),
		col("Beta", "0xDeF2", ""),
	}}
	store := &fakeStore{}
	c := New(Config{TopCount: 50}, api, store)

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, 50, api.gotCount)
	require.Len(t, store.upserts, 2)

	assert.Equal(t, "0xabc1", store.upserts[0].CollectionID)
	assert.Equal(t, "0xAbC1", store.upserts[0].ContractAddress)
	assert.Equal(t, "Alpha", store.upserts[0].Name)
	assert.True(t, store.upserts[0].CurrentFloorPrice.Equal(decimal.RequireFromString("1.25")))

	// No floor listed yet is fine; the update cycle fills it in later.
	assert.True(t, store.upserts[1].CurrentFloorPrice.IsZero())
}

func TestSyncSkipsCollectionsWithoutContract(t *testing.T) {
	api := &fakeMarketAPI{collections: []marketplace.Collection{
		col("NoContract", "", "1.0"),
		col("Tradable", "0xAbC1", "1.0"),
	}}
	store := &fakeStore{}
	c := New(Config{}, api, store)

	require.NoError(t, c.Sync(context.Background()))
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "0xabc1", store.upserts[0].CollectionID)
}

func TestSyncDefaultsTopCount(t *testing.T) {
	api := &fakeMarketAPI{}
	c := New(Config{}, api, &fakeStore{})

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, 100, api.gotCount)
}

func TestSyncPropagatesErrors(t *testing.T) {
	c := New(Config{}, &fakeMarketAPI{err: errors.New("ranking unavailable")}, &fakeStore{})
	require.Error(t, c.Sync(context.Background()))

	api := &fakeMarketAPI{collections: []marketplace.Collection{col("Alpha", "0xAbC1", "1.0")}}
	c = New(Config{}, api, &fakeStore{err: errors.New("db down")})
	require.Error(t, c.Sync(context.Background()))
}
