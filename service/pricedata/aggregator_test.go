package pricedata

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

type fakeStore struct {
	sales     []model.Sale
	metrics   []model.MetricSample
	lastPrice decimal.Decimal
	hasLast   bool
}

func (f *fakeStore) FindSalesInRange(ctx context.Context, collectionID string, from, to time.Time) ([]model.Sale, error) {
	return f.sales, nil
}

func (f *fakeStore) FindMetricsInRange(ctx context.Context, collectionID string, from, to time.Time) ([]model.MetricSample, error) {
	return f.metrics, nil
}

func (f *fakeStore) FindLastSaleOrMetricBefore(ctx context.Context, collectionID string, t time.Time) (decimal.Decimal, bool, error) {
	return f.lastPrice, f.hasLast, nil
}

var base = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func sale(offset time.Duration, price string) model.Sale {
	return model.Sale{CollectionID: "col-1", Price: decimal.RequireFromString(price), SoldAt: base.Add(offset)}
}

func metric(offset time.Duration, floor string) model.MetricSample {
	return model.MetricSample{CollectionID: "col-1", FloorPrice: decimal.RequireFromString(floor), Timestamp: base.Add(offset)}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGetPriceDataBuildsCandlesFromSales(t *testing.T) {
	store := &fakeStore{sales: []model.Sale{
		sale(5*time.Minute, "1.0"),
		sale(20*time.Minute, "1.4"),
		sale(40*time.Minute, "1.2"),
	}}
	a := New(store)

	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 1)

	assert.True(t, bars[0].Open.Equal(d("1.0")))
	assert.True(t, bars[0].High.Equal(d("1.4")))
	assert.True(t, bars[0].Low.Equal(d("1.0")))
	assert.True(t, bars[0].Close.Equal(d("1.2")))
}

func TestGetPriceDataMetricsStretchHighLow(t *testing.T) {
	store := &fakeStore{
		sales: []model.Sale{
			sale(5*time.Minute, "1.0"),
			sale(40*time.Minute, "1.1"),
		},
		metrics: []model.MetricSample{
			metric(10*time.Minute, "0.8"),
			metric(30*time.Minute, "1.5"),
		},
	}
	a := New(store)

	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 1)

	// Sales own open/close, floor samples widen the extremes.
	assert.True(t, bars[0].Open.Equal(d("1.0")))
	assert.True(t, bars[0].Close.Equal(d("1.1")))
	assert.True(t, bars[0].High.Equal(d("1.5")))
	assert.True(t, bars[0].Low.Equal(d("0.8")))
}

func TestGetPriceDataMetricsOnlyBucketKeepsCarriedClose(t *testing.T) {
	store := &fakeStore{
		sales:   []model.Sale{sale(30*time.Minute, "2.0")},
		metrics: []model.MetricSample{metric(90*time.Minute, "0.5")},
	}
	a := New(store)

	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	// A floor drop with no trades widens the range but does not move the
	// open/close off the last traded price.
	assert.True(t, bars[1].Open.Equal(d("2.0")))
	assert.True(t, bars[1].Close.Equal(d("2.0")))
	assert.True(t, bars[1].High.Equal(d("2.0")))
	assert.True(t, bars[1].Low.Equal(d("0.5")))

	// The carried close survives the metric-only bucket.
	assert.True(t, bars[2].Open.Equal(d("2.0")))
	assert.True(t, bars[2].Close.Equal(d("2.0")))
}

func TestGetPriceDataMetricsOnlyWithoutHistory(t *testing.T) {
	store := &fakeStore{metrics: []model.MetricSample{metric(10*time.Minute, "0.5")}}
	a := New(store)

	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 1)

	assert.True(t, bars[0].Open.IsZero())
	assert.True(t, bars[0].Close.IsZero())
	assert.True(t, bars[0].High.Equal(d("0.5")))
	assert.True(t, bars[0].Low.Equal(d("0.5")))
}

func TestGetPriceDataCarriesCloseForward(t *testing.T) {
	store := &fakeStore{sales: []model.Sale{sale(5*time.Minute, "2.0")}}
	a := New(store)

	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	// Quiet buckets render flat candles at the previous close.
	for _, bar := range bars[1:] {
		assert.True(t, bar.Open.Equal(d("2.0")))
		assert.True(t, bar.High.Equal(d("2.0")))
		assert.True(t, bar.Low.Equal(d("2.0")))
		assert.True(t, bar.Close.Equal(d("2.0")))
	}
}

func TestGetPriceDataSeedsFromHistory(t *testing.T) {
	store := &fakeStore{lastPrice: d("3.3"), hasLast: true}
	a := New(store)

	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Open.Equal(d("3.3")))
	assert.True(t, bars[1].Close.Equal(d("3.3")))
}

func TestGetPriceDataCeilsPartialBucket(t *testing.T) {
	a := New(&fakeStore{})
	bars, err := a.GetPriceData(context.Background(), "col-1", time.Hour, base, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestGetPriceDataRejectsBadInput(t *testing.T) {
	a := New(&fakeStore{})

	_, err := a.GetPriceData(context.Background(), "col-1", 0, base, base.Add(time.Hour))
	require.Error(t, err)

	_, err = a.GetPriceData(context.Background(), "col-1", time.Hour, base, base)
	require.Error(t, err)
}

func TestGetPriceDataBucketStarts(t *testing.T) {
	a := New(&fakeStore{})
	bars, err := a.GetPriceData(context.Background(), "col-1", 30*time.Minute, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, base, bars[0].BucketStart)
	assert.Equal(t, base.Add(30*time.Minute), bars[1].BucketStart)
}
