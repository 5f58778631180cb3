package pricedata

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// Store is the read surface the aggregator buckets from.
type Store interface {
	FindSalesInRange(ctx context.Context, collectionID string, from, to time.Time) ([]model.Sale, error)
	FindMetricsInRange(ctx context.Context, collectionID string, from, to time.Time) ([]model.MetricSample, error)
	FindLastSaleOrMetricBefore(ctx context.Context, collectionID string, t time.Time) (decimal.Decimal, bool, error)
}

// PriceBar is one OHLC candle.
type PriceBar struct {
	BucketStart time.Time       `json:"bucketStart"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
}

// Aggregator builds OHLC candles over a collection's sales and floor
// samples.
type Aggregator struct {
	store Store
}

func New(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// GetPriceData buckets [from, to) into interval-sized candles. Sales set
// open and close, floor samples stretch high and low, and buckets with
// no data carry the previous close forward. The series is seeded with
// the last price known before the window, so a quiet leading stretch
// still renders flat candles instead of zeros.
func (a *Aggregator) GetPriceData(ctx context.Context, collectionID string, interval time.Duration, from, to time.Time) ([]PriceBar, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if !to.After(from) {
		return nil, errors.New("empty time range")
	}

	sales, err := a.store.FindSalesInRange(ctx, collectionID, from, to)
	if err != nil {
		return nil, err
	}
	metrics, err := a.store.FindMetricsInRange(ctx, collectionID, from, to)
	if err != nil {
		return nil, err
	}

	lastClose, _, err := a.store.FindLastSaleOrMetricBefore(ctx, collectionID, from)
	if err != nil {
		return nil, err
	}

	// Ceil so a partial trailing bucket still gets a candle.
	buckets := int((to.Sub(from) + interval - 1) / interval)
	bars := make([]PriceBar, 0, buckets)

	saleIdx, metricIdx := 0, 0
	for i := 0; i < buckets; i++ {
		bucketStart := from.Add(time.Duration(i) * interval)
		bucketEnd := bucketStart.Add(interval)

		bar := PriceBar{
			BucketStart: bucketStart,
			Open:        lastClose,
			High:        lastClose,
			Low:         lastClose,
			Close:       lastClose,
		}

		sawSale := false
		for saleIdx < len(sales) && sales[saleIdx].SoldAt.Before(bucketEnd) {
			price := sales[saleIdx].Price
			if !sawSale {
				bar.Open = price
				bar.High = price
				bar.Low = price
				sawSale = true
			}
			if price.GreaterThan(bar.High) {
				bar.High = price
			}
			if price.LessThan(bar.Low) {
				bar.Low = price
			}
			bar.Close = price
			saleIdx++
		}

		// Floor samples only stretch the extremes; open and close stay
		// with the trade series.
		for metricIdx < len(metrics) && metrics[metricIdx].Timestamp.Before(bucketEnd) {
			price := metrics[metricIdx].FloorPrice
			if !sawSale && bar.Low.IsZero() {
				bar.High = price
				bar.Low = price
			}
			if price.GreaterThan(bar.High) {
				bar.High = price
			}
			if price.LessThan(bar.Low) {
				bar.Low = price
			}
			metricIdx++
		}

		if !bar.Close.IsZero() {
			lastClose = bar.Close
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
