package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// AppendMetricSample stores one market snapshot row.
func (d *Dao) AppendMetricSample(ctx context.Context, sample *model.MetricSample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	if err := d.DB.WithContext(ctx).Create(sample).Error; err != nil {
		return errors.Wrap(err, "failed on append metric sample")
	}
	return nil
}

// FindMetricsInRange returns the collection's metric samples with
// timestamp in [from, to], ascending.
func (d *Dao) FindMetricsInRange(ctx context.Context, collectionID string, from, to time.Time) ([]model.MetricSample, error) {
	var samples []model.MetricSample
	if err := d.DB.WithContext(ctx).
		Where("collection_id = ? AND timestamp >= ? AND timestamp <= ?", collectionID, from, to).
		Order("timestamp asc").
		Find(&samples).Error; err != nil {
		return nil, errors.Wrap(err, "failed on find metrics in range")
	}
	return samples, nil
}

// FindMetricsSince returns all collections' metric samples newer than
// since, ascending. Used by the floor price history endpoint.
func (d *Dao) FindMetricsSince(ctx context.Context, since time.Time) ([]model.MetricSample, error) {
	var samples []model.MetricSample
	if err := d.DB.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("collection_id asc, timestamp asc").
		Find(&samples).Error; err != nil {
		return nil, errors.Wrap(err, "failed on find metrics since")
	}
	return samples, nil
}

func (d *Dao) findLastMetricBefore(ctx context.Context, collectionID string, t time.Time) (*model.MetricSample, error) {
	var sample model.MetricSample
	err := d.DB.WithContext(ctx).
		Where("collection_id = ? AND timestamp < ?", collectionID, t).
		Order("timestamp desc").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed on find last metric before")
	}
	return &sample, nil
}

// FindLastSaleOrMetricBefore returns the price of the most recent sale or
// floor sample strictly before t, preferring whichever happened later.
// The second return reports whether any prior data point exists.
func (d *Dao) FindLastSaleOrMetricBefore(ctx context.Context, collectionID string, t time.Time) (decimal.Decimal, bool, error) {
	sale, err := d.findLastSaleBefore(ctx, collectionID, t)
	if err != nil {
		return decimal.Zero, false, err
	}
	metric, err := d.findLastMetricBefore(ctx, collectionID, t)
	if err != nil {
		return decimal.Zero, false, err
	}

	switch {
	case sale == nil && metric == nil:
		return decimal.Zero, false, nil
	case sale == nil:
		return metric.FloorPrice, true, nil
	case metric == nil:
		return sale.Price, true, nil
	case sale.SoldAt.After(metric.Timestamp):
		return sale.Price, true, nil
	default:
		return metric.FloorPrice, true, nil
	}
}
