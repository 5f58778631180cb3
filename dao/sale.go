package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// CreateSale inserts a sale record. The unique index on transaction_hash
// plus the conflict-ignore clause makes repeated submission of the same
// transaction a no-op.
func (d *Dao) CreateSale(ctx context.Context, sale *model.Sale) error {
	if err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(sale).Error; err != nil {
		return errors.Wrap(err, "failed on create sale")
	}
	return nil
}

// SaleExists reports whether a sale with the transaction hash is already
// recorded.
func (d *Dao) SaleExists(ctx context.Context, transactionHash string) (bool, error) {
	var count int64
	if err := d.DB.WithContext(ctx).Model(&model.Sale{}).
		Where("transaction_hash = ?", transactionHash).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed on check sale exists")
	}
	return count > 0, nil
}

// FindSalesInRange returns the collection's sales with sold_at in
// [from, to], chronologically ascending.
func (d *Dao) FindSalesInRange(ctx context.Context, collectionID string, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	if err := d.DB.WithContext(ctx).
		Where("collection_id = ? AND sold_at >= ? AND sold_at <= ?", collectionID, from, to).
		Order("sold_at asc").
		Find(&sales).Error; err != nil {
		return nil, errors.Wrap(err, "failed on find sales in range")
	}
	return sales, nil
}

// SalesStats aggregates sales over a window, split by taker side.
type SalesStats struct {
	AskTaken    int64
	AskAvgPrice string
	BidsTaken   int64
	BidAvgPrice string
}

// GetSalesStatsSince computes per-side sale counts and average prices for
// a collection since the given time.
func (d *Dao) GetSalesStatsSince(ctx context.Context, collectionID string, since time.Time) (*SalesStats, error) {
	type row struct {
		Side     string
		Cnt      int64
		AvgPrice string
	}

	var rows []row
	if err := d.DB.WithContext(ctx).Model(&model.Sale{}).
		Select("side, count(*) as cnt, coalesce(avg(price), 0) as avg_price").
		Where("collection_id = ? AND sold_at >= ?", collectionID, since).
		Group("side").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed on get sales stats")
	}

	stats := &SalesStats{AskAvgPrice: "0", BidAvgPrice: "0"}
	for _, r := range rows {
		switch r.Side {
		case model.SaleSideAsk:
			stats.AskTaken = r.Cnt
			stats.AskAvgPrice = r.AvgPrice
		case model.SaleSideBid:
			stats.BidsTaken = r.Cnt
			stats.BidAvgPrice = r.AvgPrice
		}
	}
	return stats, nil
}

// GetSalesVolumeSince returns total traded volume and sale count for a
// collection since the given time.
func (d *Dao) GetSalesVolumeSince(ctx context.Context, collectionID string, since time.Time) (decimal.Decimal, int64, error) {
	type row struct {
		Volume string
		Cnt    int64
	}
	var r row
	if err := d.DB.WithContext(ctx).Model(&model.Sale{}).
		Select("coalesce(sum(price), 0) as volume, count(*) as cnt").
		Where("collection_id = ? AND sold_at >= ?", collectionID, since).
		Scan(&r).Error; err != nil {
		return decimal.Zero, 0, errors.Wrap(err, "failed on get sales volume")
	}
	volume, err := decimal.NewFromString(r.Volume)
	if err != nil {
		return decimal.Zero, 0, errors.Wrap(err, "failed on parse sales volume")
	}
	return volume, r.Cnt, nil
}

func (d *Dao) findLastSaleBefore(ctx context.Context, collectionID string, t time.Time) (*model.Sale, error) {
	var sale model.Sale
	err := d.DB.WithContext(ctx).
		Where("collection_id = ? AND sold_at < ?", collectionID, t).
		Order("sold_at desc").
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed on find last sale before")
	}
	return &sale, nil
}
