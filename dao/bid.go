package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// SaveBidOrder persists a new bid row.
func (d *Dao) SaveBidOrder(ctx context.Context, bid *model.BidOrder) error {
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = time.Now()
	}
	if err := d.DB.WithContext(ctx).Create(bid).Error; err != nil {
		return errors.Wrap(err, "failed on save bid order")
	}
	return nil
}

// GetActiveBidOrders returns all bids still marked ACTIVE, ordered by id.
func (d *Dao) GetActiveBidOrders(ctx context.Context) ([]model.BidOrder, error) {
	var bids []model.BidOrder
	if err := d.DB.WithContext(ctx).
		Where("status = ?", model.BidStatusActive).
		Order("id asc").
		Find(&bids).Error; err != nil {
		return nil, errors.Wrap(err, "failed on get active bid orders")
	}
	return bids, nil
}

// GetBidOrderByID returns the bid with the given id, or nil when absent.
func (d *Dao) GetBidOrderByID(ctx context.Context, id int64) (*model.BidOrder, error) {
	var bid model.BidOrder
	err := d.DB.WithContext(ctx).Where("id = ?", id).First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed on get bid order by id")
	}
	return &bid, nil
}

// UpdateBidOrderStatus moves a bid from one status to another as a
// compare-and-set: the update only applies while the row still carries the
// expected current status. Returns whether a row was changed, so a lost
// race surfaces as a no-op instead of overwriting a terminal state.
func (d *Dao) UpdateBidOrderStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to == model.BidStatusCanceled {
		now := time.Now()
		updates["canceled_at"] = &now
	}

	res := d.DB.WithContext(ctx).Model(&model.BidOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed on update bid order status")
	}
	return res.RowsAffected > 0, nil
}
