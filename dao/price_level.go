package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// ReplaceCurrentPriceLevels swaps the collection's bid level snapshot for
// a fresh one and appends every level to the history table.
func (d *Dao) ReplaceCurrentPriceLevels(ctx context.Context, collectionID string, levels []model.PriceLevel) error {
	now := time.Now()
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collectionID).
			Delete(&model.PriceLevel{}).Error; err != nil {
			return errors.Wrap(err, "failed on clear current price levels")
		}

		for i := range levels {
			levels[i].ID = 0
			levels[i].CollectionID = collectionID
			levels[i].LastUpdated = now
			if err := tx.Create(&levels[i]).Error; err != nil {
				return errors.Wrap(err, "failed on insert price level")
			}

			history := model.PriceLevelHistory{
				CollectionID:          collectionID,
				Price:                 levels[i].Price,
				ExecutableSize:        levels[i].ExecutableSize,
				NumberBidders:         levels[i].NumberBidders,
				BidderAddressesSample: levels[i].BidderAddressesSample,
				CriteriaType:          levels[i].CriteriaType,
				Timestamp:             now,
			}
			if err := tx.Create(&history).Error; err != nil {
				return errors.Wrap(err, "failed on insert price level history")
			}
		}
		return nil
	})
}

// GetBestPriceLevel returns the highest-priced current bid level for a
// collection, or nil when no snapshot exists.
func (d *Dao) GetBestPriceLevel(ctx context.Context, collectionID string) (*model.PriceLevel, error) {
	var level model.PriceLevel
	err := d.DB.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("price desc").
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed on get best price level")
	}
	return &level, nil
}
