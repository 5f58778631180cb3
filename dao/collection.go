package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

const (
	floorPriceCacheKeyPrefix = "agent:floor:"
	floorPriceCacheSeconds   = 30
)

// GetAllCollections returns every tracked collection.
func (d *Dao) GetAllCollections(ctx context.Context) ([]model.Collection, error) {
	var collections []model.Collection
	if err := d.DB.WithContext(ctx).Find(&collections).Error; err != nil {
		return nil, errors.Wrap(err, "failed on get all collections")
	}
	return collections, nil
}

// GetCollectionByID returns the tracked collection, or nil when absent.
func (d *Dao) GetCollectionByID(ctx context.Context, collectionID string) (*model.Collection, error) {
	var collection model.Collection
	err := d.DB.WithContext(ctx).Where("collection_id = ?", collectionID).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed on get collection by id")
	}
	return &collection, nil
}

// UpsertCollection creates the collection row or refreshes its name and
// contract address. The floor price is only taken when non-zero; the
// market update cycle owns it afterwards.
func (d *Dao) UpsertCollection(ctx context.Context, collection model.Collection) error {
	var existing model.Collection
	err := d.DB.WithContext(ctx).
		Where("collection_id = ?", collection.CollectionID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		collection.UpdatedAt = time.Now()
		if err := d.DB.WithContext(ctx).Create(&collection).Error; err != nil {
			return errors.Wrap(err, "failed on create collection")
		}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed on get collection for upsert")
	}

	updates := map[string]interface{}{
		"name":             collection.Name,
		"contract_address": collection.ContractAddress,
		"updated_at":       time.Now(),
	}
	if !collection.CurrentFloorPrice.IsZero() {
		updates["current_floor_price"] = collection.CurrentFloorPrice
	}
	if err := d.DB.WithContext(ctx).Model(&model.Collection{}).
		Where("collection_id = ?", collection.CollectionID).
		Updates(updates).Error; err != nil {
		return errors.Wrap(err, "failed on update collection")
	}
	return nil
}

// UpdateCollectionFloorPrice writes the current floor price to the
// collection row and refreshes the kv cache entry.
func (d *Dao) UpdateCollectionFloorPrice(ctx context.Context, collectionID string, floorPrice decimal.Decimal) error {
	if err := d.DB.WithContext(ctx).Model(&model.Collection{}).
		Where("collection_id = ?", collectionID).
		Updates(map[string]interface{}{
			"current_floor_price": floorPrice,
			"updated_at":          time.Now(),
		}).Error; err != nil {
		return errors.Wrap(err, "failed on update collection floor price")
	}

	if d.KvStore != nil {
		if err := d.KvStore.Setex(floorPriceCacheKeyPrefix+collectionID, floorPrice.String(), floorPriceCacheSeconds); err != nil {
			// Cache misses fall through to the database, so a write failure
			// is not worth failing the cycle over.
			return nil
		}
	}
	return nil
}

// GetCurrentFloorPrice returns the collection's latest floor price,
// served from the kv cache when fresh.
func (d *Dao) GetCurrentFloorPrice(ctx context.Context, collectionID string) (decimal.Decimal, error) {
	if d.KvStore != nil {
		if cached, err := d.KvStore.Get(floorPriceCacheKeyPrefix + collectionID); err == nil && cached != "" {
			if price, perr := decimal.NewFromString(cached); perr == nil {
				return price, nil
			}
		}
	}

	var collection model.Collection
	if err := d.DB.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		First(&collection).Error; err != nil {
		return decimal.Zero, errors.Wrap(err, "failed on get current floor price")
	}
	return collection.CurrentFloorPrice, nil
}
