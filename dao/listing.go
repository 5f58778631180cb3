package dao

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// GetActiveListing returns the token's ACTIVE listing, or nil.
func (d *Dao) GetActiveListing(ctx context.Context, nftID string) (*model.Listing, error) {
	var listing model.Listing
	err := d.DB.WithContext(ctx).
		Where("nft_id = ? AND status = ?", nftID, model.ListingStatusActive).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed on get active listing")
	}
	return &listing, nil
}

// UpdateListingStatus stamps a listing with a new status if the event is
// newer than the row's last update.
func (d *Dao) UpdateListingStatus(ctx context.Context, listingID int64, status string, eventTime time.Time) error {
	if err := d.DB.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"status":          status,
			"last_updated_at": eventTime,
		}).Error; err != nil {
		return errors.Wrap(err, "failed on update listing status")
	}
	return nil
}

// UpsertListing creates or refreshes the listing row for a token.
func (d *Dao) UpsertListing(ctx context.Context, listing *model.Listing) error {
	var existing model.Listing
	err := d.DB.WithContext(ctx).
		Where("nft_id = ?", listing.NftID).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed on find listing")
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		listing.InitialPrice = listing.CurrentPrice
		listing.UpdateCount = 0
		if err := d.DB.WithContext(ctx).Create(listing).Error; err != nil {
			return errors.Wrap(err, "failed on create listing")
		}
		return nil
	}

	if err := d.DB.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"seller_address":  listing.SellerAddress,
			"current_price":   listing.CurrentPrice,
			"marketplace":     listing.Marketplace,
			"listed_at":       listing.ListedAt,
			"last_updated_at": time.Now(),
			"is_floor":        listing.IsFloor,
			"status":          listing.Status,
			"rarity_score":    listing.RarityScore,
			"update_count":    existing.UpdateCount + 1,
		}).Error; err != nil {
		return errors.Wrap(err, "failed on update listing")
	}
	return nil
}

// MarkNonFloorListings clears the floor flag on the collection's ACTIVE
// listings whose tokens are no longer within the floor margin.
func (d *Dao) MarkNonFloorListings(ctx context.Context, collectionID string, floorNftIDs []string) error {
	q := d.DB.WithContext(ctx).Model(&model.Listing{}).
		Where("collection_id = ? AND status = ?", collectionID, model.ListingStatusActive)
	if len(floorNftIDs) > 0 {
		q = q.Where("nft_id NOT IN ?", floorNftIDs)
	}
	if err := q.Updates(map[string]interface{}{
		"is_floor":        false,
		"last_updated_at": time.Now(),
	}).Error; err != nil {
		return errors.Wrap(err, "failed on mark non-floor listings")
	}
	return nil
}

// CountActiveListings returns the number of ACTIVE listings tracked for a
// collection.
func (d *Dao) CountActiveListings(ctx context.Context, collectionID string) (int64, error) {
	var count int64
	if err := d.DB.WithContext(ctx).Model(&model.Listing{}).
		Where("collection_id = ? AND status = ?", collectionID, model.ListingStatusActive).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed on count active listings")
	}
	return count, nil
}
