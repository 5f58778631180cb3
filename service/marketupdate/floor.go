package marketupdate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

const defaultFloorMarginBPS = 20

// FloorService tracks each collection's floor and writes the per-cycle
// metric sample.
type FloorService struct {
	api       MarketAPI
	store     Store
	marginBPS int64
}

func NewFloorService(api MarketAPI, store Store, marginBPS int64) *FloorService {
	if marginBPS <= 0 {
		marginBPS = defaultFloorMarginBPS
	}
	return &FloorService{api: api, store: store, marginBPS: marginBPS}
}

// Update fetches the collection's listed tokens (cheapest first),
// refreshes the floor price and the floor-band listings, and appends the
// cycle's metric sample.
func (s *FloorService) Update(ctx context.Context, collection *model.Collection) error {
	tokens, err := s.api.GetTokens(ctx, collection.ContractAddress)
	if err != nil {
		return err
	}

	now := time.Now()
	floorPrice := tokens[0].Price.Amount
	if err := s.store.UpdateCollectionFloorPrice(ctx, collection.CollectionID, floorPrice); err != nil {
		return err
	}

	// Tokens priced within the margin above the floor count as the floor
	// band and keep their floor flag.
	cutoff := floorPrice.Mul(decimal.NewFromInt(10000 + s.marginBPS)).Div(decimal.NewFromInt(10000))
	floorNftIDs := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.Price.Amount.GreaterThan(cutoff) {
			break
		}
		nftID := collection.CollectionID + "-" + token.TokenID

		listedAt := now
		if t, err := time.Parse(time.RFC3339, token.Price.ListedAt); err == nil {
			listedAt = t
		}
		if err := s.store.UpsertListing(ctx, &model.Listing{
			NftID:         nftID,
			TokenID:       token.TokenID,
			CollectionID:  collection.CollectionID,
			SellerAddress: token.Owner.Address,
			CurrentPrice:  token.Price.Amount,
			Marketplace:   token.Price.Marketplace,
			ListedAt:      listedAt,
			LastUpdatedAt: now,
			IsFloor:       true,
			Status:        model.ListingStatusActive,
			RarityScore:   token.RarityScore,
		}); err != nil {
			return err
		}
		floorNftIDs = append(floorNftIDs, nftID)
	}

	if err := s.store.MarkNonFloorListings(ctx, collection.CollectionID, floorNftIDs); err != nil {
		return err
	}

	return s.appendSample(ctx, collection, floorPrice, len(floorNftIDs), now)
}

func (s *FloorService) appendSample(ctx context.Context, collection *model.Collection, floorPrice decimal.Decimal, floorDepth int, now time.Time) error {
	sample := &model.MetricSample{
		CollectionID: collection.CollectionID,
		Timestamp:    now,
		FloorPrice:   floorPrice,
		FloorDepth:   floorDepth,
	}

	if best, err := s.store.GetBestPriceLevel(ctx, collection.CollectionID); err != nil {
		return err
	} else if best != nil {
		sample.BestBidPrice = best.Price
		sample.BestBidDepth = best.ExecutableSize
	}

	volume, saleCount, err := s.store.GetSalesVolumeSince(ctx, collection.CollectionID, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}
	sample.Volume = volume
	sample.TotalSales = int(saleCount)

	listings, err := s.store.CountActiveListings(ctx, collection.CollectionID)
	if err != nil {
		return err
	}
	sample.TotalListings = int(listings)

	return s.store.AppendMetricSample(ctx, sample)
}
