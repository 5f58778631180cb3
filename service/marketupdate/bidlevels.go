package marketupdate

import (
	"context"
	"strings"

	"github.com/ProjectsTask/EasySwapAgent/model"
)

// BidLevelService snapshots each collection's public bid book.
type BidLevelService struct {
	api   MarketAPI
	store Store
}

func NewBidLevelService(api MarketAPI, store Store) *BidLevelService {
	return &BidLevelService{api: api, store: store}
}

// Refresh replaces the collection's current bid level snapshot and
// appends the levels to the history table.
func (s *BidLevelService) Refresh(ctx context.Context, collection *model.Collection) error {
	levels, err := s.api.GetExecutableBids(ctx, collection.ContractAddress)
	if err != nil {
		return err
	}

	rows := make([]model.PriceLevel, 0, len(levels))
	for _, level := range levels {
		rows = append(rows, model.PriceLevel{
			CollectionID:          collection.CollectionID,
			Price:                 level.Price,
			ExecutableSize:        level.ExecutableSize,
			NumberBidders:         level.NumberBidders,
			BidderAddressesSample: strings.Join(level.BidderAddressesSample, ","),
			CriteriaType:          level.CriteriaType,
		})
	}
	return s.store.ReplaceCurrentPriceLevels(ctx, collection.CollectionID, rows)
}
