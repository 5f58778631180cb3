package marketupdate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

const activityFetchCount = 100

// EventService folds recent marketplace activity into the local sale and
// listing tables.
type EventService struct {
	api   MarketAPI
	store Store
}

func NewEventService(api MarketAPI, store Store) *EventService {
	return &EventService{api: api, store: store}
}

// Process pulls the collection's recent activity and applies sales and
// transfers. Individual malformed events are skipped, not fatal.
func (s *EventService) Process(ctx context.Context, collection *model.Collection) error {
	events, err := s.api.GetActivityEvents(ctx, collection.ContractAddress, activityFetchCount)
	if err != nil {
		return err
	}

	for _, event := range events {
		switch event.EventType {
		case marketplace.EventTypeSale:
			if err := s.applySale(ctx, collection, event); err != nil {
				return err
			}
		case marketplace.EventTypeTransfer:
			if err := s.applyTransfer(ctx, collection, event); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *EventService) applySale(ctx context.Context, collection *model.Collection, event marketplace.Event) error {
	// A sale without a transaction hash cannot be deduplicated; skip it
	// rather than double-count on the next cycle.
	if event.TransactionHash == nil || *event.TransactionHash == "" {
		return nil
	}
	exists, err := s.store.SaleExists(ctx, *event.TransactionHash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	eventTime, ok := parseEventTime(event.CreatedAt)
	if !ok {
		xzap.WithContext(ctx).Warn("skipping sale with unparseable timestamp",
			zap.String("collection_id", collection.CollectionID),
			zap.String("created_at", event.CreatedAt))
		return nil
	}

	nftID := collection.CollectionID + "-" + event.TokenID
	listing, err := s.store.GetActiveListing(ctx, nftID)
	if err != nil {
		return err
	}
	if listing != nil && eventTime.After(listing.LastUpdatedAt) {
		if err := s.store.UpdateListingStatus(ctx, listing.ID, model.ListingStatusSold, eventTime); err != nil {
			return err
		}
	}

	var buyer string
	if event.ToTrader != nil {
		buyer = event.ToTrader.Address
	}
	return s.store.CreateSale(ctx, &model.Sale{
		NftID:           nftID,
		CollectionID:    collection.CollectionID,
		BuyerAddress:    buyer,
		SellerAddress:   event.FromTrader.Address,
		Price:           event.Price.Amount,
		Marketplace:     event.Marketplace,
		TransactionHash: *event.TransactionHash,
		SoldAt:          eventTime,
		Side:            saleSide(event.MakerSide),
	})
}

func (s *EventService) applyTransfer(ctx context.Context, collection *model.Collection, event marketplace.Event) error {
	eventTime, ok := parseEventTime(event.CreatedAt)
	if !ok {
		return nil
	}

	nftID := collection.CollectionID + "-" + event.TokenID
	listing, err := s.store.GetActiveListing(ctx, nftID)
	if err != nil {
		return err
	}
	if listing == nil || !eventTime.After(listing.LastUpdatedAt) {
		return nil
	}
	return s.store.UpdateListingStatus(ctx, listing.ID, model.ListingStatusTransferred, eventTime)
}

// saleSide maps the order maker's side to which book side got taken: a
// buyer-made order is a bid that filled, anything else is a listing.
func saleSide(makerSide *string) string {
	if makerSide != nil && strings.EqualFold(*makerSide, "BUYER") {
		return model.SaleSideBid
	}
	return model.SaleSideAsk
}

func parseEventTime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
