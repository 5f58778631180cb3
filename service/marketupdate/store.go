package marketupdate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

// Store is the persistence surface the market update cycle writes
// through.
type Store interface {
	GetAllCollections(ctx context.Context) ([]model.Collection, error)
	UpdateCollectionFloorPrice(ctx context.Context, collectionID string, floorPrice decimal.Decimal) error

	GetActiveListing(ctx context.Context, nftID string) (*model.Listing, error)
	UpdateListingStatus(ctx context.Context, listingID int64, status string, eventTime time.Time) error
	UpsertListing(ctx context.Context, listing *model.Listing) error
	MarkNonFloorListings(ctx context.Context, collectionID string, floorNftIDs []string) error
	CountActiveListings(ctx context.Context, collectionID string) (int64, error)

	SaleExists(ctx context.Context, transactionHash string) (bool, error)
	CreateSale(ctx context.Context, sale *model.Sale) error
	GetSalesVolumeSince(ctx context.Context, collectionID string, since time.Time) (decimal.Decimal, int64, error)

	AppendMetricSample(ctx context.Context, sample *model.MetricSample) error
	ReplaceCurrentPriceLevels(ctx context.Context, collectionID string, levels []model.PriceLevel) error
	GetBestPriceLevel(ctx context.Context, collectionID string) (*model.PriceLevel, error)
}

// MarketAPI is the slice of the marketplace client the cycle reads from.
type MarketAPI interface {
	GetTokens(ctx context.Context, contractAddress string) ([]marketplace.Token, error)
	GetExecutableBids(ctx context.Context, contractAddress string) ([]marketplace.BidLevel, error)
	GetActivityEvents(ctx context.Context, contractAddress string, count int) ([]marketplace.Event, error)
}
