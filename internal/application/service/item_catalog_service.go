package service

import (
	"context"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"github.com/grablet/merchant-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ItemCatalogService assigns the merchant-scoped presentation ids shared by
// item listings, rankings and bundle suggestions
type ItemCatalogService struct {
	itemRepo repository.ItemRepository
	cfg      config.AnalyticsConfig
	log      *zap.Logger
}

// NewItemCatalogService creates a new item catalog service
func NewItemCatalogService(itemRepo repository.ItemRepository, cfg config.AnalyticsConfig, log *zap.Logger) *ItemCatalogService {
	return &ItemCatalogService{itemRepo: itemRepo, cfg: cfg, log: log}
}

// CatalogItem is an item with its presentation id
type CatalogItem struct {
	ID         int     `json:"id"`
	ItemID     string  `json:"item_id"`
	Name       string  `json:"item_name"`
	Price      float64 `json:"item_price"`
	CuisineTag *string `json:"cuisine_tag,omitempty"`

	exactPrice decimal.Decimal
}

// ExactPrice returns the price without float rounding
func (i CatalogItem) ExactPrice() decimal.Decimal {
	return i.exactPrice
}

// Catalog is a merchant's items numbered 1..N in ascending storage id order
type Catalog struct {
	MerchantID string
	Items      []CatalogItem

	index map[string]int
}

// Lookup finds an item by its storage id
func (c *Catalog) Lookup(itemID string) (CatalogItem, bool) {
	i, ok := c.index[itemID]
	if !ok {
		return CatalogItem{}, false
	}
	return c.Items[i], true
}

// PresentationID returns the id shown to clients for itemID, or 0 when the
// item does not belong to the merchant
func (c *Catalog) PresentationID(itemID string) int {
	item, ok := c.Lookup(itemID)
	if !ok {
		return 0
	}
	return item.ID
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.Items)
}

// Catalog loads the merchant's items and numbers them
func (s *ItemCatalogService) Catalog(ctx context.Context, merchantID string) (*Catalog, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "ItemCatalog.Catalog", merchantID)
	defer span.End()

	items, err := s.itemRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	catalog := &Catalog{
		MerchantID: merchantID,
		Items:      make([]CatalogItem, 0, len(items)),
		index:      make(map[string]int, len(items)),
	}
	for i, item := range items {
		catalog.index[item.ItemID] = i
		catalog.Items = append(catalog.Items, CatalogItem{
			ID:         i + 1,
			ItemID:     item.ItemID,
			Name:       item.ItemName,
			Price:      money(item.ItemPrice),
			CuisineTag: item.CuisineTag,
			exactPrice: item.ItemPrice,
		})
	}
	return catalog, nil
}

// ListItems returns one page of the merchant's catalog. Ids are assigned over
// the whole catalog before paginating so they never depend on the page.
func (s *ItemCatalogService) ListItems(ctx context.Context, merchantID string, params pagination.Params) (*pagination.Result[CatalogItem], error) {
	catalog, err := s.Catalog(ctx, merchantID)
	if err != nil {
		s.log.Error("failed to list items", zap.String("merchant_id", merchantID), zap.Error(err))
		return nil, err
	}
	return pagination.Paginate(catalog.Items, params), nil
}
