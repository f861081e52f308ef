package service

import (
	"context"
	"time"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	msgRankingLoading = "Data is being processed. Please try again shortly."
	msgRankingError   = "Internal server error while fetching top items."
)

// TopItemsService ranks a merchant's items over the trailing 30 days
type TopItemsService struct {
	analyticsRepo repository.AnalyticsRepository
	catalog       *ItemCatalogService
	anchor        AnchorProvider
	cache         repository.Cache[TopItemsResult]
	cfg           config.AnalyticsConfig
	log           *zap.Logger
	group         singleflight.Group
}

// NewTopItemsService creates a new top items service
func NewTopItemsService(
	analyticsRepo repository.AnalyticsRepository,
	catalog *ItemCatalogService,
	anchor AnchorProvider,
	cache repository.Cache[TopItemsResult],
	cfg config.AnalyticsConfig,
	log *zap.Logger,
) *TopItemsService {
	return &TopItemsService{
		analyticsRepo: analyticsRepo,
		catalog:       catalog,
		anchor:        anchor,
		cache:         cache,
		cfg:           cfg,
		log:           log,
	}
}

// RankedItem is one entry of the ranking
type RankedItem struct {
	ID         int     `json:"id"`
	ItemID     string  `json:"item_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Count      int64   `json:"count"`
	Percentage int     `json:"percentage"`
}

// ChartDataset holds the bar values of a chart
type ChartDataset struct {
	Data []int64 `json:"data"`
}

// ChartData is a bar chart with abbreviated item names as labels
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// TopItemsResult is the ranking of a merchant. Percentages are shares of the
// returned items only, not of every item sold.
type TopItemsResult struct {
	MerchantID        string            `json:"merchant_id"`
	StartDate         string            `json:"start_date,omitempty"`
	EndDate           string            `json:"end_date,omitempty"`
	Items             []RankedItem      `json:"items,omitempty"`
	ChartData         *ChartData        `json:"chart_data,omitempty"`
	BestSeller        string            `json:"best_seller,omitempty"`
	BestSellerPercent int               `json:"best_seller_percent"`
	Status            enum.ResultStatus `json:"status"`
	Message           string            `json:"message,omitempty"`
}

// BestSeller is the single most sold item of a merchant
type BestSeller struct {
	Name       string            `json:"name,omitempty"`
	Percentage int               `json:"percentage"`
	Status     enum.ResultStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
}

// TopItems returns the merchant's top items. The first successful ranking of a
// merchant is memoized and served for every later call, whatever the limit,
// until Invalidate is called for that merchant.
func (s *TopItemsService) TopItems(ctx context.Context, merchantID string, limit int) (*TopItemsResult, error) {
	if limit < 1 {
		limit = s.cfg.TopItemsLimit
	}

	if cached, ok := s.cache.Get(ctx, merchantID); ok {
		return &cached, nil
	}

	// Waiters share the ranking, so it runs detached from the first caller's cancellation
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(merchantID, func() (interface{}, error) {
		if cached, ok := s.cache.Get(shared, merchantID); ok {
			return &cached, nil
		}

		result := s.rank(shared, merchantID, s.anchor.Latest(shared), limit)
		if result.Status == enum.StatusSuccess {
			if err := s.cache.Put(shared, merchantID, *result); err != nil {
				s.log.Warn("failed to cache top items", zap.String("merchant_id", merchantID), zap.Error(err))
			} else {
				s.log.Debug("top items cached", zap.String("merchant_id", merchantID))
			}
		}
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TopItemsResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rank computes the ranking for the 30 days ending on anchor without touching the cache
func (s *TopItemsService) rank(ctx context.Context, merchantID string, anchor time.Time, limit int) *TopItemsResult {
	window, _ := analytics.Current(anchor, enum.PeriodMonth)

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "TopItems.Rank", merchantID, attribute.Int("limit", limit))
	defer span.End()

	result := &TopItemsResult{
		MerchantID: merchantID,
		StartDate:  window.StartString(),
		EndDate:    window.EndString(),
	}

	rows, err := s.analyticsRepo.GetTopItems(ctx, merchantID, window.Start, window.End, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Error("failed to rank top items", zap.String("merchant_id", merchantID), zap.Error(err))
		result.Status = enum.StatusError
		result.Message = msgRankingError
		return result
	}
	if len(rows) == 0 {
		result.Status = enum.StatusLoading
		result.Message = msgRankingLoading
		return result
	}

	catalog, err := s.catalog.Catalog(ctx, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Error("failed to load catalog for ranking", zap.String("merchant_id", merchantID), zap.Error(err))
		result.Status = enum.StatusError
		result.Message = msgRankingError
		return result
	}

	var total int64
	for _, row := range rows {
		total += row.ItemCount
	}

	chart := &ChartData{
		Labels:   make([]string, 0, len(rows)),
		Datasets: []ChartDataset{{Data: make([]int64, 0, len(rows))}},
	}
	result.Items = make([]RankedItem, 0, len(rows))
	for _, row := range rows {
		result.Items = append(result.Items, RankedItem{
			ID:         catalog.PresentationID(row.ItemID),
			ItemID:     row.ItemID,
			Name:       row.ItemName,
			Price:      money(row.ItemPrice),
			Count:      row.ItemCount,
			Percentage: analytics.SharePercent(row.ItemCount, total),
		})
		chart.Labels = append(chart.Labels, abbreviate(row.ItemName, s.cfg.LabelMaxLen))
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, row.ItemCount)
	}

	result.ChartData = chart
	result.BestSeller = result.Items[0].Name
	result.BestSellerPercent = result.Items[0].Percentage
	result.Status = enum.StatusSuccess
	return result
}

// BestSeller returns the top item of the merchant. A memoized ranking is reused;
// otherwise the top item is compared against every order line of the window.
func (s *TopItemsService) BestSeller(ctx context.Context, merchantID string) (*BestSeller, error) {
	if cached, ok := s.cache.Get(ctx, merchantID); ok {
		return bestSellerOf(&cached), nil
	}
	return s.bestSeller(ctx, merchantID, s.anchor.Latest(ctx))
}

// BestSellerAt is BestSeller for the 30 days ending on anchor. A memoized
// ranking is only reused when it covers the same window.
func (s *TopItemsService) BestSellerAt(ctx context.Context, merchantID string, anchor time.Time) (*BestSeller, error) {
	if cached, ok := s.cache.Get(ctx, merchantID); ok && cached.EndDate == analytics.FormatDate(anchor) {
		return bestSellerOf(&cached), nil
	}
	return s.bestSeller(ctx, merchantID, anchor)
}

func bestSellerOf(ranking *TopItemsResult) *BestSeller {
	return &BestSeller{
		Name:       ranking.BestSeller,
		Percentage: ranking.BestSellerPercent,
		Status:     enum.StatusSuccess,
	}
}

func (s *TopItemsService) bestSeller(ctx context.Context, merchantID string, anchor time.Time) (*BestSeller, error) {
	window, _ := analytics.Current(anchor, enum.PeriodMonth)

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "TopItems.BestSeller", merchantID)
	defer span.End()

	rows, err := s.analyticsRepo.GetTopItems(ctx, merchantID, window.Start, window.End, 1)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Error("failed to find best seller", zap.String("merchant_id", merchantID), zap.Error(err))
		return &BestSeller{Status: enum.StatusError, Message: msgRankingError}, nil
	}
	if len(rows) == 0 {
		return &BestSeller{Status: enum.StatusLoading, Message: msgRankingLoading}, nil
	}

	total, err := s.analyticsRepo.CountOrderLines(ctx, merchantID, window.Start, window.End)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Error("failed to count order lines", zap.String("merchant_id", merchantID), zap.Error(err))
		return &BestSeller{Status: enum.StatusError, Message: msgRankingError}, nil
	}

	return &BestSeller{
		Name:       rows[0].ItemName,
		Percentage: analytics.SharePercent(rows[0].ItemCount, total),
		Status:     enum.StatusSuccess,
	}, nil
}

// Invalidate forgets the memoized ranking of a merchant
func (s *TopItemsService) Invalidate(ctx context.Context, merchantID string) error {
	return s.cache.Invalidate(ctx, merchantID)
}

// InvalidateAll forgets every memoized ranking
func (s *TopItemsService) InvalidateAll(ctx context.Context) error {
	return s.cache.Clear(ctx)
}
