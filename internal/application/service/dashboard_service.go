package service

import (
	"context"
	"fmt"

	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardService assembles the merchant home screen from the analytics services
type DashboardService struct {
	summaries *SalesSummaryService
	trends    *SalesTrendService
	topItems  *TopItemsService
	anchor    AnchorProvider
	log       *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	summaries *SalesSummaryService,
	trends *SalesTrendService,
	topItems *TopItemsService,
	anchor AnchorProvider,
	log *zap.Logger,
) *DashboardService {
	return &DashboardService{
		summaries: summaries,
		trends:    trends,
		topItems:  topItems,
		anchor:    anchor,
		log:       log,
	}
}

// Overview is the headline figures of a merchant's dashboard
type Overview struct {
	MerchantID         string            `json:"merchant_id"`
	AnchorDate         string            `json:"anchor_date"`
	TodaySales         string            `json:"today_sales"`
	TodayOrders        int64             `json:"today_orders"`
	WeekSales          string            `json:"week_sales"`
	WeekOrders         int64             `json:"week_orders"`
	WeekOverWeekChange float64           `json:"week_over_week_change"`
	TopItem            string            `json:"top_item,omitempty"`
	TopItemPercent     int               `json:"top_item_percent"`
	PeakHour           string            `json:"peak_hour"`
	Status             enum.ResultStatus `json:"status"`
	Today              *SalesSummary     `json:"today"`
	Week               *SalesSummary     `json:"week"`
}

// Overview loads the day and week summaries, the best seller and the daily
// trend concurrently, all anchored on the same date
func (s *DashboardService) Overview(ctx context.Context, merchantID string) (*Overview, error) {
	ctx, span := telemetry.StartSpan(ctx, "Dashboard.Overview", merchantID)
	defer span.End()

	anchor := s.anchor.Latest(ctx)

	var (
		today, week *SalesSummary
		best        *BestSeller
		trend       *SalesTrend
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.summaries.SummarizeAt(gctx, merchantID, enum.PeriodDay, anchor)
		return err
	})
	g.Go(func() error {
		var err error
		week, err = s.summaries.SummarizeAt(gctx, merchantID, enum.PeriodWeek, anchor)
		return err
	})
	g.Go(func() error {
		var err error
		best, err = s.topItems.BestSellerAt(gctx, merchantID, anchor)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = s.trends.TrendAt(gctx, merchantID, enum.GranularityDaily, anchor)
		return err
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to build overview: %w", err)
	}

	overview := &Overview{
		MerchantID:         merchantID,
		AnchorDate:         today.EndDate,
		TodaySales:         today.TotalSalesFormatted,
		TodayOrders:        today.TotalOrders,
		WeekSales:          week.TotalSalesFormatted,
		WeekOrders:         week.TotalOrders,
		WeekOverWeekChange: week.SalesChange,
		PeakHour:           trend.Peak,
		Status:             today.Status,
		Today:              today,
		Week:               week,
	}
	if best.Status == enum.StatusSuccess {
		overview.TopItem = best.Name
		overview.TopItemPercent = best.Percentage
	}
	if trend.Status != enum.StatusSuccess {
		overview.PeakHour = analytics.NotAvailable
	}

	s.log.Debug("overview built",
		zap.String("merchant_id", merchantID),
		zap.String("status", overview.Status.String()),
	)
	return overview, nil
}
