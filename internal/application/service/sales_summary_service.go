package service

import (
	"context"
	"time"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	msgNoTransactions    = "No transactions found for this merchant"
	msgTransactionsError = "Failed to load transactions for this merchant"
)

// SalesSummaryService computes period-over-period sales summaries
type SalesSummaryService struct {
	analyticsRepo repository.AnalyticsRepository
	anchor        AnchorProvider
	cfg           config.AnalyticsConfig
	log           *zap.Logger
}

// NewSalesSummaryService creates a new sales summary service
func NewSalesSummaryService(
	analyticsRepo repository.AnalyticsRepository,
	anchor AnchorProvider,
	cfg config.AnalyticsConfig,
	log *zap.Logger,
) *SalesSummaryService {
	return &SalesSummaryService{
		analyticsRepo: analyticsRepo,
		anchor:        anchor,
		cfg:           cfg,
		log:           log,
	}
}

// SalesSummary is the revenue of a merchant over a window compared with the
// equal-length window right before it
type SalesSummary struct {
	MerchantID          string            `json:"merchant_id"`
	Period              enum.Period       `json:"period"`
	StartDate           string            `json:"start_date"`
	EndDate             string            `json:"end_date"`
	PreviousStartDate   string            `json:"previous_start_date"`
	PreviousEndDate     string            `json:"previous_end_date"`
	TotalSales          float64           `json:"total_sales"`
	TotalSalesFormatted string            `json:"total_sales_formatted"`
	TotalOrders         int64             `json:"total_orders"`
	AvgOrderValue       float64           `json:"avg_order_value"`
	PreviousTotalSales  float64           `json:"previous_total_sales"`
	PreviousTotalOrders int64             `json:"previous_total_orders"`
	PreviousAvgOrder    float64           `json:"previous_avg_order_value"`
	SalesChange         float64           `json:"sales_change"`
	OrdersChange        float64           `json:"orders_change"`
	AvgOrderValueChange float64           `json:"avg_order_value_change"`
	Status              enum.ResultStatus `json:"status"`
	Message             string            `json:"message,omitempty"`
}

// periodTotals accumulates the orders of one window
type periodTotals struct {
	sales  decimal.Decimal
	orders int64
}

func (t periodTotals) avgOrderValue() decimal.Decimal {
	if t.orders == 0 {
		return decimal.Zero
	}
	return t.sales.Div(decimal.NewFromInt(t.orders))
}

func totalsIn(rows []repository.TransactionRow, w analytics.Window) periodTotals {
	totals := periodTotals{sales: decimal.Zero}
	for _, row := range rows {
		if w.Contains(row.OrderTime) {
			totals.sales = totals.sales.Add(row.OrderValue)
			totals.orders++
		}
	}
	return totals
}

// Summarize summarizes the period ending on the anchor date
func (s *SalesSummaryService) Summarize(ctx context.Context, merchantID string, period enum.Period) (*SalesSummary, error) {
	period, err := enum.ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}
	return s.SummarizeAt(ctx, merchantID, period, s.anchor.Latest(ctx))
}

// SummarizeAt summarizes the period ending on anchor. Only an unknown period is
// returned as an error; storage failures and missing data are reported through
// the summary status.
func (s *SalesSummaryService) SummarizeAt(ctx context.Context, merchantID string, period enum.Period, anchor time.Time) (*SalesSummary, error) {
	current, previous, err := analytics.Bounds(anchor, period)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "SalesSummary.Summarize", merchantID,
		attribute.String("period", period.String()),
		attribute.String("anchor", analytics.FormatDate(anchor)),
	)
	defer span.End()

	summary := &SalesSummary{
		MerchantID:          merchantID,
		Period:              period,
		StartDate:           current.StartString(),
		EndDate:             current.EndString(),
		PreviousStartDate:   previous.StartString(),
		PreviousEndDate:     previous.EndString(),
		TotalSalesFormatted: "0",
	}

	rows, err := s.analyticsRepo.ListMerchantTransactions(ctx, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Error("failed to summarize sales",
			zap.String("merchant_id", merchantID),
			zap.String("period", period.String()),
			zap.Error(err),
		)
		summary.Status = enum.StatusError
		summary.Message = msgTransactionsError
		return summary, nil
	}

	if len(rows) == 0 {
		summary.Status = enum.StatusNoData
		summary.Message = msgNoTransactions
		return summary, nil
	}

	cur := totalsIn(rows, current)
	prev := totalsIn(rows, previous)

	summary.TotalSales = money(cur.sales)
	summary.TotalSalesFormatted = formatMoney(s.cfg.CurrencyPrefix, cur.sales)
	summary.TotalOrders = cur.orders
	summary.AvgOrderValue = money(cur.avgOrderValue())
	summary.PreviousTotalSales = money(prev.sales)
	summary.PreviousTotalOrders = prev.orders
	summary.PreviousAvgOrder = money(prev.avgOrderValue())

	summary.SalesChange = changeOf(cur.sales, prev.sales)
	summary.OrdersChange = analytics.RoundTo(analytics.PercentChange(float64(cur.orders), float64(prev.orders)), 2)
	summary.AvgOrderValueChange = changeOf(cur.avgOrderValue(), prev.avgOrderValue())
	summary.Status = enum.StatusSuccess

	span.SetAttributes(attribute.Int64("orders", cur.orders))
	return summary, nil
}

func changeOf(current, previous decimal.Decimal) float64 {
	return analytics.RoundTo(analytics.PercentChange(current.InexactFloat64(), previous.InexactFloat64()), 2)
}
