package service

import (
	"context"
	"fmt"
	"time"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"github.com/grablet/merchant-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	trendColor       = "rgba(47, 174, 96, 1)"
	trendStrokeWidth = 2
	monthlyParts     = 4
)

// SalesTrendService builds bucketed sales series with a previous-period baseline
type SalesTrendService struct {
	analyticsRepo repository.AnalyticsRepository
	anchor        AnchorProvider
	cfg           config.AnalyticsConfig
	log           *zap.Logger
}

// NewSalesTrendService creates a new sales trend service
func NewSalesTrendService(
	analyticsRepo repository.AnalyticsRepository,
	anchor AnchorProvider,
	cfg config.AnalyticsConfig,
	log *zap.Logger,
) *SalesTrendService {
	return &SalesTrendService{
		analyticsRepo: analyticsRepo,
		anchor:        anchor,
		cfg:           cfg,
		log:           log,
	}
}

// TrendDataset is one line of the chart
type TrendDataset struct {
	Data        []float64 `json:"data"`
	Color       string    `json:"color"`
	StrokeWidth int       `json:"strokeWidth"`
}

// SalesTrend is a chart-ready series. ComparisonData has the same buckets as
// the current series, taken from the previous period.
type SalesTrend struct {
	MerchantID     string            `json:"merchant_id"`
	Granularity    enum.Granularity  `json:"granularity"`
	StartDate      string            `json:"start_date,omitempty"`
	EndDate        string            `json:"end_date,omitempty"`
	Labels         []string          `json:"labels"`
	Datasets       []TrendDataset    `json:"datasets"`
	ComparisonData []float64         `json:"comparison_data"`
	Peak           string            `json:"peak"`
	PeakIncrease   string            `json:"peak_increase"`
	Status         enum.ResultStatus `json:"status"`
}

// Current returns the current-period series
func (t *SalesTrend) Current() []float64 {
	if len(t.Datasets) == 0 {
		return nil
	}
	return t.Datasets[0].Data
}

// Trend builds the series of granularity around the anchor date
func (s *SalesTrendService) Trend(ctx context.Context, merchantID string, granularity enum.Granularity) (*SalesTrend, error) {
	granularity, err := enum.ParseGranularity(string(granularity))
	if err != nil {
		return nil, err
	}
	return s.TrendAt(ctx, merchantID, granularity, s.anchor.Latest(ctx))
}

// TrendAt builds the series of granularity around anchor. A merchant without
// any transaction, or a storage failure, yields the placeholder series.
func (s *SalesTrendService) TrendAt(ctx context.Context, merchantID string, granularity enum.Granularity, anchor time.Time) (*SalesTrend, error) {
	if !granularity.IsValid() {
		return nil, apperror.NewConfigurationError(fmt.Sprintf("unknown granularity %q", granularity))
	}

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "SalesTrend.Trend", merchantID,
		attribute.String("granularity", granularity.String()),
		attribute.String("anchor", analytics.FormatDate(anchor)),
	)
	defer span.End()

	rows, err := s.analyticsRepo.ListMerchantTransactions(ctx, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Warn("serving placeholder sales trend after storage failure",
			zap.String("merchant_id", merchantID),
			zap.String("granularity", granularity.String()),
			zap.Error(err),
		)
		return placeholderTrend(merchantID, granularity), nil
	}
	if len(rows) == 0 {
		return placeholderTrend(merchantID, granularity), nil
	}

	var trend *SalesTrend
	switch granularity {
	case enum.GranularityDaily:
		trend = dailyTrend(rows, anchor)
	case enum.GranularityWeekly:
		trend = weeklyTrend(rows, anchor)
	default:
		trend = monthlyTrend(rows, anchor)
	}
	trend.MerchantID = merchantID
	trend.Granularity = granularity
	trend.Status = enum.StatusSuccess
	return trend, nil
}

// dailyTrend splits the anchor date into 2-hour business blocks and compares
// each block with the same block of the day before
func dailyTrend(rows []repository.TransactionRow, anchor time.Time) *SalesTrend {
	today := analytics.NewWindow(anchor, anchor)
	yesterday := analytics.Previous(today)

	current := sumHourBlocks(rows, today)
	previous := sumHourBlocks(rows, yesterday)

	starts := analytics.HourBlockStarts()
	return newTrend(today, analytics.HourBlockLabels(), current, previous, func(i int) string {
		return analytics.HourRange(starts[i])
	})
}

// weeklyTrend buckets the trailing 7 days by date in calendar order. The
// baseline of each day is the day at the same position of the previous week.
func weeklyTrend(rows []repository.TransactionRow, anchor time.Time) *SalesTrend {
	week, _ := analytics.Current(anchor, enum.PeriodWeek)
	prevWeek := analytics.Previous(week)

	days := week.Dates()
	labels := make([]string, len(days))
	for i, d := range days {
		labels[i] = analytics.ShortWeekday(d)
	}

	current := sumWindows(rows, dayWindows(week))
	previous := sumWindows(rows, dayWindows(prevWeek))

	return newTrend(week, labels, current, previous, func(i int) string {
		return analytics.FullWeekday(days[i])
	})
}

// monthlyTrend splits the trailing 30 days into four sub-weeks
func monthlyTrend(rows []repository.TransactionRow, anchor time.Time) *SalesTrend {
	month, _ := analytics.Current(anchor, enum.PeriodMonth)
	prevMonth := analytics.Previous(month)

	labels := make([]string, monthlyParts)
	for i := range labels {
		labels[i] = analytics.WeekLabel(i)
	}

	current := sumWindows(rows, analytics.SplitWeeks(month, monthlyParts))
	previous := sumWindows(rows, analytics.SplitWeeks(prevMonth, monthlyParts))

	return newTrend(month, labels, current, previous, analytics.WeekLabel)
}

func newTrend(w analytics.Window, labels []string, current, previous []float64, peakName func(int) string) *SalesTrend {
	current = analytics.SanitizeSeries(current)
	previous = analytics.SanitizeSeries(previous)

	trend := &SalesTrend{
		StartDate:      w.StartString(),
		EndDate:        w.EndString(),
		Labels:         labels,
		Datasets:       []TrendDataset{{Data: current, Color: trendColor, StrokeWidth: trendStrokeWidth}},
		ComparisonData: previous,
		Peak:           analytics.NotAvailable,
		PeakIncrease:   analytics.NotAvailable,
	}

	if idx, ok := analytics.PeakIndex(current); ok {
		trend.Peak = peakName(idx)
		trend.PeakIncrease = analytics.FormatIncrease(analytics.PeakIncrease(current[idx], previous[idx]))
	}
	return trend
}

func sumHourBlocks(rows []repository.TransactionRow, day analytics.Window) []float64 {
	sums := make([]decimal.Decimal, analytics.HourBlockCount)
	for _, row := range rows {
		if !day.Contains(row.OrderTime) {
			continue
		}
		if idx, ok := analytics.HourBlockIndex(row.OrderTime); ok {
			sums[idx] = sums[idx].Add(row.OrderValue)
		}
	}
	return toFloats(sums)
}

func sumWindows(rows []repository.TransactionRow, windows []analytics.Window) []float64 {
	sums := make([]decimal.Decimal, len(windows))
	for _, row := range rows {
		for i, w := range windows {
			if w.Contains(row.OrderTime) {
				sums[i] = sums[i].Add(row.OrderValue)
				break
			}
		}
	}
	return toFloats(sums)
}

func dayWindows(w analytics.Window) []analytics.Window {
	dates := w.Dates()
	windows := make([]analytics.Window, len(dates))
	for i, d := range dates {
		windows[i] = analytics.Window{Start: d, End: d}
	}
	return windows
}

func toFloats(sums []decimal.Decimal) []float64 {
	out := make([]float64, len(sums))
	for i, s := range sums {
		out[i] = money(s)
	}
	return out
}

// placeholderTrend is the example series shown until a merchant has sales
func placeholderTrend(merchantID string, granularity enum.Granularity) *SalesTrend {
	trend := &SalesTrend{
		MerchantID:  merchantID,
		Granularity: granularity,
		Status:      enum.StatusPlaceholder,
	}

	var current []float64
	switch granularity {
	case enum.GranularityDaily:
		trend.Labels = analytics.HourBlockLabels()
		current = []float64{200, 350, 1100, 750, 400, 900, 550, 300}
		trend.ComparisonData = []float64{180, 300, 1000, 700, 350, 800, 500, 250}
		trend.Peak = "12:00-14:00"
		trend.PeakIncrease = "10%"
	case enum.GranularityWeekly:
		trend.Labels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
		current = []float64{850, 1200, 950, 1100, 1400, 1800, 1500}
		trend.ComparisonData = []float64{700, 1000, 800, 900, 1200, 1500, 1300}
		trend.Peak = "Saturday"
		trend.PeakIncrease = "20%"
	default:
		trend.Labels = []string{"Week 1", "Week 2", "Week 3", "Week 4"}
		current = []float64{5200, 5800, 6200, 7000}
		trend.ComparisonData = []float64{5000, 5200, 5800, 6500}
		trend.Peak = "Week 4"
		trend.PeakIncrease = "7%"
	}

	trend.Datasets = []TrendDataset{{Data: current, Color: trendColor, StrokeWidth: trendStrokeWidth}}
	return trend
}
