package service

import (
	"context"
	"sort"
	"strings"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	maxCategories        = 5
	uncategorized        = "Uncategorized"
	othersCategory       = "Others"
	othersColor          = "#9E9E9E"
	legendFontColor      = "#7F7F7F"
	legendFontSize       = 12
	msgNoCategoryData    = "No category data found for this merchant"
	msgCategoryLoadError = "Failed to load category data for this merchant"
)

var categoryPalette = []string{"#2FAE60", "#FFA726", "#42A5F5", "#9C27B0", "#F44336", "#FF9800", "#8BC34A"}

// CategoryService computes how a merchant's sales split across cuisine tags
type CategoryService struct {
	analyticsRepo repository.AnalyticsRepository
	cfg           config.AnalyticsConfig
	log           *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(analyticsRepo repository.AnalyticsRepository, cfg config.AnalyticsConfig, log *zap.Logger) *CategoryService {
	return &CategoryService{analyticsRepo: analyticsRepo, cfg: cfg, log: log}
}

// CategoryShare is one slice of the pie chart
type CategoryShare struct {
	Name            string `json:"name"`
	Count           int64  `json:"count"`
	Population      int    `json:"population"`
	Color           string `json:"color"`
	LegendFontColor string `json:"legendFontColor"`
	LegendFontSize  int    `json:"legendFontSize"`
}

// CategoryDistribution lists at most five categories plus an "Others" slice
type CategoryDistribution struct {
	MerchantID string            `json:"merchant_id"`
	Data       []CategoryShare   `json:"data,omitempty"`
	Status     enum.ResultStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
}

// Distribution returns the share of sold order lines per cuisine tag
func (s *CategoryService) Distribution(ctx context.Context, merchantID string) (*CategoryDistribution, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "Category.Distribution", merchantID)
	defer span.End()

	result := &CategoryDistribution{MerchantID: merchantID}

	rows, err := s.analyticsRepo.GetCategoryCounts(ctx, merchantID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.log.Error("failed to load category counts", zap.String("merchant_id", merchantID), zap.Error(err))
		result.Status = enum.StatusError
		result.Message = msgCategoryLoadError
		return result, nil
	}

	shares := mergeCategories(rows)
	if len(shares) == 0 {
		result.Status = enum.StatusError
		result.Message = msgNoCategoryData
		return result, nil
	}

	var total int64
	for _, sh := range shares {
		total += sh.Count
	}
	for i := range shares {
		shares[i].Population = analytics.SharePercent(shares[i].Count, total)
		shares[i].Color = categoryPalette[i%len(categoryPalette)]
	}

	result.Data = foldOthers(shares)
	result.Status = enum.StatusSuccess
	return result, nil
}

// mergeCategories names untagged lines and orders categories by count, then name
func mergeCategories(rows []repository.CategoryCountRow) []CategoryShare {
	counts := make(map[string]int64)
	var names []string
	for _, row := range rows {
		if row.LineCount <= 0 {
			continue
		}
		name := uncategorized
		if row.CuisineTag != nil && strings.TrimSpace(*row.CuisineTag) != "" {
			name = *row.CuisineTag
		}
		if _, ok := counts[name]; !ok {
			names = append(names, name)
		}
		counts[name] += row.LineCount
	}

	shares := make([]CategoryShare, 0, len(names))
	for _, name := range names {
		shares = append(shares, CategoryShare{
			Name:            name,
			Count:           counts[name],
			LegendFontColor: legendFontColor,
			LegendFontSize:  legendFontSize,
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// foldOthers keeps the first maxCategories shares and sums the rest into
// "Others" when that slice would be visible
func foldOthers(shares []CategoryShare) []CategoryShare {
	if len(shares) <= maxCategories {
		return shares
	}

	others := CategoryShare{
		Name:            othersCategory,
		Color:           othersColor,
		LegendFontColor: legendFontColor,
		LegendFontSize:  legendFontSize,
	}
	for _, sh := range shares[maxCategories:] {
		others.Count += sh.Count
		others.Population += sh.Population
	}

	kept := append([]CategoryShare(nil), shares[:maxCategories]...)
	if others.Population > 0 {
		kept = append(kept, others)
	}
	return kept
}
