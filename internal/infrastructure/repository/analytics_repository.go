package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/grablet/merchant-api/internal/domain/analytics"
	domainRepo "github.com/grablet/merchant-api/internal/domain/repository"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewAnalyticsRepository creates a new analytics repository. Order times are
// returned in loc, the session time zone the date filters are evaluated in.
func NewAnalyticsRepository(db *gorm.DB, loc *time.Location) domainRepo.AnalyticsRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &analyticsRepository{db: db, loc: loc}
}

func (r *analyticsRepository) GetLatestTransactionDate(ctx context.Context) (*time.Time, error) {
	var row struct {
		LatestDate sql.NullTime
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT MAX(DATE(order_time)) AS latest_date
		FROM transactions
	`).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest transaction date: %w", err)
	}

	if !row.LatestDate.Valid {
		return nil, nil
	}
	latest := analytics.DateOf(row.LatestDate.Time)
	return &latest, nil
}

func (r *analyticsRepository) ListMerchantTransactions(ctx context.Context, merchantID string) ([]domainRepo.TransactionRow, error) {
	var results []domainRepo.TransactionRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT order_id, order_time, order_value
		FROM transactions
		WHERE merchant_id = @merchant_id
		ORDER BY order_time, order_id
	`, map[string]interface{}{"merchant_id": merchantID}).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of merchant %s: %w", merchantID, err)
	}

	return inLocation(results, r.loc), nil
}

func (r *analyticsRepository) GetTopItems(ctx context.Context, merchantID string, start, end time.Time, limit int) ([]domainRepo.ItemCountRow, error) {
	var results []domainRepo.ItemCountRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			ti.item_id,
			i.item_name,
			i.item_price,
			COUNT(*) AS item_count
		FROM transaction_items ti
		JOIN items i ON i.item_id = ti.item_id
		JOIN transactions t ON t.order_id = ti.order_id
		WHERE i.merchant_id = @merchant_id
		AND t.merchant_id = @merchant_id
		AND DATE(t.order_time) BETWEEN @start_date AND @end_date
		GROUP BY ti.item_id, i.item_name, i.item_price
		ORDER BY item_count DESC, ti.item_id ASC
		LIMIT @limit
	`, windowParams(merchantID, start, end, map[string]interface{}{"limit": limit})).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank items of merchant %s: %w", merchantID, err)
	}

	return results, nil
}

func (r *analyticsRepository) CountOrderLines(ctx context.Context, merchantID string, start, end time.Time) (int64, error) {
	var total int64

	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM transaction_items ti
		JOIN transactions t ON t.order_id = ti.order_id
		WHERE t.merchant_id = @merchant_id
		AND DATE(t.order_time) BETWEEN @start_date AND @end_date
	`, windowParams(merchantID, start, end, nil)).Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count order lines of merchant %s: %w", merchantID, err)
	}

	return total, nil
}

func (r *analyticsRepository) GetCategoryCounts(ctx context.Context, merchantID string) ([]domainRepo.CategoryCountRow, error) {
	var results []domainRepo.CategoryCountRow

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			i.cuisine_tag,
			COUNT(*) AS line_count
		FROM transaction_items ti
		JOIN items i ON i.item_id = ti.item_id
		JOIN transactions t ON t.order_id = ti.order_id
		WHERE i.merchant_id = @merchant_id
		AND t.merchant_id = @merchant_id
		GROUP BY i.cuisine_tag
		ORDER BY line_count DESC, i.cuisine_tag ASC
	`, map[string]interface{}{"merchant_id": merchantID}).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count categories of merchant %s: %w", merchantID, err)
	}

	return results, nil
}

// windowParams binds the merchant and an inclusive date range as named parameters
func windowParams(merchantID string, start, end time.Time, extra map[string]interface{}) map[string]interface{} {
	params := map[string]interface{}{
		"merchant_id": merchantID,
		"start_date":  analytics.FormatDate(start),
		"end_date":    analytics.FormatDate(end),
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

// inLocation moves order times into loc so Go-side bucketing sees the same
// calendar date and hour as DATE(order_time) in SQL
func inLocation(rows []domainRepo.TransactionRow, loc *time.Location) []domainRepo.TransactionRow {
	for i := range rows {
		rows[i].OrderTime = rows[i].OrderTime.In(loc)
	}
	return rows
}
