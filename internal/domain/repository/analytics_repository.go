package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRow is a merchant's order as consumed by the sales aggregations
type TransactionRow struct {
	OrderID    string
	OrderTime  time.Time
	OrderValue decimal.Decimal
}

// ItemCountRow is the number of order lines of one item inside a date range
type ItemCountRow struct {
	ItemID    string
	ItemName  string
	ItemPrice decimal.Decimal
	ItemCount int64
}

// CategoryCountRow is the number of order lines per cuisine tag
type CategoryCountRow struct {
	CuisineTag *string
	LineCount  int64
}

// AnalyticsRepository defines the read-only aggregation queries of the dashboard
type AnalyticsRepository interface {
	// GetLatestTransactionDate returns the most recent order date across all
	// merchants, or nil when there are no transactions.
	GetLatestTransactionDate(ctx context.Context) (*time.Time, error)

	// ListMerchantTransactions returns every order of a merchant
	ListMerchantTransactions(ctx context.Context, merchantID string) ([]TransactionRow, error)

	// GetTopItems returns the merchant's items ordered by line count, highest first,
	// ties broken by ascending item id. start and end are inclusive dates.
	GetTopItems(ctx context.Context, merchantID string, start, end time.Time, limit int) ([]ItemCountRow, error)

	// CountOrderLines counts every order line of the merchant's orders in the range
	CountOrderLines(ctx context.Context, merchantID string, start, end time.Time) (int64, error)

	// GetCategoryCounts returns line counts per cuisine tag, highest first
	GetCategoryCounts(ctx context.Context, merchantID string) ([]CategoryCountRow, error)
}
