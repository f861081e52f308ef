package service

import (
	"context"
	"sort"

	"github.com/grablet/merchant-api/internal/config"
	"github.com/grablet/merchant-api/internal/domain/analytics"
	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/internal/domain/repository"
	"github.com/grablet/merchant-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	placeholderPairName = "No more frequent pairs"

	msgNoItems          = "No items found for this merchant"
	msgNoOrderLines     = "No transaction items found for this merchant's orders"
	msgNoMatchingItems  = "No matching items found in this merchant's orders"
	msgPairStorageError = "Internal server error while finding frequent pairs."
)

// BundleService finds items that are frequently ordered together
type BundleService struct {
	orderRepo repository.OrderRepository
	catalog   *ItemCatalogService
	cfg       config.AnalyticsConfig
	log       *zap.Logger
}

// NewBundleService creates a new bundle service
func NewBundleService(
	orderRepo repository.OrderRepository,
	catalog *ItemCatalogService,
	cfg config.AnalyticsConfig,
	log *zap.Logger,
) *BundleService {
	return &BundleService{
		orderRepo: orderRepo,
		catalog:   catalog,
		cfg:       cfg,
		log:       log,
	}
}

// BundleItem references a catalog item by its presentation id
type BundleItem struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Bundle is a pair of items bought together. Placeholder entries pad the list
// when the merchant has fewer real pairs than requested.
type Bundle struct {
	Item1       BundleItem `json:"item1"`
	Item2       BundleItem `json:"item2"`
	Frequency   int        `json:"frequency"`
	Support     float64    `json:"support"`
	BundlePrice float64    `json:"bundle_price"`
	Placeholder bool       `json:"placeholder"`
}

// BundleResult lists exactly limit bundles on success
type BundleResult struct {
	MerchantID string            `json:"merchant_id"`
	Pairs      []Bundle          `json:"pairs"`
	Status     enum.ResultStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
}

// pairKey holds two presentation ids, lowest first
type pairKey struct {
	a, b int
}

type pairCount struct {
	key   pairKey
	count int
}

// FrequentPairs returns the limit most frequent item pairs over the merchant's
// whole order history
func (s *BundleService) FrequentPairs(ctx context.Context, merchantID string, limit int) (*BundleResult, error) {
	if limit < 1 {
		limit = s.cfg.BundleLimit
	}

	ctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "Bundle.FrequentPairs", merchantID, attribute.Int("limit", limit))
	defer span.End()

	fail := func(message string, err error) *BundleResult {
		if err != nil {
			telemetry.RecordError(span, err)
			s.log.Error("failed to find frequent pairs", zap.String("merchant_id", merchantID), zap.Error(err))
		}
		return &BundleResult{MerchantID: merchantID, Status: enum.StatusError, Message: message}
	}

	catalog, err := s.catalog.Catalog(ctx, merchantID)
	if err != nil {
		return fail(msgPairStorageError, err), nil
	}
	if catalog.Len() == 0 {
		return fail(msgNoItems, nil), nil
	}

	orderIDs, err := s.orderRepo.ListOrderIDs(ctx, merchantID)
	if err != nil {
		return fail(msgPairStorageError, err), nil
	}
	if len(orderIDs) == 0 {
		return fail(msgNoTransactions, nil), nil
	}

	lines, err := s.orderRepo.ListOrderLines(ctx, orderIDs)
	if err != nil {
		return fail(msgPairStorageError, err), nil
	}
	if len(lines) == 0 {
		return fail(msgNoOrderLines, nil), nil
	}

	baskets := groupBaskets(lines, catalog)
	if len(baskets) == 0 {
		return fail(msgNoMatchingItems, nil), nil
	}

	ranked := rankPairs(countPairs(baskets))
	span.SetAttributes(attribute.Int("pairs", len(ranked)))

	result := &BundleResult{
		MerchantID: merchantID,
		Pairs:      make([]Bundle, 0, limit),
		Status:     enum.StatusSuccess,
	}
	for _, pc := range ranked {
		if len(result.Pairs) == limit {
			break
		}
		result.Pairs = append(result.Pairs, newBundle(catalog, pc, len(baskets)))
	}
	for len(result.Pairs) < limit {
		result.Pairs = append(result.Pairs, placeholderBundle())
	}
	return result, nil
}

// groupBaskets maps every order to the distinct presentation ids of the
// merchant's items in it, in first-seen order. Lines of foreign items are
// dropped and orders left empty disappear.
func groupBaskets(lines []repository.OrderLineRow, catalog *Catalog) [][]int {
	index := make(map[string]int)
	var baskets [][]int
	seen := make(map[string]map[int]struct{})

	for _, line := range lines {
		id := catalog.PresentationID(line.ItemID)
		if id == 0 {
			continue
		}
		pos, ok := index[line.OrderID]
		if !ok {
			pos = len(baskets)
			index[line.OrderID] = pos
			baskets = append(baskets, nil)
			seen[line.OrderID] = make(map[int]struct{})
		}
		if _, dup := seen[line.OrderID][id]; dup {
			continue
		}
		seen[line.OrderID][id] = struct{}{}
		baskets[pos] = append(baskets[pos], id)
	}
	return baskets
}

// countPairs counts every unordered pair of distinct items per basket
func countPairs(baskets [][]int) map[pairKey]int {
	counts := make(map[pairKey]int)
	for _, basket := range baskets {
		ids := append([]int(nil), basket...)
		sort.Ints(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				counts[pairKey{a: ids[i], b: ids[j]}]++
			}
		}
	}
	return counts
}

// rankPairs orders pairs by descending frequency, then by presentation ids
func rankPairs(counts map[pairKey]int) []pairCount {
	ranked := make([]pairCount, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, pairCount{key: k, count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		if ranked[i].key.a != ranked[j].key.a {
			return ranked[i].key.a < ranked[j].key.a
		}
		return ranked[i].key.b < ranked[j].key.b
	})
	return ranked
}

func newBundle(catalog *Catalog, pc pairCount, orders int) Bundle {
	first := catalog.Items[pc.key.a-1]
	second := catalog.Items[pc.key.b-1]

	return Bundle{
		Item1:       BundleItem{ID: first.ID, Name: first.Name, Price: first.Price},
		Item2:       BundleItem{ID: second.ID, Name: second.Name, Price: second.Price},
		Frequency:   pc.count,
		Support:     analytics.RoundTo(float64(pc.count)/float64(orders)*100, 2),
		BundlePrice: money(first.ExactPrice().Add(second.ExactPrice())),
	}
}

func placeholderBundle() Bundle {
	return Bundle{
		Item1:       BundleItem{Name: placeholderPairName},
		Item2:       BundleItem{Name: placeholderPairName},
		Placeholder: true,
	}
}
