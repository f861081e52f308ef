package enum

import (
	"encoding/json"
	"strings"

	"github.com/grablet/merchant-api/pkg/apperror"
)

// Granularity selects the bucket shape of a sales trend series
type Granularity string

const (
	GranularityDaily   Granularity = "daily"   // 2-hour blocks of the anchor date
	GranularityWeekly  Granularity = "weekly"  // days of the trailing week
	GranularityMonthly Granularity = "monthly" // sub-weeks of the trailing 30 days
)

func (g Granularity) String() string {
	return string(g)
}

func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

// Period returns the summary window that a trend of this granularity covers.
func (g Granularity) Period() Period {
	switch g {
	case GranularityDaily:
		return PeriodDay
	case GranularityWeekly:
		return PeriodWeek
	case GranularityMonthly:
		return PeriodMonth
	}
	return ""
}

// ParseGranularity converts user input into a Granularity
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", apperror.NewConfigurationError("granularity must be one of 'daily', 'weekly' or 'monthly'")
	}
	return g, nil
}

func (g *Granularity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseGranularity(str)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
