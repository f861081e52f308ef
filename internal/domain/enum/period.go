package enum

import (
	"encoding/json"
	"strings"

	"github.com/grablet/merchant-api/pkg/apperror"
)

// Period is the length of a summary window ending at the anchor date
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) String() string {
	return string(p)
}

// Days returns the number of calendar days covered by the period, or 0 if unknown.
func (p Period) Days() int {
	switch p {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	}
	return 0
}

func (p Period) IsValid() bool {
	return p.Days() > 0
}

// ParsePeriod converts user input into a Period
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", apperror.NewConfigurationError("period must be one of 'day', 'week' or 'month'")
	}
	return p, nil
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePeriod(str)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
