package enum

import (
	"encoding/json"
	"testing"

	"github.com/grablet/merchant-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		days int
	}{
		{"day", PeriodDay, 1},
		{"Week", PeriodWeek, 7},
		{" month ", PeriodMonth, 30},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePeriod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.days, p.Days())
		})
	}
}

func TestParsePeriod_Invalid(t *testing.T) {
	_, err := ParsePeriod("year")
	require.Error(t, err)
	assert.True(t, apperror.IsConfigurationError(err))
	assert.Equal(t, 0, Period("year").Days())
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, GranularityWeekly, g)
	assert.Equal(t, PeriodWeek, g.Period())

	_, err = ParseGranularity("hourly")
	assert.True(t, apperror.IsConfigurationError(err))
}

func TestPeriod_UnmarshalJSON(t *testing.T) {
	var body struct {
		Period Period `json:"period"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"period":"month"}`), &body))
	assert.Equal(t, PeriodMonth, body.Period)

	assert.Error(t, json.Unmarshal([]byte(`{"period":"fortnight"}`), &body))
}
