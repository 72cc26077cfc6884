package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		label  string
		scope  PeriodScope
		months int
		first  string
		last   string
	}{
		{"2025-03", ScopeMonth, 1, "2025-03", "2025-03"},
		{"2025-H1", ScopeHalf, 6, "2025-01", "2025-06"},
		{"2025-H2", ScopeHalf, 6, "2025-07", "2025-12"},
		{"2025", ScopeYear, 12, "2025-01", "2025-12"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p, err := ParsePeriod(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.scope, p.Scope)
			require.Len(t, p.Months, tt.months)
			assert.Equal(t, tt.first, p.Months[0])
			assert.Equal(t, tt.last, p.Months[len(p.Months)-1])
		})
	}

	for _, bad := range []string{"", "2025-13", "25-01", "2025-H3", "abcd"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestFlattenPeriods(t *testing.T) {
	byMonth := map[string][]Item{
		"2025-01": {contractItem(1, 10, 1)},
		"2025-02": {contractItem(2, 20, 1), clawbackItem(5)},
		"2025-09": {contractItem(3, 30, 1)},
	}

	flat := FlattenPeriods(byMonth, []string{"2025-01", "2025-02", "2025-03"})
	assert.Len(t, flat, 3)

	s := Aggregate(flat, uuid.Nil, "", "2025-Q1")
	assert.Equal(t, 2, s.ContractCount)
	assert.Equal(t, 1, s.ClawbackCount)
}
