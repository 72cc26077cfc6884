package settlement

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/shared"
)

// PeriodOf returns the YYYY-MM month period a date falls in
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}

// PeriodScope is the granularity of a summary view
type PeriodScope string

const (
	ScopeMonth PeriodScope = "month"
	ScopeHalf  PeriodScope = "half"
	ScopeYear  PeriodScope = "year"
)

// Period identifies a month, half-year or year and the months it spans
type Period struct {
	Label  string
	Scope  PeriodScope
	Months []string
}

// ParsePeriod accepts "2025-03", "2025-H1", "2025-H2" or "2025"
func ParsePeriod(label string) (Period, error) {
	label = strings.TrimSpace(label)
	invalid := shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid settlement period: %q", label))

	switch {
	case len(label) == 4:
		year, err := strconv.Atoi(label)
		if err != nil {
			return Period{}, invalid
		}
		return Period{Label: label, Scope: ScopeYear, Months: monthsOf(year, 1, 12)}, nil
	case len(label) == 7 && (strings.HasSuffix(label, "-H1") || strings.HasSuffix(label, "-H2")):
		year, err := strconv.Atoi(label[:4])
		if err != nil {
			return Period{}, invalid
		}
		if strings.HasSuffix(label, "H1") {
			return Period{Label: label, Scope: ScopeHalf, Months: monthsOf(year, 1, 6)}, nil
		}
		return Period{Label: label, Scope: ScopeHalf, Months: monthsOf(year, 7, 12)}, nil
	case len(label) == 7:
		if _, err := time.Parse("2006-01", label); err != nil {
			return Period{}, invalid
		}
		return Period{Label: label, Scope: ScopeMonth, Months: []string{label}}, nil
	}
	return Period{}, invalid
}

func monthsOf(year, from, to int) []string {
	months := make([]string, 0, to-from+1)
	for m := from; m <= to; m++ {
		months = append(months, fmt.Sprintf("%04d-%02d", year, m))
	}
	return months
}

// FlattenPeriods concatenates per-month item lists into a single list for a
// multi-month summary. The aggregator itself always sees one period.
func FlattenPeriods(byMonth map[string][]Item, months []string) []Item {
	total := 0
	for _, m := range months {
		total += len(byMonth[m])
	}
	out := make([]Item, 0, total)
	for _, m := range months {
		out = append(out, byMonth[m]...)
	}
	return out
}
