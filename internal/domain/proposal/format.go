package proposal

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount is a display value with its unit, e.g. {"1.5", "억원"}
type Amount struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// String joins value and unit
func (a Amount) String() string {
	return a.Value + a.Unit
}

const (
	UnitManwon = "만원"
	UnitEok    = "억원"
)

var (
	tenThousand = decimal.NewFromInt(10_000)
	hundredM    = decimal.NewFromInt(100_000_000)
	printer     = message.NewPrinter(language.Korean)
)

// FormatAmount renders an amount given in 만원. Amounts of 1억 and more switch
// to 억원 with up to two decimals; smaller ones keep 만원 with digit grouping.
// The unit is chosen after rounding to whole 만원.
func FormatAmount(manwon decimal.Decimal) Amount {
	whole := manwon.Round(0)
	if whole.Abs().GreaterThanOrEqual(tenThousand) {
		eok := manwon.Div(tenThousand).Round(2)
		return Amount{Value: groupDecimal(eok), Unit: UnitEok}
	}
	return Amount{Value: printer.Sprintf("%d", whole.IntPart()), Unit: UnitManwon}
}

// FormatWon renders an amount given in won through FormatAmount
func FormatWon(won decimal.Decimal) Amount {
	return FormatAmount(won.Div(tenThousand))
}

// FormatNumber groups the digits of a whole number
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

func groupDecimal(v decimal.Decimal) string {
	s := v.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	whole, _ := decimal.NewFromString(intPart)
	out := printer.Sprintf("%d", whole.IntPart())
	frac = strings.TrimRight(frac, "0")
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
