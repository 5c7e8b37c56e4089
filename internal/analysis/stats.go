package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

var dec100 = decimal.NewFromInt(100)

// median returns the median of values: the middle element for odd
// lengths, the mean of the two middle elements for even lengths, and
// zero for an empty slice. The input is not modified.
func median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

// mean returns the arithmetic mean of values, zero for an empty slice.
func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

// percentOf computes part/whole*100 with a zero-guard: a non-positive
// whole yields zero rather than a division error or an absurd ratio.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return part.Div(whole).Mul(dec100)
}
