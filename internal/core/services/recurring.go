package services

import (
	"sort"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// recurringParams tunes recurring detection.
type recurringParams struct {
	// tolerance is the allowed relative distance of every amount from the
	// group median, e.g. 0.25.
	tolerance decimal.Decimal
	// grace keeps a group active for a while after a missed payment.
	grace time.Duration
}

// detectRecurring groups charges that repeat across calendar months with
// comparable amounts. Installment legs are ignored.
func detectRecurring(txns []domain.Transaction, params recurringParams, now time.Time) []domain.RecurringGroup {
	buckets := make(map[domain.GroupKey][]domain.Transaction)
	var order []domain.GroupKey
	for _, t := range txns {
		if t.IsInstallment() || !t.Amount.IsNegative() {
			continue
		}
		key := domain.GroupKeyOf(t)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], t)
	}

	groups := make([]domain.RecurringGroup, 0)
	for _, key := range order {
		if g, ok := buildRecurringGroup(key, buckets[key], params, now); ok {
			groups = append(groups, g)
		}
	}
	return groups
}

// dropExcluded removes groups covered by an exclusion mark, in place.
func dropExcluded(groups []domain.RecurringGroup, exclusions []domain.ExclusionMark) []domain.RecurringGroup {
	if len(exclusions) == 0 {
		return groups
	}
	kept := groups[:0]
	for _, g := range groups {
		if !isExcluded(g.Key, exclusions) {
			kept = append(kept, g)
		}
	}
	return kept
}

func isExcluded(key domain.GroupKey, exclusions []domain.ExclusionMark) bool {
	for _, e := range exclusions {
		if e.Matches(key) {
			return true
		}
	}
	return false
}

func buildRecurringGroup(key domain.GroupKey, occ []domain.Transaction, params recurringParams, now time.Time) (domain.RecurringGroup, bool) {
	months := distinctMonths(occ)
	if len(months) < 2 {
		return domain.RecurringGroup{}, false
	}

	amounts := make([]decimal.Decimal, len(occ))
	total := decimal.Zero
	for i, t := range occ {
		amounts[i] = t.Amount.Abs()
		total = total.Add(amounts[i])
	}
	if !amountsComparable(amounts, params.tolerance) {
		return domain.RecurringGroup{}, false
	}

	freq := domain.FrequencyMonthly
	if modalGap(months) == 2 {
		freq = domain.FrequencyBiMonthly
	}

	latest := occ[len(occ)-1]
	next := domain.AddMonthsClamped(latest.Date, freq.MonthsBetween())
	cutoff := domain.TruncateToDay(now).Add(-params.grace)

	occurrences := make([]domain.Occurrence, len(occ))
	for i, t := range occ {
		occurrences[i] = domain.Occurrence{TransactionID: t.TransactionID, Date: t.Date, Amount: t.Amount}
	}

	return domain.RecurringGroup{
		Key:             key,
		Name:            latest.Description,
		Category:        latest.Category,
		Frequency:       freq,
		MonthCount:      len(months),
		Amount:          latest.Amount.Abs(),
		AverageAmount:   total.Div(decimal.NewFromInt(int64(len(occ)))).Round(2),
		LastPaymentDate: latest.Date,
		NextPaymentDate: next,
		IsActive:        !next.Before(cutoff),
		Occurrences:     occurrences,
	}, true
}

// distinctMonths returns the sorted month indexes the transactions fall in.
func distinctMonths(occ []domain.Transaction) []int {
	seen := make(map[int]struct{}, len(occ))
	months := make([]int, 0, len(occ))
	for _, t := range occ {
		m := domain.MonthIndex(t.Date)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Ints(months)
	return months
}

// modalGap is the most frequent gap between consecutive months; ties go to
// the smaller gap.
func modalGap(months []int) int {
	counts := make(map[int]int)
	for i := 1; i < len(months); i++ {
		counts[months[i]-months[i-1]]++
	}
	best, bestCount := 0, 0
	for gap, n := range counts {
		if n > bestCount || (n == bestCount && gap < best) {
			best, bestCount = gap, n
		}
	}
	return best
}

// amountsComparable reports whether every amount lies within tolerance of the median.
func amountsComparable(amounts []decimal.Decimal, tolerance decimal.Decimal) bool {
	sorted := make([]decimal.Decimal, len(amounts))
	copy(sorted, amounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
	}
	if median.IsZero() {
		return false
	}

	limit := median.Mul(tolerance)
	for _, a := range sorted {
		if a.Sub(median).Abs().GreaterThan(limit) {
			return false
		}
	}
	return true
}

func summarizeRecurring(groups []domain.RecurringGroup) *domain.RecurringSummary {
	sum := &domain.RecurringSummary{ActiveAmount: decimal.Zero}
	for _, g := range groups {
		if g.Frequency == domain.FrequencyBiMonthly {
			sum.BiMonthlyCount++
		} else {
			sum.MonthlyCount++
		}
		if g.IsActive {
			sum.ActiveCount++
			sum.ActiveAmount = sum.ActiveAmount.Add(g.MonthlyEquivalent())
		}
	}
	return sum
}
