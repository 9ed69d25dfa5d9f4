package services

import (
	"sort"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// detectInstallments groups installment legs by description, vendor and
// account and projects each plan forward. txns must be ordered by date.
func detectInstallments(txns []domain.Transaction, now time.Time) []domain.InstallmentGroup {
	buckets := make(map[domain.GroupKey][]domain.Transaction)
	var order []domain.GroupKey
	for _, t := range txns {
		if !t.IsInstallment() {
			continue
		}
		key := domain.GroupKeyOf(t)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], t)
	}

	groups := make([]domain.InstallmentGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, buildInstallmentGroup(key, buckets[key], now))
	}
	return groups
}

func buildInstallmentGroup(key domain.GroupKey, legs []domain.Transaction, now time.Time) domain.InstallmentGroup {
	sort.SliceStable(legs, func(i, j int) bool {
		if !legs[i].Date.Equal(legs[j].Date) {
			return legs[i].Date.Before(legs[j].Date)
		}
		return legs[i].InstallmentNumber < legs[j].InstallmentNumber
	})

	latest := legs[len(legs)-1]
	current, total := 0, 0
	occurrences := make([]domain.Occurrence, 0, len(legs))
	for _, leg := range legs {
		if leg.InstallmentNumber > current {
			current = leg.InstallmentNumber
		}
		if leg.InstallmentTotal > total {
			total = leg.InstallmentTotal
		}
		occurrences = append(occurrences, domain.Occurrence{
			TransactionID:     leg.TransactionID,
			Date:              leg.Date,
			Amount:            leg.Amount,
			InstallmentNumber: leg.InstallmentNumber,
		})
	}

	monthly := latest.Amount.Abs()
	original := monthly.Mul(decimal.NewFromInt(int64(total)))
	if latest.OriginalAmount != nil && latest.OriginalAmount.Abs().GreaterThan(monthly) {
		original = latest.OriginalAmount.Abs()
	}
	remaining := decimal.Zero
	if left := total - current; left > 0 {
		remaining = monthly.Mul(decimal.NewFromInt(int64(left)))
	}

	next := domain.AddMonthsClamped(latest.Date, 1)
	return domain.InstallmentGroup{
		Key:                key,
		Name:               latest.Description,
		Category:           latest.Category,
		CurrentInstallment: current,
		TotalInstallments:  total,
		MonthlyPrice:       monthly,
		OriginalAmount:     original,
		RemainingAmount:    remaining,
		FirstPaymentDate:   legs[0].Date,
		LastPaymentDate:    latest.Date,
		NextPaymentDate:    &next,
		Status:             domain.DeriveInstallmentStatus(current, total, &next, now),
		Occurrences:        occurrences,
	}
}

func summarizeInstallments(groups []domain.InstallmentGroup) *domain.InstallmentSummary {
	sum := &domain.InstallmentSummary{ActiveAmount: decimal.Zero, RemainingAmount: decimal.Zero}
	for _, g := range groups {
		if g.Status == domain.InstallmentActive {
			sum.ActiveCount++
			sum.ActiveAmount = sum.ActiveAmount.Add(g.MonthlyPrice)
		} else {
			sum.CompletedCount++
		}
		sum.RemainingAmount = sum.RemainingAmount.Add(g.RemainingAmount)
	}
	return sum
}
