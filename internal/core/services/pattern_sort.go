package services

import (
	"cmp"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/shopspring/decimal"
)

const (
	sortAmount          = "amount"
	sortCount           = "count"
	sortNextPaymentDate = "nextPaymentDate"
	sortName            = "name"
	sortTotalAmount     = "totalAmount"
	sortRemaining       = "remaining"

	statusInactive = "inactive"
)

func validSortKey(t domain.PatternType, key string) bool {
	switch key {
	case sortAmount, sortCount, sortNextPaymentDate, sortName:
		return true
	case sortTotalAmount, sortRemaining:
		return t == domain.PatternInstallments
	}
	return false
}

// sortFields is the flattened view of a group used for ordering. key is the
// immutable group identity that makes the order total.
type sortFields struct {
	amount    decimal.Decimal
	count     int
	next      time.Time
	name      string
	total     decimal.Decimal
	remaining decimal.Decimal
	key       string
}

func installmentFields(g domain.InstallmentGroup) sortFields {
	f := sortFields{
		amount:    g.MonthlyPrice,
		count:     g.CurrentInstallment,
		name:      strings.ToLower(g.Name),
		total:     g.OriginalAmount,
		remaining: g.RemainingAmount,
		key:       g.Key.String(),
	}
	if g.NextPaymentDate != nil {
		f.next = *g.NextPaymentDate
	}
	return f
}

func recurringFields(g domain.RecurringGroup) sortFields {
	return sortFields{
		amount: g.Amount,
		count:  g.MonthCount,
		next:   g.NextPaymentDate,
		name:   strings.ToLower(g.Name),
		key:    g.Key.String(),
	}
}

func compareBy(a, b sortFields, key string) int {
	switch key {
	case sortAmount:
		return a.amount.Cmp(b.amount)
	case sortCount:
		return cmp.Compare(a.count, b.count)
	case sortNextPaymentDate:
		return a.next.Compare(b.next)
	case sortName:
		return cmp.Compare(a.name, b.name)
	case sortTotalAmount:
		return a.total.Cmp(b.total)
	case sortRemaining:
		return a.remaining.Cmp(b.remaining)
	}
	return 0
}

// tieBreakChain: count and amount break each other's ties; any other key
// falls back to both. The group key always decides last, ascending.
func tieBreakChain(sortBy string) []string {
	switch sortBy {
	case sortAmount:
		return []string{sortAmount, sortCount}
	case sortCount:
		return []string{sortCount, sortAmount}
	default:
		return []string{sortBy, sortCount, sortAmount}
	}
}

func less(a, b sortFields, chain []string, order domain.SortOrder) bool {
	for _, k := range chain {
		c := compareBy(a, b, k)
		if c == 0 {
			continue
		}
		if order == domain.SortDesc {
			return c > 0
		}
		return c < 0
	}
	return a.key < b.key
}

func sortInstallments(groups []domain.InstallmentGroup, sortBy string, order domain.SortOrder) {
	chain := tieBreakChain(sortBy)
	sort.Slice(groups, func(i, j int) bool {
		return less(installmentFields(groups[i]), installmentFields(groups[j]), chain, order)
	})
}

func sortRecurring(groups []domain.RecurringGroup, sortBy string, order domain.SortOrder) {
	chain := tieBreakChain(sortBy)
	sort.Slice(groups, func(i, j int) bool {
		return less(recurringFields(groups[i]), recurringFields(groups[j]), chain, order)
	})
}

func filterInstallments(groups []domain.InstallmentGroup, q domain.PatternQuery) []domain.InstallmentGroup {
	out := groups[:0]
	for _, g := range groups {
		if q.Vendor != "" && g.Key.Vendor != q.Vendor {
			continue
		}
		if q.Status != "" && string(g.Status) != q.Status {
			continue
		}
		out = append(out, g)
	}
	return out
}

func filterRecurring(groups []domain.RecurringGroup, q domain.PatternQuery) []domain.RecurringGroup {
	out := groups[:0]
	for _, g := range groups {
		if q.Vendor != "" && g.Key.Vendor != q.Vendor {
			continue
		}
		if q.Frequency != "" && g.Frequency != q.Frequency {
			continue
		}
		if q.Status == "active" && !g.IsActive || q.Status == statusInactive && g.IsActive {
			continue
		}
		out = append(out, g)
	}
	return out
}
