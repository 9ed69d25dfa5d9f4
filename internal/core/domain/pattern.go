package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatternType selects which derived grouping a query returns.
type PatternType string

const (
	PatternInstallments PatternType = "installments"
	PatternRecurring    PatternType = "recurring"
)

// Frequency is the classified cadence of a recurring group.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBiMonthly Frequency = "bi-monthly"
)

// MonthsBetween is the gap in months the frequency stands for.
func (f Frequency) MonthsBetween() int {
	if f == FrequencyBiMonthly {
		return 2
	}
	return 1
}

// InstallmentStatus is derived on read, never stored.
type InstallmentStatus string

const (
	InstallmentActive    InstallmentStatus = "active"
	InstallmentCompleted InstallmentStatus = "completed"
)

// GroupKey identifies a derived group: normalized description, vendor and account.
type GroupKey struct {
	Description   string `json:"-"`
	Vendor        string `json:"vendor"`
	AccountNumber string `json:"accountNumber"`
}

// String renders the key in a form that sorts deterministically.
func (k GroupKey) String() string {
	return k.Description + "\x1f" + k.Vendor + "\x1f" + k.AccountNumber
}

// GroupKeyOf returns the grouping key of a transaction.
func GroupKeyOf(t Transaction) GroupKey {
	return GroupKey{
		Description:   t.NormalizedDescription(),
		Vendor:        t.Vendor,
		AccountNumber: t.AccountNumber,
	}
}

// Occurrence is one transaction inside a derived group.
type Occurrence struct {
	TransactionID     string          `json:"transactionID"`
	Date              time.Time       `json:"date"`
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber int             `json:"installmentNumber,omitempty"`
}

// InstallmentGroup is a multi-payment purchase plan.
type InstallmentGroup struct {
	Key                GroupKey          `json:"key"`
	Name               string            `json:"name"`
	Category           string            `json:"category"`
	CurrentInstallment int               `json:"currentInstallment"`
	TotalInstallments  int               `json:"totalInstallments"`
	MonthlyPrice       decimal.Decimal   `json:"monthlyPrice"`
	OriginalAmount     decimal.Decimal   `json:"originalAmount"`
	RemainingAmount    decimal.Decimal   `json:"remainingAmount"`
	FirstPaymentDate   time.Time         `json:"firstPaymentDate"`
	LastPaymentDate    time.Time         `json:"lastPaymentDate"`
	NextPaymentDate    *time.Time        `json:"nextPaymentDate"`
	Status             InstallmentStatus `json:"status"`
	Occurrences        []Occurrence      `json:"occurrences"`
}

// DeriveInstallmentStatus: completed iff every installment has been seen and
// there is no projected payment left that is today or later.
func DeriveInstallmentStatus(current, total int, next *time.Time, now time.Time) InstallmentStatus {
	if current < total {
		return InstallmentActive
	}
	if next == nil || next.Before(TruncateToDay(now)) {
		return InstallmentCompleted
	}
	return InstallmentActive
}

// RecurringGroup is a description/account pair repeating across months.
type RecurringGroup struct {
	Key             GroupKey        `json:"key"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Frequency       Frequency       `json:"frequency"`
	MonthCount      int             `json:"monthCount"`
	Amount          decimal.Decimal `json:"amount"`
	AverageAmount   decimal.Decimal `json:"averageAmount"`
	LastPaymentDate time.Time       `json:"lastPaymentDate"`
	NextPaymentDate time.Time       `json:"nextPaymentDate"`
	IsActive        bool            `json:"isActive"`
	Occurrences     []Occurrence    `json:"occurrences"`
}

// MonthlyEquivalent spreads the latest amount over one month.
func (g RecurringGroup) MonthlyEquivalent() decimal.Decimal {
	return g.Amount.Div(decimal.NewFromInt(int64(g.Frequency.MonthsBetween())))
}

// ExclusionMark suppresses a description/account pair from recurring detection.
type ExclusionMark struct {
	ExclusionID   string    `json:"exclusionID"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"accountNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Matches reports whether the mark covers the group key.
func (e ExclusionMark) Matches(k GroupKey) bool {
	return NormalizeDescription(e.Name) == k.Description && e.AccountNumber == k.AccountNumber
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PatternQuery is a validated request for one page of derived groups.
type PatternQuery struct {
	Type      PatternType
	SortBy    string
	SortOrder SortOrder
	Limit     int
	Offset    int
	Frequency Frequency
	// Status is active|completed for installments and active|inactive for
	// recurring groups.
	Status string
	Vendor string
	// Snapshot pins the highest ingest sequence visible to the query, Version
	// the cache generation (in-place corrections and category changes bump it)
	// and AsOf the day statuses are derived for. Zero values pin the current ones.
	Snapshot int64
	Version  int64
	AsOf     time.Time
}

// Pagination describes where a page sits in the full, pinned result set.
type Pagination struct {
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
	HasMore  bool      `json:"hasMore"`
	Snapshot int64     `json:"-"`
	Version  int64     `json:"-"`
	AsOf     time.Time `json:"-"`
}

// InstallmentSummary aggregates the full installment result set.
type InstallmentSummary struct {
	ActiveCount     int             `json:"activeCount"`
	ActiveAmount    decimal.Decimal `json:"activeAmount"`
	CompletedCount  int             `json:"completedCount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

// RecurringSummary aggregates the full recurring result set.
type RecurringSummary struct {
	ActiveCount    int             `json:"activeCount"`
	ActiveAmount   decimal.Decimal `json:"activeAmount"`
	MonthlyCount   int             `json:"monthlyCount"`
	BiMonthlyCount int             `json:"biMonthlyCount"`
}

// PatternPage is one page of a pattern query.
type PatternPage struct {
	Type               PatternType         `json:"type"`
	Installments       []InstallmentGroup  `json:"installments,omitempty"`
	Recurring          []RecurringGroup    `json:"recurring,omitempty"`
	Pagination         Pagination          `json:"pagination"`
	InstallmentSummary *InstallmentSummary `json:"-"`
	RecurringSummary   *RecurringSummary   `json:"-"`
}
