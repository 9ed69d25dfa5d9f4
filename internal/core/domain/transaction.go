package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes regular charges from installment legs.
type TransactionType string

const (
	TransactionTypeNormal       TransactionType = "normal"
	TransactionTypeInstallments TransactionType = "installments"
)

// TransactionStatus is the settlement status reported by the source.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
)

// CategorySource records which rung of the categorization chain produced a category.
type CategorySource string

const (
	CategorySourceRule    CategorySource = "rule"
	CategorySourceCache   CategorySource = "cache"
	CategorySourceScraper CategorySource = "scraper"
	CategorySourceManual  CategorySource = "manual"
	CategorySourceNone    CategorySource = "none"
)

// Uncategorized is the category assigned when nothing else applies.
const Uncategorized = "Uncategorized"

// RawTransaction is a record exactly as a RawTransactionSource produced it.
type RawTransaction struct {
	Vendor            string            `json:"vendor"`
	AccountNumber     string            `json:"accountNumber"`
	Identifier        string            `json:"identifier,omitempty"`
	Date              time.Time         `json:"date"`
	ProcessedDate     *time.Time        `json:"processedDate,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	OriginalAmount    *decimal.Decimal  `json:"originalAmount,omitempty"`
	OriginalCurrency  *string           `json:"originalCurrency,omitempty"`
	Description       string            `json:"description"`
	Memo              string            `json:"memo,omitempty"`
	Category          string            `json:"category,omitempty"`
	Type              TransactionType   `json:"type,omitempty"`
	Status            TransactionStatus `json:"status,omitempty"`
	InstallmentNumber int               `json:"installmentNumber,omitempty"`
	InstallmentTotal  int               `json:"installmentTotal,omitempty"`
}

// Validate checks the identity fields a fingerprint is built from.
func (r RawTransaction) Validate() error {
	if strings.TrimSpace(r.Vendor) == "" {
		return fmt.Errorf("vendor is required")
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		return fmt.Errorf("account number is required")
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if r.InstallmentTotal < 0 || r.InstallmentNumber < 0 || r.InstallmentNumber > r.InstallmentTotal {
		return fmt.Errorf("installment %d of %d is out of range", r.InstallmentNumber, r.InstallmentTotal)
	}
	return nil
}

// Transaction is a merged, stored transaction.
type Transaction struct {
	TransactionID string `json:"transactionID"`
	Fingerprint   string `json:"fingerprint"`
	CredentialID  string `json:"credentialID"`
	Seq           int64  `json:"seq"`

	// Identity fields; they never change once stored except through an
	// identifier-matched amount correction.
	Vendor           string           `json:"vendor"`
	AccountNumber    string           `json:"accountNumber"`
	Identifier       string           `json:"identifier,omitempty"`
	Date             time.Time        `json:"date"`
	Amount           decimal.Decimal  `json:"amount"`
	OriginalAmount   *decimal.Decimal `json:"originalAmount,omitempty"`
	OriginalCurrency *string          `json:"originalCurrency,omitempty"`
	Description      string           `json:"description"`

	ProcessedDate     *time.Time        `json:"processedDate,omitempty"`
	Memo              string            `json:"memo,omitempty"`
	Type              TransactionType   `json:"type"`
	Status            TransactionStatus `json:"status"`
	InstallmentNumber int               `json:"installmentNumber,omitempty"`
	InstallmentTotal  int               `json:"installmentTotal,omitempty"`

	Category       string         `json:"category"`
	SourceCategory string         `json:"sourceCategory,omitempty"`
	CategorySource CategorySource `json:"categorySource"`

	// Result flags of the merge that produced this value; not persisted.
	IsDuplicate bool `json:"isDuplicate"`
	IsUpdate    bool `json:"isUpdate"`

	AuditFields
}

// NormalizedDescription is the description key used by fingerprints, rules and grouping.
func (t Transaction) NormalizedDescription() string {
	return NormalizeDescription(t.Description)
}

// IsInstallment reports whether the transaction is one leg of a payment plan.
func (t Transaction) IsInstallment() bool {
	return t.InstallmentTotal > 0 && t.InstallmentNumber > 0
}

// NewTransactionFromRaw builds the stored shape of a raw record. Category
// fields and ids are left for the merger to fill.
func NewTransactionFromRaw(r RawTransaction) Transaction {
	txType := r.Type
	if txType == "" {
		txType = TransactionTypeNormal
		if r.InstallmentTotal > 0 {
			txType = TransactionTypeInstallments
		}
	}
	status := r.Status
	if status == "" {
		status = TransactionStatusCompleted
	}
	return Transaction{
		Fingerprint:       Fingerprint(r),
		Vendor:            r.Vendor,
		AccountNumber:     r.AccountNumber,
		Identifier:        r.Identifier,
		Date:              TruncateToDay(r.Date),
		Amount:            r.Amount,
		OriginalAmount:    r.OriginalAmount,
		OriginalCurrency:  r.OriginalCurrency,
		Description:       strings.TrimSpace(r.Description),
		ProcessedDate:     r.ProcessedDate,
		Memo:              r.Memo,
		Type:              txType,
		Status:            status,
		InstallmentNumber: r.InstallmentNumber,
		InstallmentTotal:  r.InstallmentTotal,
		SourceCategory:    strings.TrimSpace(r.Category),
	}
}
