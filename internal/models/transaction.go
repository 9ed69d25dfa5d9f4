package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the transactions table. Optional source fields
// are pointers so NULL round-trips; seq is a bigserial assigned on insert.
type Transaction struct {
	TransactionID         string              `db:"transaction_id"`
	Fingerprint           string              `db:"fingerprint"`
	CredentialID          string              `db:"credential_id"`
	Seq                   int64               `db:"seq"`
	Vendor                string              `db:"vendor"`
	AccountNumber         string              `db:"account_number"`
	Identifier            *string             `db:"identifier"`
	Date                  time.Time           `db:"date"`
	Amount                decimal.Decimal     `db:"amount"`
	OriginalAmount        decimal.NullDecimal `db:"original_amount"`
	OriginalCurrency      *string             `db:"original_currency"`
	Description           string              `db:"description"`
	NormalizedDescription string              `db:"normalized_description"`
	ProcessedDate         *time.Time          `db:"processed_date"`
	Memo                  string              `db:"memo"`
	Type                  string              `db:"type"`
	Status                string              `db:"status"`
	InstallmentNumber     int                 `db:"installment_number"`
	InstallmentTotal      int                 `db:"installment_total"`
	Category              string              `db:"category"`
	SourceCategory        string              `db:"source_category"`
	CategorySource        string              `db:"category_source"`
	AuditFields
}
