package mapping

import (
	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	m := models.Transaction{
		TransactionID:         d.TransactionID,
		Fingerprint:           d.Fingerprint,
		CredentialID:          d.CredentialID,
		Seq:                   d.Seq,
		Vendor:                d.Vendor,
		AccountNumber:         d.AccountNumber,
		Date:                  domain.TruncateToDay(d.Date),
		Amount:                d.Amount,
		OriginalCurrency:      d.OriginalCurrency,
		Description:           d.Description,
		NormalizedDescription: d.NormalizedDescription(),
		ProcessedDate:         d.ProcessedDate,
		Memo:                  d.Memo,
		Type:                  string(d.Type),
		Status:                string(d.Status),
		InstallmentNumber:     d.InstallmentNumber,
		InstallmentTotal:      d.InstallmentTotal,
		Category:              d.Category,
		SourceCategory:        d.SourceCategory,
		CategorySource:        string(d.CategorySource),
		AuditFields:           models.AuditFields(d.AuditFields),
	}
	if d.Identifier != "" {
		id := d.Identifier
		m.Identifier = &id
	}
	if d.OriginalAmount != nil {
		m.OriginalAmount = decimal.NewNullDecimal(*d.OriginalAmount)
	}
	return m
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	d := domain.Transaction{
		TransactionID:     m.TransactionID,
		Fingerprint:       m.Fingerprint,
		CredentialID:      m.CredentialID,
		Seq:               m.Seq,
		Vendor:            m.Vendor,
		AccountNumber:     m.AccountNumber,
		Date:              domain.TruncateToDay(m.Date),
		Amount:            m.Amount,
		OriginalCurrency:  m.OriginalCurrency,
		Description:       m.Description,
		ProcessedDate:     m.ProcessedDate,
		Memo:              m.Memo,
		Type:              domain.TransactionType(m.Type),
		Status:            domain.TransactionStatus(m.Status),
		InstallmentNumber: m.InstallmentNumber,
		InstallmentTotal:  m.InstallmentTotal,
		Category:          m.Category,
		SourceCategory:    m.SourceCategory,
		CategorySource:    domain.CategorySource(m.CategorySource),
		AuditFields:       domain.AuditFields(m.AuditFields),
	}
	if m.Identifier != nil {
		d.Identifier = *m.Identifier
	}
	if m.OriginalAmount.Valid {
		amount := m.OriginalAmount.Decimal
		d.OriginalAmount = &amount
	}
	return d
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
