package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// TransactionReader defines read operations for merged transactions.
type TransactionReader interface {
	// FindByFingerprint retrieves the transaction stored under a fingerprint.
	// Returns apperrors.ErrNotFound when there is none.
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Transaction, error)

	// FindByIdentifier retrieves a transaction by the source reference number
	// within one vendor account.
	FindByIdentifier(ctx context.Context, vendor, accountNumber, identifier string) (*domain.Transaction, error)

	// LatestCategoryForDescription returns the category most recently assigned to
	// any transaction with the normalized description, ignoring the transaction
	// excludeID and empty or Uncategorized values.
	LatestCategoryForDescription(ctx context.Context, normalizedDescription string, excludeID string) (string, error)

	// LastTransactionDate returns the newest stored date for a vendor, or nil.
	LastTransactionDate(ctx context.Context, vendor string) (*time.Time, error)

	// ListForPatterns returns every transaction with Seq <= maxSeq, ordered by date.
	ListForPatterns(ctx context.Context, maxSeq int64) ([]domain.Transaction, error)

	// MaxSeq returns the highest ingest sequence assigned so far.
	MaxSeq(ctx context.Context) (int64, error)
}

// TransactionWriter defines write operations for merged transactions.
type TransactionWriter interface {
	// InsertTransaction stores a new transaction and assigns its Seq.
	// Returns apperrors.ErrDuplicate when the fingerprint is already taken.
	InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)

	// UpdateTransaction rewrites a stored transaction in place. Seq is kept.
	UpdateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)

	// ReassignCategory sets the category of every transaction with the
	// normalized description and, when rule is non-nil, upserts the rule in the
	// same unit of work. It returns the number of transactions touched.
	ReassignCategory(ctx context.Context, normalizedDescription, category string, rule *domain.CategoryRule, now time.Time) (int, error)
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
