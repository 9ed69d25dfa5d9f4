package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	"github.com/SscSPs/finsync/internal/models"
	"github.com/SscSPs/finsync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, fingerprint, credential_id, seq, vendor, account_number, identifier,
	date, amount, original_amount, original_currency, description, normalized_description, processed_date, memo,
	type, status, installment_number, installment_total, category, source_category, category_source,
	created_at, last_updated_at, last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for merged transactions.
func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func (r *PgxTransactionRepository) findOne(ctx context.Context, where string, args ...any) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` LIMIT 1;`
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	modelTxn, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn := mapping.ToDomainTransaction(modelTxn)
	return &txn, nil
}

// FindByFingerprint retrieves the transaction stored under a fingerprint.
func (r *PgxTransactionRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Transaction, error) {
	return r.findOne(ctx, `fingerprint = $1`, fingerprint)
}

// FindByIdentifier retrieves a transaction by its source reference within one account.
func (r *PgxTransactionRepository) FindByIdentifier(ctx context.Context, vendor, accountNumber, identifier string) (*domain.Transaction, error) {
	return r.findOne(ctx, `vendor = $1 AND account_number = $2 AND identifier = $3 ORDER BY seq DESC`, vendor, accountNumber, identifier)
}

// LatestCategoryForDescription returns the most recently assigned real category
// for a normalized description.
func (r *PgxTransactionRepository) LatestCategoryForDescription(ctx context.Context, normalizedDescription string, excludeID string) (string, error) {
	query := `
		SELECT category
		FROM transactions
		WHERE normalized_description = $1
		  AND transaction_id <> $2
		  AND category <> ''
		  AND lower(category) <> lower($3)
		ORDER BY last_updated_at DESC, seq DESC
		LIMIT 1;
	`
	var category string
	err := r.Pool.QueryRow(ctx, query, normalizedDescription, excludeID, domain.Uncategorized).Scan(&category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to look up cached category: %w", err)
	}
	return category, nil
}

// LastTransactionDate returns the newest stored date for a vendor, or nil.
func (r *PgxTransactionRepository) LastTransactionDate(ctx context.Context, vendor string) (*time.Time, error) {
	var last *time.Time
	err := r.Pool.QueryRow(ctx, `SELECT MAX(date) FROM transactions WHERE vendor = $1;`, vendor).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get last transaction date for %s: %w", vendor, err)
	}
	if last != nil {
		day := domain.TruncateToDay(*last)
		last = &day
	}
	return last, nil
}

// ListForPatterns returns every transaction visible at a snapshot, ordered by date.
func (r *PgxTransactionRepository) ListForPatterns(ctx context.Context, maxSeq int64) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE seq <= $1 ORDER BY date, seq;`
	rows, err := r.Pool.Query(ctx, query, maxSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for patterns: %w", err)
	}
	modelTxns, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions for patterns: %w", err)
	}
	return mapping.ToDomainTransactionSlice(modelTxns), nil
}

// MaxSeq returns the highest ingest sequence assigned so far.
func (r *PgxTransactionRepository) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM transactions;`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read max sequence: %w", err)
	}
	return seq, nil
}

// InsertTransaction stores a new transaction. The fingerprint unique index
// turns concurrent inserts of the same record into ErrDuplicate.
func (r *PgxTransactionRepository) InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	m := mapping.ToModelTransaction(txn)
	query := `
		INSERT INTO transactions (transaction_id, fingerprint, credential_id, vendor, account_number, identifier,
			date, amount, original_amount, original_currency, description, normalized_description, processed_date, memo,
			type, status, installment_number, installment_total, category, source_category, category_source,
			created_at, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING seq;
	`
	err := r.Pool.QueryRow(ctx, query,
		m.TransactionID,
		m.Fingerprint,
		m.CredentialID,
		m.Vendor,
		m.AccountNumber,
		m.Identifier,
		m.Date,
		m.Amount,
		m.OriginalAmount,
		m.OriginalCurrency,
		m.Description,
		m.NormalizedDescription,
		m.ProcessedDate,
		m.Memo,
		m.Type,
		m.Status,
		m.InstallmentNumber,
		m.InstallmentTotal,
		m.Category,
		m.SourceCategory,
		m.CategorySource,
		m.CreatedAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	).Scan(&m.Seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: fingerprint %s", apperrors.ErrDuplicate, m.Fingerprint)
		}
		return nil, fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, err)
	}

	saved := mapping.ToDomainTransaction(m)
	return &saved, nil
}

// UpdateTransaction rewrites a stored transaction in place, keeping seq and created_at.
func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	m := mapping.ToModelTransaction(txn)
	query := `
		UPDATE transactions SET
			fingerprint = $2,
			credential_id = $3,
			identifier = $4,
			date = $5,
			amount = $6,
			original_amount = $7,
			original_currency = $8,
			description = $9,
			normalized_description = $10,
			processed_date = $11,
			memo = $12,
			status = $13,
			category = $14,
			source_category = $15,
			category_source = $16,
			last_updated_at = $17,
			last_updated_by = $18
		WHERE transaction_id = $1
		RETURNING seq, created_at;
	`
	err := r.Pool.QueryRow(ctx, query,
		m.TransactionID,
		m.Fingerprint,
		m.CredentialID,
		m.Identifier,
		m.Date,
		m.Amount,
		m.OriginalAmount,
		m.OriginalCurrency,
		m.Description,
		m.NormalizedDescription,
		m.ProcessedDate,
		m.Memo,
		m.Status,
		m.Category,
		m.SourceCategory,
		m.CategorySource,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: fingerprint %s", apperrors.ErrDuplicate, m.Fingerprint)
		}
		return nil, fmt.Errorf("failed to update transaction %s: %w", m.TransactionID, err)
	}

	saved := mapping.ToDomainTransaction(m)
	return &saved, nil
}

// ReassignCategory applies a manual category to every matching row and
// upserts the rule in the same database transaction.
func (r *PgxTransactionRepository) ReassignCategory(ctx context.Context, normalizedDescription, category string, rule *domain.CategoryRule, now time.Time) (int, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET category = $2, category_source = $3, last_updated_at = $4, last_updated_by = $5
		WHERE normalized_description = $1;
	`, normalizedDescription, category, string(domain.CategorySourceManual), now, string(domain.CategorySourceManual))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign category for %q: %w", normalizedDescription, err)
	}

	if rule != nil {
		if err := upsertRule(ctx, tx, *rule); err != nil {
			return 0, err
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
