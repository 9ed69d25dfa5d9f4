package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/google/uuid"
)

const mergeActor = "merger"

// mergeService deduplicates raw records by fingerprint and keeps stored
// transactions in step with what the source reports.
type mergeService struct {
	BaseService
	txnRepo     portsrepo.TransactionRepositoryFacade
	ruleRepo    portsrepo.CategoryRuleReader
	categorizer portssvc.CategorizerSvc
}

// NewMergeService creates a new merge service.
func NewMergeService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	ruleRepo portsrepo.CategoryRuleReader,
	categorizer portssvc.CategorizerSvc,
) portssvc.MergeSvc {
	return &mergeService{
		txnRepo:     txnRepo,
		ruleRepo:    ruleRepo,
		categorizer: categorizer,
	}
}

// Merge inserts, updates or skips one raw record.
func (s *mergeService) Merge(ctx context.Context, credentialID string, raw domain.RawTransaction) (*domain.MergeResult, error) {
	if err := raw.Validate(); err != nil {
		return nil, apperrors.Validationf("invalid raw transaction: %v", err)
	}
	incoming := domain.NewTransactionFromRaw(raw)
	incoming.CredentialID = credentialID

	existing, err := s.txnRepo.FindByFingerprint(ctx, incoming.Fingerprint)
	if err == nil {
		return s.mergeExisting(ctx, *existing, incoming)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up fingerprint: %w", err)
	}

	// A new fingerprint with a known source reference is a corrected record.
	if incoming.Identifier != "" {
		prior, err := s.txnRepo.FindByIdentifier(ctx, incoming.Vendor, incoming.AccountNumber, incoming.Identifier)
		if err == nil {
			return s.applyCorrection(ctx, *prior, incoming)
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up identifier: %w", err)
		}
	}

	return s.insert(ctx, incoming)
}

func (s *mergeService) insert(ctx context.Context, incoming domain.Transaction) (*domain.MergeResult, error) {
	now := s.Now()
	incoming.TransactionID = uuid.NewString()
	cat := s.categorizer.Categorize(ctx, incoming)
	incoming.Category = cat.Category
	incoming.CategorySource = cat.Source
	incoming.AuditFields = domain.AuditFields{CreatedAt: now, LastUpdatedAt: now, LastUpdatedBy: mergeActor}

	saved, err := s.txnRepo.InsertTransaction(ctx, incoming)
	if errors.Is(err, apperrors.ErrDuplicate) {
		// Lost an insert race on the fingerprint; merge against the winner.
		winner, findErr := s.txnRepo.FindByFingerprint(ctx, incoming.Fingerprint)
		if findErr != nil {
			return nil, fmt.Errorf("failed to re-read duplicate fingerprint: %w", findErr)
		}
		return s.mergeExisting(ctx, *winner, incoming)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return &domain.MergeResult{Action: domain.MergeInsert, Transaction: *saved, CategorySource: saved.CategorySource}, nil
}

func (s *mergeService) mergeExisting(ctx context.Context, existing, incoming domain.Transaction) (*domain.MergeResult, error) {
	if incoming.SourceCategory != "" && incoming.SourceCategory != existing.SourceCategory {
		updated := existing
		refreshMutable(&updated, incoming)
		return s.recategorize(ctx, existing, updated)
	}

	if existing.CategorySource != domain.CategorySourceManual {
		rule, err := s.ruleRepo.FindRuleByDescription(ctx, existing.NormalizedDescription())
		switch {
		case err == nil && rule.Category != existing.Category:
			updated := existing
			updated.Category = rule.Category
			updated.CategorySource = domain.CategorySourceRule
			return s.save(ctx, existing, updated)
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			s.LogWarn(ctx, err, "Rule lookup for duplicate failed", slog.String("transaction_id", existing.TransactionID))
		}
	}

	existing.IsDuplicate = true
	return &domain.MergeResult{Action: domain.MergeSkip, Transaction: existing, CategorySource: existing.CategorySource}, nil
}

// applyCorrection rewrites the identity of a record matched by identifier.
func (s *mergeService) applyCorrection(ctx context.Context, prior, incoming domain.Transaction) (*domain.MergeResult, error) {
	updated := prior
	updated.Fingerprint = incoming.Fingerprint
	updated.Date = incoming.Date
	updated.Amount = incoming.Amount
	updated.OriginalAmount = incoming.OriginalAmount
	updated.OriginalCurrency = incoming.OriginalCurrency
	updated.Description = incoming.Description
	refreshMutable(&updated, incoming)

	s.LogInfo(ctx, "Correcting transaction matched by identifier",
		slog.String("transaction_id", prior.TransactionID),
		slog.String("old_amount", prior.Amount.String()),
		slog.String("new_amount", incoming.Amount.String()))

	if incoming.SourceCategory != "" && incoming.SourceCategory != prior.SourceCategory {
		return s.recategorize(ctx, prior, updated)
	}
	return s.save(ctx, prior, updated)
}

// recategorize reruns the chain for an updated record. Manual categories stick.
func (s *mergeService) recategorize(ctx context.Context, existing, updated domain.Transaction) (*domain.MergeResult, error) {
	if existing.CategorySource != domain.CategorySourceManual {
		cat := s.categorizer.Categorize(ctx, updated)
		updated.Category = cat.Category
		updated.CategorySource = cat.Source
	}
	return s.save(ctx, existing, updated)
}

func (s *mergeService) save(ctx context.Context, existing, updated domain.Transaction) (*domain.MergeResult, error) {
	updated.LastUpdatedAt = s.Now()
	updated.LastUpdatedBy = mergeActor

	saved, err := s.txnRepo.UpdateTransaction(ctx, updated)
	if errors.Is(err, apperrors.ErrDuplicate) {
		// The corrected fingerprint already belongs to another row.
		winner, findErr := s.txnRepo.FindByFingerprint(ctx, updated.Fingerprint)
		if findErr != nil {
			return nil, fmt.Errorf("failed to re-read duplicate fingerprint: %w", findErr)
		}
		return s.mergeExisting(ctx, *winner, updated)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", existing.TransactionID, err)
	}

	saved.IsUpdate = true
	result := &domain.MergeResult{Action: domain.MergeUpdate, Transaction: *saved, CategorySource: saved.CategorySource}
	if existing.Category != saved.Category {
		result.OldCategory = existing.Category
	}
	return result, nil
}

// refreshMutable copies the fields a source may legitimately change.
func refreshMutable(dst *domain.Transaction, src domain.Transaction) {
	dst.CredentialID = src.CredentialID
	if src.SourceCategory != "" {
		dst.SourceCategory = src.SourceCategory
	}
	dst.Status = src.Status
	dst.ProcessedDate = src.ProcessedDate
	dst.Memo = src.Memo
	if src.Identifier != "" {
		dst.Identifier = src.Identifier
	}
}
