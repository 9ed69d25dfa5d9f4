package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/google/uuid"
)

// categorizationService resolves categories with the precedence
// rule > cache > source > Uncategorized.
type categorizationService struct {
	BaseService
	txnRepo     portsrepo.TransactionRepositoryFacade
	ruleRepo    portsrepo.CategoryRuleRepositoryFacade
	invalidator portssvc.PatternCacheInvalidator
}

// CategorizationServiceOption is a function that configures a categorizationService
type CategorizationServiceOption func(*categorizationService)

// WithPatternInvalidator flushes computed patterns after manual corrections.
func WithPatternInvalidator(inv portssvc.PatternCacheInvalidator) CategorizationServiceOption {
	return func(s *categorizationService) {
		s.invalidator = inv
	}
}

// WithCategorizationClock overrides the service clock.
func WithCategorizationClock(clock func() time.Time) CategorizationServiceOption {
	return func(s *categorizationService) {
		s.Clock = clock
	}
}

// NewCategorizationService creates a new categorization service.
func NewCategorizationService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	ruleRepo portsrepo.CategoryRuleRepositoryFacade,
	options ...CategorizationServiceOption,
) portssvc.CategorizationSvcFacade {
	svc := &categorizationService{
		txnRepo:  txnRepo,
		ruleRepo: ruleRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Categorize runs the precedence chain. Lookup errors degrade to the next rung.
func (s *categorizationService) Categorize(ctx context.Context, txn domain.Transaction) domain.Categorization {
	desc := txn.NormalizedDescription()

	rule, err := s.ruleRepo.FindRuleByDescription(ctx, desc)
	switch {
	case err == nil && rule != nil:
		return domain.Categorization{Category: rule.Category, Source: domain.CategorySourceRule}
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		s.LogWarn(ctx, err, "Category rule lookup failed, falling back", slog.String("description", desc))
	}

	cached, err := s.txnRepo.LatestCategoryForDescription(ctx, desc, txn.TransactionID)
	switch {
	case err == nil && isAssignedCategory(cached):
		return domain.Categorization{Category: cached, Source: domain.CategorySourceCache}
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		s.LogWarn(ctx, err, "Category cache lookup failed, falling back", slog.String("description", desc))
	}

	if isAssignedCategory(txn.SourceCategory) {
		return domain.Categorization{Category: txn.SourceCategory, Source: domain.CategorySourceScraper}
	}
	return domain.Categorization{Category: domain.Uncategorized, Source: domain.CategorySourceNone}
}

// UpdateCategoryByDescription re-categorizes every stored match and optionally
// persists a rule for future ingests.
func (s *categorizationService) UpdateCategoryByDescription(ctx context.Context, description, newCategory string, createRule bool) (int, error) {
	desc := domain.NormalizeDescription(description)
	category := strings.TrimSpace(newCategory)
	if desc == "" {
		return 0, apperrors.Validationf("description is required")
	}
	if category == "" {
		return 0, apperrors.Validationf("newCategory is required")
	}

	now := s.Now()
	var rule *domain.CategoryRule
	if createRule {
		rule = &domain.CategoryRule{
			RuleID:           uuid.NewString(),
			MatchDescription: desc,
			Category:         category,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				LastUpdatedAt: now,
				LastUpdatedBy: string(domain.CategorySourceManual),
			},
		}
	}

	count, err := s.txnRepo.ReassignCategory(ctx, desc, category, rule, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to reassign category", slog.String("description", desc))
		return 0, fmt.Errorf("failed to update category by description: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidatePatterns()
	}

	s.LogInfo(ctx, "Category updated by description",
		slog.String("description", desc),
		slog.String("category", category),
		slog.Bool("rule_created", createRule),
		slog.Int("transactions_updated", count))
	return count, nil
}

func (s *categorizationService) ListCategoryRules(ctx context.Context) ([]domain.CategoryRule, error) {
	rules, err := s.ruleRepo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}
	if rules == nil {
		return []domain.CategoryRule{}, nil
	}
	return rules, nil
}

func (s *categorizationService) DeleteCategoryRule(ctx context.Context, ruleID string) error {
	if _, err := uuid.Parse(ruleID); err != nil {
		return apperrors.Validationf("invalid rule id %q", ruleID)
	}
	if err := s.ruleRepo.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to delete category rule: %w", err)
	}
	return nil
}

func isAssignedCategory(category string) bool {
	c := strings.TrimSpace(category)
	return c != "" && !strings.EqualFold(c, domain.Uncategorized)
}
