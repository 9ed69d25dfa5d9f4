package repositories

import (
	"context"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// CategoryRuleReader defines read operations for category rules.
type CategoryRuleReader interface {
	// FindRuleByDescription retrieves the rule for a normalized description.
	FindRuleByDescription(ctx context.Context, normalizedDescription string) (*domain.CategoryRule, error)

	// ListRules retrieves all rules ordered by description.
	ListRules(ctx context.Context) ([]domain.CategoryRule, error)
}

// CategoryRuleWriter defines write operations for category rules.
type CategoryRuleWriter interface {
	// DeleteRule removes a rule by id.
	DeleteRule(ctx context.Context, ruleID string) error
}

// CategoryRuleRepositoryFacade combines all category rule repository interfaces.
type CategoryRuleRepositoryFacade interface {
	CategoryRuleReader
	CategoryRuleWriter
}
