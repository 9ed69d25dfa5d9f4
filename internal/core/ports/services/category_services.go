package services

import (
	"context"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// CategorizerSvc assigns a category to a transaction. It never fails.
type CategorizerSvc interface {
	Categorize(ctx context.Context, txn domain.Transaction) domain.Categorization
}

// CategoryCorrectionSvc applies manual category corrections.
type CategoryCorrectionSvc interface {
	// UpdateCategoryByDescription re-categorizes every stored transaction with
	// the description and optionally persists a rule. It returns the number of
	// transactions updated.
	UpdateCategoryByDescription(ctx context.Context, description, newCategory string, createRule bool) (int, error)
}

// CategoryRuleSvc manages persisted category rules.
type CategoryRuleSvc interface {
	ListCategoryRules(ctx context.Context) ([]domain.CategoryRule, error)
	DeleteCategoryRule(ctx context.Context, ruleID string) error
}

// CategorizationSvcFacade combines all categorization service interfaces.
type CategorizationSvcFacade interface {
	CategorizerSvc
	CategoryCorrectionSvc
	CategoryRuleSvc
}
