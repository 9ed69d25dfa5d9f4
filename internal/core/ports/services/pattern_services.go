package services

import (
	"context"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// PatternQuerySvc serves paginated installment and recurring groups.
type PatternQuerySvc interface {
	QueryPatterns(ctx context.Context, query domain.PatternQuery) (*domain.PatternPage, error)
}

// ExclusionSvc manages recurring-detection exclusion marks.
type ExclusionSvc interface {
	AddExclusion(ctx context.Context, name, accountNumber string) (*domain.ExclusionMark, error)
	ListExclusions(ctx context.Context) ([]domain.ExclusionMark, error)
	RemoveExclusion(ctx context.Context, exclusionID string) error
}

// PatternCacheInvalidator drops computed groups after data they depend on changed.
type PatternCacheInvalidator interface {
	InvalidatePatterns()
}

// PatternSvcFacade combines all pattern service interfaces.
type PatternSvcFacade interface {
	PatternQuerySvc
	ExclusionSvc
	PatternCacheInvalidator
}
