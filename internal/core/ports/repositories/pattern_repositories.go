package repositories

import (
	"context"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// ExclusionRepositoryFacade persists recurring-detection exclusion marks.
type ExclusionRepositoryFacade interface {
	// SaveExclusion stores a mark. Saving a pair that is already excluded
	// returns the existing mark.
	SaveExclusion(ctx context.Context, mark domain.ExclusionMark) (*domain.ExclusionMark, error)

	// ListExclusions retrieves every mark, oldest first.
	ListExclusions(ctx context.Context) ([]domain.ExclusionMark, error)

	// DeleteExclusion removes a mark by id.
	DeleteExclusion(ctx context.Context, exclusionID string) error
}
