package services

import (
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/SscSPs/finsync/internal/core/ports/sources"
	"github.com/SscSPs/finsync/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, source sources.RawTransactionSource) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Patterns first: categorization and sync flush its cache.
	container.Patterns = NewPatternService(
		repos.TransactionRepo,
		repos.ExclusionRepo,
		WithRecurringTolerance(cfg.RecurringAmountTolerance),
		WithGraceDays(cfg.RecurringGraceDays),
		WithPatternCacheTTL(cfg.PatternCacheTTL),
	)

	container.Categorization = NewCategorizationService(
		repos.TransactionRepo,
		repos.CategoryRuleRepo,
		WithPatternInvalidator(container.Patterns),
	)

	container.Merge = NewMergeService(repos.TransactionRepo, repos.CategoryRuleRepo, container.Categorization)

	container.Sync = NewSyncService(
		source,
		container.Merge,
		repos,
		WithMaxLookback(cfg.SyncMaxLookback),
		WithSyncPatternInvalidator(container.Patterns),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.SyncSvcFacade           = (*syncService)(nil)
	_ portssvc.MergeSvc                = (*mergeService)(nil)
	_ portssvc.CategorizationSvcFacade = (*categorizationService)(nil)
	_ portssvc.PatternSvcFacade        = (*patternService)(nil)
	_ portssvc.SessionStream           = (*sessionRun)(nil)
)
