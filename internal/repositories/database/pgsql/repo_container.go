package pgsql

import (
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	transactionRepo := newPgxTransactionRepository(dbPool)
	categoryRuleRepo := newPgxCategoryRuleRepository(dbPool)
	exclusionRepo := newPgxExclusionRepository(dbPool)
	sessionRepo := newPgxSessionRepository(dbPool)

	return portsrepo.RepositoryProvider{
		TransactionRepo:  transactionRepo,
		CategoryRuleRepo: categoryRuleRepo,
		ExclusionRepo:    exclusionRepo,
		SessionRepo:      sessionRepo,
		CredentialRepo:   sessionRepo,
	}
}
