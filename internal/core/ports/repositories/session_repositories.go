package repositories

import (
	"context"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// SessionRepositoryFacade keeps the history of finished sync sessions.
type SessionRepositoryFacade interface {
	// SaveSession inserts or replaces a session row.
	SaveSession(ctx context.Context, session domain.SyncSession) error

	// FindLatestSession retrieves the most recently started session of a credential.
	FindLatestSession(ctx context.Context, credentialID string) (*domain.SyncSession, error)
}

// CredentialReader looks up stored vendor credentials. Credential management
// itself lives outside this service.
type CredentialReader interface {
	FindCredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error)
}
