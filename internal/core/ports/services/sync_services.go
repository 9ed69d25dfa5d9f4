package services

import (
	"context"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/progress"
)

// SessionStream is the caller side of a running sync session. Events is
// closed after the terminal event, or without one when the session is aborted.
type SessionStream interface {
	SessionID() string
	Events() <-chan progress.Event
	// Session returns a snapshot of the session state.
	Session() domain.SyncSession
}

// SyncStarterSvc starts sync sessions.
type SyncStarterSvc interface {
	// StartSession validates the request and starts a session that runs until
	// completion, failure or cancellation of ctx.
	StartSession(ctx context.Context, req domain.SyncRequest) (SessionStream, error)
}

// SyncStatusSvc answers questions about past and running sessions.
type SyncStatusSvc interface {
	// GetSessionStatus returns the running session of a credential, or the
	// most recently finished one.
	GetSessionStatus(ctx context.Context, credentialID string) (*domain.SyncSession, error)

	// LastTransactionDate returns the newest stored transaction date of a vendor.
	LastTransactionDate(ctx context.Context, vendor string) (*time.Time, error)
}

// SyncSvcFacade combines all sync service interfaces.
type SyncSvcFacade interface {
	SyncStarterSvc
	SyncStatusSvc
}

// MergeSvc merges raw records into the transaction store.
type MergeSvc interface {
	Merge(ctx context.Context, credentialID string, raw domain.RawTransaction) (*domain.MergeResult, error)
}
