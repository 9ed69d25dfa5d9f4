package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	"github.com/SscSPs/finsync/internal/models"
	"github.com/SscSPs/finsync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSessionRepository struct {
	BaseRepository
}

// newPgxSessionRepository creates a new repository for sync sessions and the
// vendor credentials they run with.
func newPgxSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var (
	_ portsrepo.SessionRepositoryFacade = (*PgxSessionRepository)(nil)
	_ portsrepo.CredentialReader        = (*PgxSessionRepository)(nil)
)

// SaveSession inserts or updates a session record.
func (r *PgxSessionRepository) SaveSession(ctx context.Context, session domain.SyncSession) error {
	m, err := mapping.ToModelSyncSession(session)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sync_sessions (session_id, credential_id, vendor, start_date, status, state, last_emitted_step,
			percent, error, hint, started_at, finished_at, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO UPDATE SET
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			last_emitted_step = EXCLUDED.last_emitted_step,
			percent = EXCLUDED.percent,
			error = EXCLUDED.error,
			hint = EXCLUDED.hint,
			finished_at = EXCLUDED.finished_at,
			summary = EXCLUDED.summary;
	`
	_, err = r.Pool.Exec(ctx, query,
		m.SessionID,
		m.CredentialID,
		m.Vendor,
		m.StartDate,
		m.Status,
		m.State,
		m.LastEmittedStep,
		m.Percent,
		m.Error,
		m.Hint,
		m.StartedAt,
		m.FinishedAt,
		m.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to save sync session %s: %w", m.SessionID, err)
	}
	return nil
}

// FindLatestSession retrieves the most recently started session of a credential.
func (r *PgxSessionRepository) FindLatestSession(ctx context.Context, credentialID string) (*domain.SyncSession, error) {
	query := `
		SELECT session_id, credential_id, vendor, start_date, status, state, last_emitted_step,
			percent, error, hint, started_at, finished_at, summary
		FROM sync_sessions
		WHERE credential_id = $1
		ORDER BY started_at DESC
		LIMIT 1;
	`
	rows, err := r.Pool.Query(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync session: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.SyncSession])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan sync session: %w", err)
	}
	session, err := mapping.ToDomainSyncSession(m)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindCredentialByID retrieves a stored vendor credential.
func (r *PgxSessionRepository) FindCredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT credential_id, vendor, fields, created_at
		FROM vendor_credentials
		WHERE credential_id = $1;
	`, credentialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.VendorCredential])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}
	cred := mapping.ToDomainCredential(m)
	return &cred, nil
}
