package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	"github.com/SscSPs/finsync/internal/models"
	"github.com/SscSPs/finsync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxExclusionRepository struct {
	BaseRepository
}

// newPgxExclusionRepository creates a new repository for recurring exclusions.
func newPgxExclusionRepository(pool *pgxpool.Pool) *PgxExclusionRepository {
	return &PgxExclusionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ExclusionRepositoryFacade = (*PgxExclusionRepository)(nil)

// SaveExclusion stores a mark. Saving the same name and account again returns
// the mark stored first.
func (r *PgxExclusionRepository) SaveExclusion(ctx context.Context, mark domain.ExclusionMark) (*domain.ExclusionMark, error) {
	m := mapping.ToModelExclusion(mark)
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO non_recurring_exclusions (exclusion_id, name, normalized_name, account_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (normalized_name, account_number) DO UPDATE SET normalized_name = EXCLUDED.normalized_name
		RETURNING exclusion_id, name, normalized_name, account_number, created_at;
	`
	rows, err := r.Pool.Query(ctx, query, m.ExclusionID, m.Name, m.NormalizedName, m.AccountNumber, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save exclusion: %w", err)
	}
	saved, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ExclusionMark])
	if err != nil {
		return nil, fmt.Errorf("failed to scan saved exclusion: %w", err)
	}
	out := mapping.ToDomainExclusion(saved)
	return &out, nil
}

// ListExclusions retrieves every mark, oldest first.
func (r *PgxExclusionRepository) ListExclusions(ctx context.Context) ([]domain.ExclusionMark, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT exclusion_id, name, normalized_name, account_number, created_at
		FROM non_recurring_exclusions
		ORDER BY created_at, exclusion_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusions: %w", err)
	}
	modelMarks, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ExclusionMark])
	if err != nil {
		return nil, fmt.Errorf("failed to scan exclusions: %w", err)
	}

	marks := make([]domain.ExclusionMark, len(modelMarks))
	for i, m := range modelMarks {
		marks[i] = mapping.ToDomainExclusion(m)
	}
	return marks, nil
}

// DeleteExclusion removes a mark by id.
func (r *PgxExclusionRepository) DeleteExclusion(ctx context.Context, exclusionID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM non_recurring_exclusions WHERE exclusion_id = $1;`, exclusionID)
	if err != nil {
		return fmt.Errorf("failed to delete exclusion %s: %w", exclusionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
