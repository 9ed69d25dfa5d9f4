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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCategoryRuleRepository struct {
	BaseRepository
}

// newPgxCategoryRuleRepository creates a new repository for category rules.
func newPgxCategoryRuleRepository(pool *pgxpool.Pool) *PgxCategoryRuleRepository {
	return &PgxCategoryRuleRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.CategoryRuleRepositoryFacade = (*PgxCategoryRuleRepository)(nil)

// execer is satisfied by both the pool and a pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// upsertRule inserts a rule or replaces the category of the existing rule for
// the same description, keeping its id and creation time.
func upsertRule(ctx context.Context, db execer, rule domain.CategoryRule) error {
	m := mapping.ToModelCategoryRule(rule)
	query := `
		INSERT INTO category_rules (rule_id, match_description, category, created_at, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_description) DO UPDATE SET
			category = EXCLUDED.category,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := db.Exec(ctx, query,
		m.RuleID,
		m.MatchDescription,
		m.Category,
		m.CreatedAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save category rule for %q: %w", m.MatchDescription, err)
	}
	return nil
}

// FindRuleByDescription retrieves the rule for a normalized description.
func (r *PgxCategoryRuleRepository) FindRuleByDescription(ctx context.Context, normalizedDescription string) (*domain.CategoryRule, error) {
	query := `
		SELECT rule_id, match_description, category, created_at, last_updated_at, last_updated_by
		FROM category_rules
		WHERE match_description = $1;
	`
	rows, err := r.Pool.Query(ctx, query, normalizedDescription)
	if err != nil {
		return nil, fmt.Errorf("failed to query category rule: %w", err)
	}
	modelRule, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.CategoryRule])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan category rule: %w", err)
	}
	rule := mapping.ToDomainCategoryRule(modelRule)
	return &rule, nil
}

// ListRules retrieves all rules ordered by description.
func (r *PgxCategoryRuleRepository) ListRules(ctx context.Context) ([]domain.CategoryRule, error) {
	query := `
		SELECT rule_id, match_description, category, created_at, last_updated_at, last_updated_by
		FROM category_rules
		ORDER BY match_description;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category rules: %w", err)
	}
	modelRules, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.CategoryRule])
	if err != nil {
		return nil, fmt.Errorf("failed to scan category rules: %w", err)
	}

	rules := make([]domain.CategoryRule, len(modelRules))
	for i, m := range modelRules {
		rules[i] = mapping.ToDomainCategoryRule(m)
	}
	return rules, nil
}

// DeleteRule removes a rule by id.
func (r *PgxCategoryRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM category_rules WHERE rule_id = $1;`, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete category rule %s: %w", ruleID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
