package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPatternLimit = 25
	MaxPatternLimit     = 200

	defaultPatternCacheTTL = 5 * time.Minute
	defaultGraceDays       = 7
)

var defaultRecurringTolerance = decimal.RequireFromString("0.25")

// patternService derives installment and recurring groups on read. Computed
// group lists are cached per (snapshot, version) so later pages see the same
// ordering. Invalidation bumps the version instead of evicting, so pages of an
// already pinned snapshot keep their list until it expires.
type patternService struct {
	BaseService
	txnRepo       portsrepo.TransactionReader
	exclusionRepo portsrepo.ExclusionRepositoryFacade
	params        recurringParams
	cacheTTL      time.Duration
	cache         *cache.Cache
	flight        singleflight.Group
	version       atomic.Int64
}

// PatternServiceOption is a function that configures a patternService
type PatternServiceOption func(*patternService)

// WithRecurringTolerance sets the allowed relative deviation from the median amount.
func WithRecurringTolerance(tolerance decimal.Decimal) PatternServiceOption {
	return func(s *patternService) {
		if tolerance.IsPositive() {
			s.params.tolerance = tolerance
		}
	}
}

// WithGraceDays sets how long a recurring group stays active past its due date.
func WithGraceDays(days int) PatternServiceOption {
	return func(s *patternService) {
		if days >= 0 {
			s.params.grace = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithPatternCacheTTL sets how long computed groups are kept.
func WithPatternCacheTTL(ttl time.Duration) PatternServiceOption {
	return func(s *patternService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithPatternClock overrides the service clock.
func WithPatternClock(clock func() time.Time) PatternServiceOption {
	return func(s *patternService) {
		s.Clock = clock
	}
}

// NewPatternService creates a new pattern service.
func NewPatternService(
	txnRepo portsrepo.TransactionReader,
	exclusionRepo portsrepo.ExclusionRepositoryFacade,
	options ...PatternServiceOption,
) portssvc.PatternSvcFacade {
	svc := &patternService{
		txnRepo:       txnRepo,
		exclusionRepo: exclusionRepo,
		params: recurringParams{
			tolerance: defaultRecurringTolerance,
			grace:     defaultGraceDays * 24 * time.Hour,
		},
		cacheTTL: defaultPatternCacheTTL,
	}
	for _, option := range options {
		option(svc)
	}
	svc.cache = cache.New(svc.cacheTTL, 2*svc.cacheTTL)
	// Seeded from the clock so tokens issued before a restart do not collide.
	svc.version.Store(time.Now().UnixNano())
	return svc
}

// QueryPatterns returns one page of groups from a pinned snapshot.
func (s *patternService) QueryPatterns(ctx context.Context, query domain.PatternQuery) (*domain.PatternPage, error) {
	q, err := normalizePatternQuery(query)
	if err != nil {
		return nil, err
	}

	if q.Version == 0 {
		q.Version = s.version.Load()
	}
	if q.Snapshot == 0 {
		q.Snapshot, err = s.txnRepo.MaxSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to pin pattern snapshot: %w", err)
		}
	}
	if q.AsOf.IsZero() {
		q.AsOf = s.Now()
	}
	q.AsOf = domain.TruncateToDay(q.AsOf)

	page := &domain.PatternPage{Type: q.Type}
	var total int
	switch q.Type {
	case domain.PatternInstallments:
		groups, err := s.installmentGroups(ctx, q)
		if err != nil {
			return nil, err
		}
		groups = filterInstallments(groups, q)
		sortInstallments(groups, q.SortBy, q.SortOrder)
		page.InstallmentSummary = summarizeInstallments(groups)
		total = len(groups)
		lo, hi := pageBounds(total, q.Offset, q.Limit)
		page.Installments = groups[lo:hi]
	case domain.PatternRecurring:
		groups, err := s.recurringGroups(ctx, q)
		if err != nil {
			return nil, err
		}
		groups = filterRecurring(groups, q)
		sortRecurring(groups, q.SortBy, q.SortOrder)
		page.RecurringSummary = summarizeRecurring(groups)
		total = len(groups)
		lo, hi := pageBounds(total, q.Offset, q.Limit)
		page.Recurring = groups[lo:hi]
	}

	page.Pagination = domain.Pagination{
		Total:    total,
		Limit:    q.Limit,
		Offset:   q.Offset,
		HasMore:  q.Offset+q.Limit < total,
		Snapshot: q.Snapshot,
		Version:  q.Version,
		AsOf:     q.AsOf,
	}
	s.LogDebug(ctx, "Pattern query served",
		slog.String("type", string(q.Type)),
		slog.Int64("snapshot", q.Snapshot),
		slog.Int("total", total))
	return page, nil
}

func (s *patternService) installmentGroups(ctx context.Context, q domain.PatternQuery) ([]domain.InstallmentGroup, error) {
	v, err := s.cached(ctx, q, func(txns []domain.Transaction) any {
		return detectInstallments(txns, q.AsOf)
	})
	if err != nil {
		return nil, err
	}
	groups := v.([]domain.InstallmentGroup)
	out := make([]domain.InstallmentGroup, len(groups))
	copy(out, groups)
	return out, nil
}

// recurringGroups applies exclusions to the cached list on every read, so a
// new mark takes effect immediately even for pinned snapshots.
func (s *patternService) recurringGroups(ctx context.Context, q domain.PatternQuery) ([]domain.RecurringGroup, error) {
	v, err := s.cached(ctx, q, func(txns []domain.Transaction) any {
		return detectRecurring(txns, s.params, q.AsOf)
	})
	if err != nil {
		return nil, err
	}
	exclusions, err := s.exclusionRepo.ListExclusions(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load exclusions")
		return nil, fmt.Errorf("failed to load exclusions: %w", err)
	}
	groups := v.([]domain.RecurringGroup)
	out := make([]domain.RecurringGroup, len(groups))
	copy(out, groups)
	return dropExcluded(out, exclusions), nil
}

// cached computes groups at most once per (type, snapshot, version, day),
// coalescing concurrent callers. A hit refreshes the entry so a client paging
// through a snapshot keeps it alive.
func (s *patternService) cached(ctx context.Context, q domain.PatternQuery, compute func([]domain.Transaction) any) (any, error) {
	key := fmt.Sprintf("%s|%d|%d|%s", q.Type, q.Snapshot, q.Version, q.AsOf.Format(domain.DateLayout))
	if v, ok := s.cache.Get(key); ok {
		s.cache.Set(key, v, cache.DefaultExpiration)
		return v, nil
	}

	// Coalesced callers share the result, so one caller going away must not
	// cancel the load for the others.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		txns, err := s.txnRepo.ListForPatterns(loadCtx, q.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions for patterns: %w", err)
		}
		groups := compute(txns)
		s.cache.Set(key, groups, cache.DefaultExpiration)
		return groups, nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute pattern groups", slog.String("type", string(q.Type)))
		return nil, err
	}
	return v, nil
}

// InvalidatePatterns moves unpinned queries to a new version. Lists cached
// for older versions stay readable by their snapshot tokens until they expire.
func (s *patternService) InvalidatePatterns() {
	s.version.Add(1)
}

func (s *patternService) AddExclusion(ctx context.Context, name, accountNumber string) (*domain.ExclusionMark, error) {
	name = strings.TrimSpace(name)
	accountNumber = strings.TrimSpace(accountNumber)
	if name == "" {
		return nil, apperrors.Validationf("name is required")
	}
	if accountNumber == "" {
		return nil, apperrors.Validationf("account_number is required")
	}

	mark, err := s.exclusionRepo.SaveExclusion(ctx, domain.ExclusionMark{
		ExclusionID:   uuid.NewString(),
		Name:          name,
		AccountNumber: accountNumber,
		CreatedAt:     s.Now(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to save exclusion", slog.String("name", name))
		return nil, fmt.Errorf("failed to add exclusion: %w", err)
	}
	s.InvalidatePatterns()
	s.LogInfo(ctx, "Recurring exclusion added", slog.String("exclusion_id", mark.ExclusionID))
	return mark, nil
}

func (s *patternService) ListExclusions(ctx context.Context) ([]domain.ExclusionMark, error) {
	marks, err := s.exclusionRepo.ListExclusions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusions: %w", err)
	}
	if marks == nil {
		return []domain.ExclusionMark{}, nil
	}
	return marks, nil
}

func (s *patternService) RemoveExclusion(ctx context.Context, exclusionID string) error {
	if _, err := uuid.Parse(exclusionID); err != nil {
		return apperrors.Validationf("invalid exclusion id %q", exclusionID)
	}
	if err := s.exclusionRepo.DeleteExclusion(ctx, exclusionID); err != nil {
		return fmt.Errorf("failed to remove exclusion: %w", err)
	}
	s.InvalidatePatterns()
	return nil
}

// normalizePatternQuery applies defaults and rejects anything invalid.
func normalizePatternQuery(q domain.PatternQuery) (domain.PatternQuery, error) {
	switch q.Type {
	case domain.PatternInstallments, domain.PatternRecurring:
	default:
		return q, apperrors.Validationf("type must be installments or recurring")
	}

	if q.Limit == 0 {
		q.Limit = DefaultPatternLimit
	}
	if q.Limit < 1 || q.Limit > MaxPatternLimit {
		return q, apperrors.Validationf("limit must be between 1 and %d", MaxPatternLimit)
	}
	if q.Offset < 0 {
		return q, apperrors.Validationf("offset must not be negative")
	}

	if q.SortOrder == "" {
		q.SortOrder = domain.SortDesc
	}
	if q.SortOrder != domain.SortAsc && q.SortOrder != domain.SortDesc {
		return q, apperrors.Validationf("sortOrder must be asc or desc")
	}

	if q.SortBy == "" {
		q.SortBy = sortAmount
	}
	if !validSortKey(q.Type, q.SortBy) {
		return q, apperrors.Validationf("unsupported sortBy %q for %s", q.SortBy, q.Type)
	}

	if q.Frequency != "" {
		if q.Type != domain.PatternRecurring {
			return q, apperrors.Validationf("frequency only applies to recurring groups")
		}
		if q.Frequency != domain.FrequencyMonthly && q.Frequency != domain.FrequencyBiMonthly {
			return q, apperrors.Validationf("frequency must be monthly or bi-monthly")
		}
	}

	if q.Status != "" {
		valid := q.Status == "active" ||
			(q.Type == domain.PatternInstallments && q.Status == string(domain.InstallmentCompleted)) ||
			(q.Type == domain.PatternRecurring && q.Status == statusInactive)
		if !valid {
			return q, apperrors.Validationf("unsupported status %q for %s", q.Status, q.Type)
		}
	}
	return q, nil
}

func pageBounds(total, offset, limit int) (int, int) {
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return offset, end
}
