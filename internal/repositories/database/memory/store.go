// Package memory is an in-process implementation of the repository ports,
// used when no database is configured and by service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
)

// Store keeps every table in maps guarded by one lock. The fingerprint map
// plays the role of the unique index.
type Store struct {
	mu            sync.RWMutex
	seq           int64
	txns          map[string]domain.Transaction
	byFingerprint map[string]string
	rules         map[string]domain.CategoryRule
	exclusions    []domain.ExclusionMark
	sessions      map[string]domain.SyncSession
	credentials   map[string]domain.Credential
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		txns:          make(map[string]domain.Transaction),
		byFingerprint: make(map[string]string),
		rules:         make(map[string]domain.CategoryRule),
		sessions:      make(map[string]domain.SyncSession),
		credentials:   make(map[string]domain.Credential),
	}
}

var (
	_ portsrepo.TransactionRepositoryFacade  = (*Store)(nil)
	_ portsrepo.CategoryRuleRepositoryFacade = (*Store)(nil)
	_ portsrepo.ExclusionRepositoryFacade    = (*Store)(nil)
	_ portsrepo.SessionRepositoryFacade      = (*Store)(nil)
	_ portsrepo.CredentialReader             = (*Store)(nil)
)

// NewRepositoryProvider wires a fresh store into every repository slot.
func NewRepositoryProvider() (portsrepo.RepositoryProvider, *Store) {
	s := NewStore()
	return s.RepositoryProvider(), s
}

// RepositoryProvider exposes the store through every repository port.
func (s *Store) RepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TransactionRepo:  s,
		CategoryRuleRepo: s,
		ExclusionRepo:    s,
		SessionRepo:      s,
		CredentialRepo:   s,
	}
}

// PutCredential registers a credential for lookups.
func (s *Store) PutCredential(c domain.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.CredentialID] = c
}

// --- transactions ---

func (s *Store) FindByFingerprint(_ context.Context, fingerprint string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	t := s.txns[id]
	return &t, nil
}

func (s *Store) FindByIdentifier(_ context.Context, vendor, accountNumber, identifier string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.txns {
		if t.Identifier == identifier && t.Vendor == vendor && t.AccountNumber == accountNumber {
			return &t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) LatestCategoryForDescription(_ context.Context, normalizedDescription string, excludeID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.Transaction
	for id, t := range s.txns {
		if id == excludeID || t.NormalizedDescription() != normalizedDescription {
			continue
		}
		if t.Category == "" || strings.EqualFold(t.Category, domain.Uncategorized) {
			continue
		}
		if best == nil || t.LastUpdatedAt.After(best.LastUpdatedAt) ||
			(t.LastUpdatedAt.Equal(best.LastUpdatedAt) && t.Seq > best.Seq) {
			candidate := t
			best = &candidate
		}
	}
	if best == nil {
		return "", apperrors.ErrNotFound
	}
	return best.Category, nil
}

func (s *Store) LastTransactionDate(_ context.Context, vendor string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *time.Time
	for _, t := range s.txns {
		if t.Vendor != vendor {
			continue
		}
		if last == nil || t.Date.After(*last) {
			d := t.Date
			last = &d
		}
	}
	return last, nil
}

func (s *Store) ListForPatterns(_ context.Context, maxSeq int64) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := make([]domain.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		if t.Seq <= maxSeq {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *Store) MaxSeq(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq, nil
}

func (s *Store) InsertTransaction(_ context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byFingerprint[txn.Fingerprint]; taken {
		return nil, apperrors.ErrDuplicate
	}
	s.seq++
	txn.Seq = s.seq
	txn.IsDuplicate, txn.IsUpdate = false, false
	s.txns[txn.TransactionID] = txn
	s.byFingerprint[txn.Fingerprint] = txn.TransactionID
	return &txn, nil
}

func (s *Store) UpdateTransaction(_ context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.txns[txn.TransactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if owner, taken := s.byFingerprint[txn.Fingerprint]; taken && owner != txn.TransactionID {
		return nil, apperrors.ErrDuplicate
	}
	delete(s.byFingerprint, current.Fingerprint)
	txn.Seq = current.Seq
	txn.CreatedAt = current.CreatedAt
	txn.IsDuplicate, txn.IsUpdate = false, false
	s.txns[txn.TransactionID] = txn
	s.byFingerprint[txn.Fingerprint] = txn.TransactionID
	return &txn, nil
}

func (s *Store) ReassignCategory(_ context.Context, normalizedDescription, category string, rule *domain.CategoryRule, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, t := range s.txns {
		if t.NormalizedDescription() != normalizedDescription {
			continue
		}
		t.Category = category
		t.CategorySource = domain.CategorySourceManual
		t.LastUpdatedAt = now
		t.LastUpdatedBy = string(domain.CategorySourceManual)
		s.txns[id] = t
		count++
	}
	if rule != nil {
		if prev, ok := s.rules[rule.MatchDescription]; ok {
			rule.RuleID = prev.RuleID
			rule.CreatedAt = prev.CreatedAt
		}
		s.rules[rule.MatchDescription] = *rule
	}
	return count, nil
}

// --- category rules ---

func (s *Store) FindRuleByDescription(_ context.Context, normalizedDescription string) (*domain.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[normalizedDescription]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListRules(_ context.Context) ([]domain.CategoryRule, error) {
	s.mu.RLock()
	out := make([]domain.CategoryRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MatchDescription < out[j].MatchDescription })
	return out, nil
}

func (s *Store) DeleteRule(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for desc, r := range s.rules {
		if r.RuleID == ruleID {
			delete(s.rules, desc)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// --- exclusions ---

func (s *Store) SaveExclusion(_ context.Context, mark domain.ExclusionMark) (*domain.ExclusionMark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := domain.NormalizeDescription(mark.Name)
	for _, e := range s.exclusions {
		if domain.NormalizeDescription(e.Name) == name && e.AccountNumber == mark.AccountNumber {
			existing := e
			return &existing, nil
		}
	}
	s.exclusions = append(s.exclusions, mark)
	return &mark, nil
}

func (s *Store) ListExclusions(_ context.Context) ([]domain.ExclusionMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ExclusionMark, len(s.exclusions))
	copy(out, s.exclusions)
	return out, nil
}

func (s *Store) DeleteExclusion(_ context.Context, exclusionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.exclusions {
		if e.ExclusionID == exclusionID {
			s.exclusions = append(s.exclusions[:i], s.exclusions[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// --- sessions and credentials ---

func (s *Store) SaveSession(_ context.Context, session domain.SyncSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

func (s *Store) FindLatestSession(_ context.Context, credentialID string) (*domain.SyncSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.SyncSession
	for _, sess := range s.sessions {
		if sess.CredentialID != credentialID {
			continue
		}
		if latest == nil || sess.StartedAt.After(latest.StartedAt) {
			candidate := sess
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return latest, nil
}

func (s *Store) FindCredentialByID(_ context.Context, credentialID string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[credentialID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}
