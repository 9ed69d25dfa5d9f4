package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Transaction, error) {
	args := m.Called(ctx, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByIdentifier(ctx context.Context, vendor, accountNumber, identifier string) (*domain.Transaction, error) {
	args := m.Called(ctx, vendor, accountNumber, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LatestCategoryForDescription(ctx context.Context, normalizedDescription string, excludeID string) (string, error) {
	args := m.Called(ctx, normalizedDescription, excludeID)
	return args.String(0), args.Error(1)
}

func (m *MockTransactionRepository) LastTransactionDate(ctx context.Context, vendor string) (*time.Time, error) {
	args := m.Called(ctx, vendor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockTransactionRepository) ListForPatterns(ctx context.Context, maxSeq int64) ([]domain.Transaction, error) {
	args := m.Called(ctx, maxSeq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MaxSeq(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ReassignCategory(ctx context.Context, normalizedDescription, category string, rule *domain.CategoryRule, now time.Time) (int, error) {
	args := m.Called(ctx, normalizedDescription, category, rule, now)
	return args.Int(0), args.Error(1)
}

// --- Mock CategoryRuleRepository ---
type MockCategoryRuleRepository struct {
	mock.Mock
}

func (m *MockCategoryRuleRepository) FindRuleByDescription(ctx context.Context, normalizedDescription string) (*domain.CategoryRule, error) {
	args := m.Called(ctx, normalizedDescription)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryRule), args.Error(1)
}

func (m *MockCategoryRuleRepository) ListRules(ctx context.Context) ([]domain.CategoryRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryRule), args.Error(1)
}

func (m *MockCategoryRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

// --- Mock PatternCacheInvalidator ---
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidatePatterns() {
	m.Called()
}
