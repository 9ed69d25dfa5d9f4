package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/stretchr/testify/mock"
)

// --- Mock SyncService ---
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) StartSession(ctx context.Context, req domain.SyncRequest) (portssvc.SessionStream, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(portssvc.SessionStream), args.Error(1)
}
func (m *MockSyncService) GetSessionStatus(ctx context.Context, credentialID string) (*domain.SyncSession, error) {
	args := m.Called(ctx, credentialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncSession), args.Error(1)
}
func (m *MockSyncService) LastTransactionDate(ctx context.Context, vendor string) (*time.Time, error) {
	args := m.Called(ctx, vendor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.SyncSvcFacade = (*MockSyncService)(nil)

// --- Mock PatternService ---
type MockPatternService struct {
	mock.Mock
}

func (m *MockPatternService) QueryPatterns(ctx context.Context, query domain.PatternQuery) (*domain.PatternPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatternPage), args.Error(1)
}
func (m *MockPatternService) AddExclusion(ctx context.Context, name, accountNumber string) (*domain.ExclusionMark, error) {
	args := m.Called(ctx, name, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExclusionMark), args.Error(1)
}
func (m *MockPatternService) ListExclusions(ctx context.Context) ([]domain.ExclusionMark, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExclusionMark), args.Error(1)
}
func (m *MockPatternService) RemoveExclusion(ctx context.Context, exclusionID string) error {
	args := m.Called(ctx, exclusionID)
	return args.Error(0)
}
func (m *MockPatternService) InvalidatePatterns() {
	m.Called()
}

var _ portssvc.PatternSvcFacade = (*MockPatternService)(nil)

// --- Mock CategorizationService ---
type MockCategorizationService struct {
	mock.Mock
}

func (m *MockCategorizationService) Categorize(ctx context.Context, txn domain.Transaction) domain.Categorization {
	args := m.Called(ctx, txn)
	return args.Get(0).(domain.Categorization)
}
func (m *MockCategorizationService) UpdateCategoryByDescription(ctx context.Context, description, newCategory string, createRule bool) (int, error) {
	args := m.Called(ctx, description, newCategory, createRule)
	return args.Int(0), args.Error(1)
}
func (m *MockCategorizationService) ListCategoryRules(ctx context.Context) ([]domain.CategoryRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryRule), args.Error(1)
}
func (m *MockCategorizationService) DeleteCategoryRule(ctx context.Context, ruleID string) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

var _ portssvc.CategorizationSvcFacade = (*MockCategorizationService)(nil)

// fakeStream replays a fixed list of events and then closes.
type fakeStream struct {
	session domain.SyncSession
	events  chan progress.Event
}

func newFakeStream(sessionID string, events ...progress.Event) *fakeStream {
	ch := make(chan progress.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &fakeStream{session: domain.SyncSession{SessionID: sessionID}, events: ch}
}

func (f *fakeStream) SessionID() string { return f.session.SessionID }
func (f *fakeStream) Events() <-chan progress.Event { return f.events }
func (f *fakeStream) Session() domain.SyncSession { return f.session }

var _ portssvc.SessionStream = (*fakeStream)(nil)
