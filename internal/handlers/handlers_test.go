package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/SscSPs/finsync/internal/handlers"
	"github.com/SscSPs/finsync/internal/platform/config"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/SscSPs/finsync/internal/utils/pagination"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	syncSvc        *MockSyncService
	patternSvc     *MockPatternService
	categorizerSvc *MockCategorizationService
}

func testConfig(rateLimit string) *config.Config {
	return &config.Config{
		IsProduction:       true,
		SyncRateLimit:      rateLimit,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newRouter(t *testing.T, cfg *config.Config, container *portssvc.ServiceContainer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, handlers.RegisterRoutes(r, cfg, container))
	return r
}

func (s *HandlerTestSuite) SetupTest() {
	s.syncSvc = new(MockSyncService)
	s.patternSvc = new(MockPatternService)
	s.categorizerSvc = new(MockCategorizationService)
	s.router = newRouter(s.T(), testConfig("1000-M"), &portssvc.ServiceContainer{
		Sync:           s.syncSvc,
		Patterns:       s.patternSvc,
		Categorization: s.categorizerSvc,
	})
}

func (s *HandlerTestSuite) TearDownTest() {
	s.syncSvc.AssertExpectations(s.T())
	s.patternSvc.AssertExpectations(s.T())
	s.categorizerSvc.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("OK", rec.Body.String())
}

func (s *HandlerTestSuite) TestStartSync_StreamsFrames() {
	stream := newFakeStream("session-1",
		progress.Progress(progress.ProgressPayload{SessionID: "session-1", Step: "init", Phase: "init", Message: "Starting"}),
		progress.Complete(domain.SyncSummary{SessionID: "session-1", Saved: 2}),
	)
	s.syncSvc.On("StartSession", mock.Anything, mock.MatchedBy(func(req domain.SyncRequest) bool {
		return req.Credential.CredentialID == "cred-1" &&
			req.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			req.Options.ResumeMode == domain.ResumeGapFill
	})).Return(stream, nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/sync", map[string]any{
		"credentialId": "cred-1",
		"startDate":    "2024-01-01",
		"options":      map[string]any{"resumeMode": "gap_fill"},
	})

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Type"), "text/event-stream")

	dec := progress.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	var names []progress.EventName
	for {
		frame, err := dec.Next()
		if err != nil {
			break
		}
		ev, err := progress.ParseFrame(frame)
		s.Require().NoError(err)
		names = append(names, ev.Name)
		if ev.Name == progress.EventComplete {
			s.Equal(2, ev.Payload.(*progress.CompletePayload).Summary.Saved)
		}
	}
	s.Equal([]progress.EventName{progress.EventProgress, progress.EventComplete}, names)
}

func (s *HandlerTestSuite) TestStartSync_InlineCredentials() {
	s.syncSvc.On("StartSession", mock.Anything, mock.MatchedBy(func(req domain.SyncRequest) bool {
		return req.Credential.CredentialID == "" &&
			req.Credential.Vendor == "isracard" &&
			req.Credential.Fields["password"] == "secret" &&
			req.BillingCycle == "2024-02"
	})).Return(newFakeStream("session-2"), nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/sync", map[string]any{
		"credentials":  map[string]any{"vendor": "isracard", "fields": map[string]string{"id": "1", "password": "secret"}},
		"billingCycle": "2024-02",
	})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerTestSuite) TestStartSync_RejectedBeforeStreaming() {
	testCases := []struct {
		name string
		body map[string]any
	}{
		{"no credential", map[string]any{"startDate": "2024-01-01"}},
		{"both credential forms", map[string]any{
			"credentialId": "cred-1",
			"credentials":  map[string]any{"vendor": "isracard", "fields": map[string]string{"id": "1"}},
		}},
		{"bad start date", map[string]any{"credentialId": "cred-1", "startDate": "2024-13-01"}},
		{"bad billing cycle", map[string]any{"credentialId": "cred-1", "billingCycle": "Feb 2024"}},
		{"bad resume mode", map[string]any{"credentialId": "cred-1", "startDate": "2024-01-01", "options": map[string]any{"resumeMode": "partial"}}},
		{"vendor mismatch", map[string]any{
			"vendor":      "max",
			"credentials": map[string]any{"vendor": "isracard", "fields": map[string]string{"id": "1"}},
		}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec := s.do(http.MethodPost, "/api/v1/sync", tc.body)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Contains(rec.Header().Get("Content-Type"), "application/json")
		})
	}
	s.syncSvc.AssertNotCalled(s.T(), "StartSession", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestStartSync_ServiceErrors() {
	s.syncSvc.On("StartSession", mock.Anything, mock.MatchedBy(func(req domain.SyncRequest) bool {
		return req.Credential.CredentialID == "busy"
	})).Return(nil, fmt.Errorf("%w: sync already running", apperrors.ErrConflict)).Once()
	s.syncSvc.On("StartSession", mock.Anything, mock.MatchedBy(func(req domain.SyncRequest) bool {
		return req.Credential.CredentialID == "future"
	})).Return(nil, apperrors.Validationf("start date is in the future")).Once()
	s.syncSvc.On("StartSession", mock.Anything, mock.MatchedBy(func(req domain.SyncRequest) bool {
		return req.Credential.CredentialID == "broken"
	})).Return(nil, fmt.Errorf("db down")).Once()

	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/api/v1/sync", map[string]any{"credentialId": "busy", "startDate": "2024-01-01"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/sync", map[string]any{"credentialId": "future", "startDate": "2030-01-01"}).Code)
	s.Equal(http.StatusInternalServerError, s.do(http.MethodPost, "/api/v1/sync", map[string]any{"credentialId": "broken", "startDate": "2024-01-01"}).Code)
}

func (s *HandlerTestSuite) TestGetSessionStatus() {
	finished := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	s.syncSvc.On("GetSessionStatus", mock.Anything, "cred-1").Return(&domain.SyncSession{
		SessionID:    "session-1",
		CredentialID: "cred-1",
		Vendor:       "isracard",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:       domain.SessionFailed,
		State:        domain.StateFailed,
		Error:        "Invalid password",
		Hint:         "Check the saved credentials",
		FinishedAt:   &finished,
	}, nil).Once()
	s.syncSvc.On("GetSessionStatus", mock.Anything, "cred-unknown").Return(nil, apperrors.ErrNotFound).Once()

	rec := s.do(http.MethodGet, "/api/v1/sync/sessions/cred-1", nil)
	s.Equal(http.StatusOK, rec.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("failed", body["status"])
	s.Equal("2024-01-01", body["startDate"])
	s.Equal("Check the saved credentials", body["hint"])

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/sync/sessions/cred-unknown", nil).Code)
}

func (s *HandlerTestSuite) TestLastTransactionDate() {
	last := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	s.syncSvc.On("LastTransactionDate", mock.Anything, "isracard").Return(&last, nil).Once()
	s.syncSvc.On("LastTransactionDate", mock.Anything, "max").Return(nil, nil).Once()
	s.syncSvc.On("LastTransactionDate", mock.Anything, "").Return(nil, apperrors.Validationf("vendor is required")).Once()

	rec := s.do(http.MethodGet, "/api/v1/sync/last-transaction-date?vendor=isracard", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"lastDate":"2024-01-10"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/sync/last-transaction-date?vendor=max", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"lastDate":null}`, rec.Body.String())

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/sync/last-transaction-date", nil).Code)
}

func (s *HandlerTestSuite) TestQueryPatterns_FirstPageReturnsSnapshot() {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	s.patternSvc.On("QueryPatterns", mock.Anything, mock.MatchedBy(func(q domain.PatternQuery) bool {
		return q.Type == domain.PatternRecurring && q.SortBy == "name" && q.SortOrder == domain.SortAsc &&
			q.Limit == 10 && q.Frequency == domain.FrequencyBiMonthly && q.Snapshot == 0
	})).Return(&domain.PatternPage{
		Type:             domain.PatternRecurring,
		Recurring:        []domain.RecurringGroup{{Name: "Water Bill", Frequency: domain.FrequencyBiMonthly, Amount: decimal.NewFromInt(150)}},
		Pagination:       domain.Pagination{Total: 11, Limit: 10, Offset: 0, HasMore: true, Snapshot: 57, Version: 9, AsOf: asOf},
		RecurringSummary: &domain.RecurringSummary{ActiveCount: 1, BiMonthlyCount: 1, ActiveAmount: decimal.NewFromInt(75)},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/recurring-payments?type=recurring&sortBy=name&sortOrder=asc&limit=10&frequency=bi-monthly", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Recurring    []map[string]any `json:"recurring"`
		Installments []map[string]any `json:"installments"`
		Pagination   struct {
			Total    int    `json:"total"`
			HasMore  bool   `json:"hasMore"`
			Snapshot string `json:"snapshot"`
		} `json:"pagination"`
		Summary map[string]any `json:"summary"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Recurring, 1)
	s.Nil(body.Installments)
	s.Equal(11, body.Pagination.Total)
	s.True(body.Pagination.HasMore)
	s.Equal(float64(1), body.Summary["biMonthlyCount"])

	seq, version, decodedAsOf, err := pagination.DecodeSnapshotToken(body.Pagination.Snapshot)
	s.Require().NoError(err)
	s.Equal(int64(57), seq)
	s.Equal(int64(9), version)
	s.True(asOf.Equal(decodedAsOf))
}

func (s *HandlerTestSuite) TestQueryPatterns_LaterPagePassesSnapshot() {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	token := pagination.EncodeSnapshotToken(57, 9, asOf)
	s.patternSvc.On("QueryPatterns", mock.Anything, mock.MatchedBy(func(q domain.PatternQuery) bool {
		return q.Type == domain.PatternInstallments && q.Offset == 25 && q.Snapshot == 57 && q.Version == 9 && q.AsOf.Equal(asOf)
	})).Return(&domain.PatternPage{
		Type:               domain.PatternInstallments,
		Pagination:         domain.Pagination{Total: 25, Limit: 25, Offset: 25, Snapshot: 57, Version: 9, AsOf: asOf},
		InstallmentSummary: &domain.InstallmentSummary{},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/recurring-payments?type=installments&offset=25&snapshot="+token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"installments":[]`)
}

func (s *HandlerTestSuite) TestQueryPatterns_BadInput() {
	s.patternSvc.On("QueryPatterns", mock.Anything, mock.MatchedBy(func(q domain.PatternQuery) bool {
		return q.SortBy == "color"
	})).Return(nil, apperrors.Validationf("unsupported sortBy %q", "color")).Once()

	for _, path := range []string{
		"/api/v1/recurring-payments",
		"/api/v1/recurring-payments?type=weekly",
		"/api/v1/recurring-payments?type=recurring&sortOrder=up",
		"/api/v1/recurring-payments?type=recurring&snapshot=***",
		"/api/v1/recurring-payments?type=recurring&limit=ten",
		"/api/v1/recurring-payments?type=recurring&sortBy=color",
	} {
		s.Equal(http.StatusBadRequest, s.do(http.MethodGet, path, nil).Code, path)
	}
}

func (s *HandlerTestSuite) TestExclusions() {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mark := &domain.ExclusionMark{ExclusionID: "ex-1", Name: "Gym", AccountNumber: "1234", CreatedAt: created}
	s.patternSvc.On("AddExclusion", mock.Anything, "Gym", "1234").Return(mark, nil).Once()
	s.patternSvc.On("ListExclusions", mock.Anything).Return([]domain.ExclusionMark{*mark}, nil).Once()
	s.patternSvc.On("RemoveExclusion", mock.Anything, "ex-1").Return(nil).Once()
	s.patternSvc.On("RemoveExclusion", mock.Anything, "ex-2").Return(apperrors.ErrNotFound).Once()

	rec := s.do(http.MethodPost, "/api/v1/non-recurring-exclusions", map[string]string{"name": "Gym", "account_number": "1234"})
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"id":"ex-1"`)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/non-recurring-exclusions", map[string]string{"name": "Gym"}).Code)

	rec = s.do(http.MethodGet, "/api/v1/non-recurring-exclusions", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"account_number":"1234"`)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/non-recurring-exclusions/ex-1", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/v1/non-recurring-exclusions/ex-2", nil).Code)
}

func (s *HandlerTestSuite) TestUpdateCategoryByDescription() {
	s.categorizerSvc.On("UpdateCategoryByDescription", mock.Anything, "Netflix", "Streaming", true).Return(3, nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/categories/update-by-description", map[string]any{
		"description": "Netflix",
		"newCategory": "Streaming",
		"createRule":  true,
	})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"transactionsUpdated":3}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/categories/update-by-description", map[string]any{"description": "Netflix"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerTestSuite) TestCategoryRules() {
	s.categorizerSvc.On("ListCategoryRules", mock.Anything).Return([]domain.CategoryRule{}, nil).Once()
	s.categorizerSvc.On("DeleteCategoryRule", mock.Anything, "rule-1").Return(nil).Once()
	s.categorizerSvc.On("DeleteCategoryRule", mock.Anything, "rule-2").Return(fmt.Errorf("%w: rule", apperrors.ErrNotFound)).Once()

	rec := s.do(http.MethodGet, "/api/v1/categories/rules", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/categories/rules/rule-1", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/v1/categories/rules/rule-2", nil).Code)
}

func TestStartSync_RateLimited(t *testing.T) {
	syncSvc := new(MockSyncService)
	syncSvc.On("StartSession", mock.Anything, mock.Anything).Return(newFakeStream("session-1"), nil).Once()
	router := newRouter(t, testConfig("1-M"), &portssvc.ServiceContainer{
		Sync:           syncSvc,
		Patterns:       new(MockPatternService),
		Categorization: new(MockCategorizationService),
	})

	send := func() int {
		body := bytes.NewBufferString(`{"credentialId":"cred-1","startDate":"2024-01-01"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
	syncSvc.AssertExpectations(t)
}

func TestRegisterRoutes_InvalidRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	err := handlers.RegisterRoutes(gin.New(), testConfig("lots"), &portssvc.ServiceContainer{})
	assert.Error(t, err)
}
