package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	portsrepo "github.com/SscSPs/finsync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/finsync/internal/core/ports/services"
	"github.com/SscSPs/finsync/internal/core/ports/sources"
	"github.com/SscSPs/finsync/internal/middleware"
	"github.com/SscSPs/finsync/internal/progress"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultEventBuffer = 16
	defaultMaxLookback = 366 * 24 * time.Hour
)

// Percent milestones of a session. Account batches spread over the fetching range.
const (
	percentInit           = 0
	percentAuthenticating = 5
	percentFetching       = 15
	percentFetchingMax    = 85
	percentPerAccount     = 10
	percentSaving         = 90
)

// syncService runs sync sessions: it pulls account batches from the source,
// merges every record and streams progress to the caller.
type syncService struct {
	BaseService
	source      sources.RawTransactionSource
	merger      portssvc.MergeSvc
	txnRepo     portsrepo.TransactionReader
	sessionRepo portsrepo.SessionRepositoryFacade
	credRepo    portsrepo.CredentialReader
	invalidator portssvc.PatternCacheInvalidator
	registry    *SessionRegistry
	validate    *validator.Validate
	maxLookback time.Duration
	eventBuffer int
}

// SyncServiceOption is a function that configures a syncService
type SyncServiceOption func(*syncService)

// WithMaxLookback limits how far back a start date may reach.
func WithMaxLookback(d time.Duration) SyncServiceOption {
	return func(s *syncService) {
		if d > 0 {
			s.maxLookback = d
		}
	}
}

// WithEventBuffer sets the capacity of the outbound event channel.
func WithEventBuffer(n int) SyncServiceOption {
	return func(s *syncService) {
		if n >= 0 {
			s.eventBuffer = n
		}
	}
}

// WithSyncPatternInvalidator flushes computed patterns after a sync updated rows.
func WithSyncPatternInvalidator(inv portssvc.PatternCacheInvalidator) SyncServiceOption {
	return func(s *syncService) {
		s.invalidator = inv
	}
}

// WithSessionRegistry shares a registry between service instances.
func WithSessionRegistry(r *SessionRegistry) SyncServiceOption {
	return func(s *syncService) {
		s.registry = r
	}
}

// WithSyncClock overrides the service clock.
func WithSyncClock(clock func() time.Time) SyncServiceOption {
	return func(s *syncService) {
		s.Clock = clock
	}
}

// NewSyncService creates a new sync service.
func NewSyncService(
	source sources.RawTransactionSource,
	merger portssvc.MergeSvc,
	repos portsrepo.RepositoryProvider,
	options ...SyncServiceOption,
) portssvc.SyncSvcFacade {
	svc := &syncService{
		source:      source,
		merger:      merger,
		txnRepo:     repos.TransactionRepo,
		sessionRepo: repos.SessionRepo,
		credRepo:    repos.CredentialRepo,
		validate:    validator.New(),
		maxLookback: defaultMaxLookback,
		eventBuffer: defaultEventBuffer,
	}
	for _, option := range options {
		option(svc)
	}
	if svc.registry == nil {
		svc.registry = NewSessionRegistry()
	}
	return svc
}

// StartSession validates the request, registers the session and runs it in
// the background until it completes, fails or ctx is cancelled.
func (s *syncService) StartSession(ctx context.Context, req domain.SyncRequest) (portssvc.SessionStream, error) {
	req, err := s.resolveRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	session := domain.SyncSession{
		SessionID:    uuid.NewString(),
		CredentialID: req.Credential.CredentialID,
		Vendor:       req.Credential.Vendor,
		StartDate:    req.StartDate,
		Status:       domain.SessionRunning,
		State:        domain.StateInit,
		StartedAt:    now,
	}
	run := newSessionRun(session, s.eventBuffer)
	if err := s.registry.acquire(run); err != nil {
		s.LogInfo(ctx, "Rejected concurrent sync", slog.String("credential_id", session.CredentialID))
		return nil, err
	}

	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		s.LogWarn(ctx, err, "Failed to record session start", slog.String("session_id", session.SessionID))
	}

	openReq := sources.OpenRequest{
		SessionID: session.SessionID,
		Vendor:    req.Credential.Vendor,
		Fields:    req.Credential.Fields,
		StartDate: req.StartDate,
		Options:   req.Options,
	}
	go s.run(ctx, run, openReq)
	return run, nil
}

// resolveRequest fills the credential, applies billing cycle and resume mode
// and rejects invalid requests before any session exists.
func (s *syncService) resolveRequest(ctx context.Context, req domain.SyncRequest) (domain.SyncRequest, error) {
	cred := req.Credential
	switch {
	case len(cred.Fields) > 0 && cred.CredentialID == "":
		cred.CredentialID = domain.InlineCredentialID(cred.Vendor, cred.Fields)
	case len(cred.Fields) == 0 && cred.CredentialID != "":
		stored, err := s.credRepo.FindCredentialByID(ctx, cred.CredentialID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return req, apperrors.Validationf("unknown credential %q", cred.CredentialID)
		}
		if err != nil {
			return req, fmt.Errorf("failed to load credential: %w", err)
		}
		if cred.Vendor != "" && cred.Vendor != stored.Vendor {
			return req, apperrors.Validationf("credential %q belongs to vendor %q", cred.CredentialID, stored.Vendor)
		}
		cred = *stored
	}
	req.Credential = cred

	if req.BillingCycle != "" {
		start, err := domain.BillingCycleStart(req.BillingCycle)
		if err != nil {
			return req, apperrors.Validationf("%v", err)
		}
		req.StartDate = start
	}
	if req.Options.ResumeMode == "" {
		req.Options.ResumeMode = domain.ResumeFull
	}

	if err := s.validate.Struct(req); err != nil {
		return req, apperrors.Validationf("invalid sync request: %v", err)
	}
	if !s.source.SupportsVendor(cred.Vendor) {
		return req, apperrors.Validationf("unsupported vendor %q", cred.Vendor)
	}

	today := domain.TruncateToDay(s.Now())
	req.StartDate = domain.TruncateToDay(req.StartDate)
	if req.StartDate.After(today) {
		return req, apperrors.Validationf("start date %s is in the future", req.StartDate.Format(domain.DateLayout))
	}
	if req.StartDate.Before(today.Add(-s.maxLookback)) {
		return req, apperrors.Validationf("start date %s is too far in the past", req.StartDate.Format(domain.DateLayout))
	}

	if req.Options.ResumeMode == domain.ResumeGapFill {
		last, err := s.txnRepo.LastTransactionDate(ctx, cred.Vendor)
		if err != nil {
			return req, fmt.Errorf("failed to resolve gap-fill start: %w", err)
		}
		if last != nil {
			if gap := domain.GapFillStart(*last); gap.After(req.StartDate) {
				req.StartDate = gap
			}
		}
	}
	return req, nil
}

// run drives one session. It owns the event channel and closes it on exit.
func (s *syncService) run(ctx context.Context, run *sessionRun, openReq sources.OpenRequest) {
	defer close(run.events)
	// Terminal paths release earlier, before their last event; this covers aborts.
	defer s.registry.release(run)

	snapshot := run.Session()
	logger := s.GetLogger(ctx).With(
		slog.String("session_id", snapshot.SessionID),
		slog.String("credential_id", snapshot.CredentialID),
		slog.String("vendor", snapshot.Vendor),
	)
	ctx = middleware.WithLogger(ctx, logger)

	summary := domain.SyncSummary{
		SessionID: snapshot.SessionID,
		Vendor:    snapshot.Vendor,
		StartDate: openReq.StartDate.Format(domain.DateLayout),
	}
	started := s.Now()

	if !s.emitProgress(ctx, run, "init", "Starting sync", percentInit, nil) {
		s.abort(ctx, run)
		return
	}
	if !s.transition(ctx, run, domain.StateAuthenticating, "Logging in", percentAuthenticating) {
		s.abort(ctx, run)
		return
	}

	sess, err := s.source.Open(ctx, openReq)
	if err != nil {
		if ctx.Err() != nil {
			s.abort(ctx, run)
			return
		}
		s.fail(ctx, run, &summary, err)
		return
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("Failed to close source session", slog.String("error", cerr.Error()))
		}
	}()

	if !s.transition(ctx, run, domain.StateFetching, "Fetching transactions", percentFetching) {
		s.abort(ctx, run)
		return
	}

	for {
		if ctx.Err() != nil {
			s.abort(ctx, run)
			return
		}
		ev, err := sess.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				s.abort(ctx, run)
				return
			}
			s.fail(ctx, run, &summary, err)
			return
		}

		switch {
		case ev.Step != nil:
			if !s.emitProgress(ctx, run, ev.Step.Name, ev.Step.Message, run.Session().Percent, ev.Step.Success) {
				s.abort(ctx, run)
				return
			}
		case ev.Account != nil:
			ok, err := s.processAccount(ctx, run, openReq, ev.Account, &summary)
			if err != nil {
				s.fail(ctx, run, &summary, err)
				return
			}
			if !ok {
				s.abort(ctx, run)
				return
			}
		}
	}

	if !s.transition(ctx, run, domain.StateSaving, "Saving session", percentSaving) {
		s.abort(ctx, run)
		return
	}
	summary.DurationMillis = s.Now().Sub(started).Milliseconds()
	if summary.Updated > 0 && s.invalidator != nil {
		s.invalidator.InvalidatePatterns()
	}

	_ = run.update(func(sess *domain.SyncSession) error {
		finished := s.Now()
		sess.FinishedAt = &finished
		sess.Percent = 100
		sess.Summary = &summary
		return sess.Transition(domain.StateCompleted)
	})
	s.persist(ctx, run)
	s.registry.release(run)

	logger.Info("Sync completed",
		slog.Int("accounts", summary.Accounts),
		slog.Int("saved", summary.Saved),
		slog.Int("duplicates", summary.Duplicates),
		slog.Int("updated", summary.Updated))
	s.emit(ctx, run, progress.Complete(summary))
}

// processAccount merges one account batch. It returns false when the session
// was cancelled and an error when the store failed.
func (s *syncService) processAccount(ctx context.Context, run *sessionRun, openReq sources.OpenRequest, batch *sources.AccountBatch, summary *domain.SyncSummary) (bool, error) {
	summary.Accounts++
	if !s.transition(ctx, run, domain.StateProcessing, fmt.Sprintf("Processing account %s", batch.AccountNumber), run.Session().Percent) {
		return false, nil
	}

	credentialID := run.Session().CredentialID
	var saved, duplicates, updated int
	for _, raw := range batch.Transactions {
		if ctx.Err() != nil {
			return false, nil
		}
		summary.RawTransactions++
		if raw.Vendor == "" {
			raw.Vendor = openReq.Vendor
		}
		if raw.AccountNumber == "" {
			raw.AccountNumber = batch.AccountNumber
		}
		if !raw.Date.IsZero() && domain.TruncateToDay(raw.Date).Before(openReq.StartDate) {
			summary.Filtered++
			continue
		}

		res, err := s.merger.Merge(ctx, credentialID, raw)
		if errors.Is(err, apperrors.ErrValidation) {
			summary.Invalid++
			s.LogWarn(ctx, err, "Skipping invalid raw transaction", slog.String("account", batch.AccountNumber))
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			return false, err
		}

		switch res.Action {
		case domain.MergeInsert:
			saved++
			summary.Categorization.Add(res.CategorySource)
		case domain.MergeUpdate:
			updated++
			summary.Categorization.Add(res.CategorySource)
		case domain.MergeSkip:
			duplicates++
		}
	}
	summary.Saved += saved
	summary.Duplicates += duplicates
	summary.Updated += updated

	percent := percentFetching + summary.Accounts*percentPerAccount
	if percent > percentFetchingMax {
		percent = percentFetchingMax
	}
	msg := fmt.Sprintf("Account %s: %d new, %d duplicates, %d updated", batch.AccountNumber, saved, duplicates, updated)
	if !s.transition(ctx, run, domain.StateFetching, msg, percent) {
		return false, nil
	}
	return true, nil
}

// transition moves the session and emits a progress event for the new state.
func (s *syncService) transition(ctx context.Context, run *sessionRun, to domain.SyncState, message string, percent int) bool {
	if err := run.update(func(sess *domain.SyncSession) error { return sess.Transition(to) }); err != nil {
		s.LogError(ctx, err, "Illegal sync state transition")
	}
	return s.emitProgress(ctx, run, string(to), message, percent, nil)
}

func (s *syncService) emitProgress(ctx context.Context, run *sessionRun, step, message string, percent int, success *bool) bool {
	var sessionID string
	var phase domain.SyncState
	_ = run.update(func(sess *domain.SyncSession) error {
		sess.LastEmittedStep = step
		sess.Percent = percent
		sessionID, phase = sess.SessionID, sess.State
		return nil
	})
	return s.emit(ctx, run, progress.Progress(progress.ProgressPayload{
		SessionID: sessionID,
		Step:      step,
		Message:   message,
		Percent:   percent,
		Phase:     string(phase),
		Success:   success,
	}))
}

// emit delivers one event unless the caller went away first.
func (s *syncService) emit(ctx context.Context, run *sessionRun, ev progress.Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case run.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail ends the session with a single error event. Merged rows are kept.
func (s *syncService) fail(ctx context.Context, run *sessionRun, summary *domain.SyncSummary, cause error) {
	payload := describeSourceError(cause)
	_ = run.update(func(sess *domain.SyncSession) error {
		finished := s.Now()
		sess.FinishedAt = &finished
		sess.Error = payload.Message
		sess.Hint = payload.Hint
		sess.Summary = summary
		payload.SessionID = sess.SessionID
		return sess.Transition(domain.StateFailed)
	})
	s.persist(ctx, run)
	s.registry.release(run)
	s.LogError(ctx, cause, "Sync failed", slog.Int("saved", summary.Saved))
	s.emit(ctx, run, progress.Error(payload))
}

// abort records a cancelled session. Nothing more is sent to the caller.
func (s *syncService) abort(ctx context.Context, run *sessionRun) {
	_ = run.update(func(sess *domain.SyncSession) error {
		finished := s.Now()
		sess.FinishedAt = &finished
		return sess.Transition(domain.StateAborted)
	})
	s.persist(context.WithoutCancel(ctx), run)
	s.LogInfo(ctx, "Sync aborted by caller")
}

func (s *syncService) persist(ctx context.Context, run *sessionRun) {
	if err := s.sessionRepo.SaveSession(ctx, run.Session()); err != nil {
		s.LogWarn(ctx, err, "Failed to persist session")
	}
}

func describeSourceError(err error) progress.ErrorPayload {
	var srcErr *sources.SourceError
	if errors.As(err, &srcErr) {
		return progress.ErrorPayload{Message: srcErr.Message, Hint: srcErr.Hint, ErrorType: srcErr.ErrorType}
	}
	if errors.Is(err, sources.ErrAuthentication) {
		return progress.ErrorPayload{
			Message:   err.Error(),
			Hint:      "Check the saved credentials for this account and try again.",
			ErrorType: "authentication",
		}
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return progress.ErrorPayload{Message: "Failed to store transactions", ErrorType: "storage"}
	}
	return progress.ErrorPayload{Message: strings.TrimSpace(err.Error()), ErrorType: "source"}
}

// GetSessionStatus returns the running session, or the last finished one.
func (s *syncService) GetSessionStatus(ctx context.Context, credentialID string) (*domain.SyncSession, error) {
	if credentialID == "" {
		return nil, apperrors.Validationf("credentialId is required")
	}
	if active, ok := s.registry.Active(credentialID); ok {
		return &active, nil
	}
	session, err := s.sessionRepo.FindLatestSession(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// LastTransactionDate is the continuation point of a failed sync.
func (s *syncService) LastTransactionDate(ctx context.Context, vendor string) (*time.Time, error) {
	if strings.TrimSpace(vendor) == "" {
		return nil, apperrors.Validationf("vendor is required")
	}
	last, err := s.txnRepo.LastTransactionDate(ctx, vendor)
	if err != nil {
		s.LogError(ctx, err, "Failed to read last transaction date", slog.String("vendor", vendor))
		return nil, fmt.Errorf("failed to get last transaction date: %w", err)
	}
	return last, nil
}
