package domain

import (
	"fmt"
	"time"
)

// SyncState is a node of the session state machine.
type SyncState string

const (
	StateInit           SyncState = "init"
	StateAuthenticating SyncState = "authenticating"
	StateFetching       SyncState = "fetching"
	StateProcessing     SyncState = "processing"
	StateSaving         SyncState = "saving"
	StateCompleted      SyncState = "completed"
	StateFailed         SyncState = "failed"
	StateAborted        SyncState = "aborted"
)

// allowedTransitions lists, per state, the states it may move to. Fetching
// and processing alternate once per account batch.
var allowedTransitions = map[SyncState][]SyncState{
	StateInit:           {StateAuthenticating, StateFailed, StateAborted},
	StateAuthenticating: {StateFetching, StateFailed, StateAborted},
	StateFetching:       {StateProcessing, StateSaving, StateFailed, StateAborted},
	StateProcessing:     {StateFetching, StateSaving, StateFailed, StateAborted},
	StateSaving:         {StateCompleted, StateFailed, StateAborted},
}

// IsTerminal reports whether no further transitions are possible.
func (s SyncState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateAborted
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to SyncState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SessionStatus is the coarse lifecycle of a session as seen by callers.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionAborted   SessionStatus = "aborted"
)

// ResumeMode selects where a (re)started sync begins.
type ResumeMode string

const (
	// ResumeFull replays from the requested start date.
	ResumeFull ResumeMode = "full"
	// ResumeGapFill starts the day after the newest stored transaction of the vendor.
	ResumeGapFill ResumeMode = "gap_fill"
)

// Credential references the login used to run a sync against one vendor.
type Credential struct {
	CredentialID string            `json:"credentialID" validate:"required"`
	Vendor       string            `json:"vendor" validate:"required"`
	Fields       map[string]string `json:"-"`
}

// SyncOptions are caller tunables passed along to the source.
type SyncOptions struct {
	ResumeMode     ResumeMode        `json:"resumeMode" validate:"omitempty,oneof=full gap_fill"`
	TimeoutSeconds int               `json:"timeoutSeconds" validate:"gte=0"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// SyncRequest is a validated request to start one sync session.
type SyncRequest struct {
	Credential Credential
	// BillingCycle ("YYYY-MM") replaces StartDate with the first day of that month.
	BillingCycle string
	StartDate    time.Time `validate:"required"`
	Options      SyncOptions
}

// SyncSession is the mutable state of one sync run.
type SyncSession struct {
	SessionID       string        `json:"sessionID"`
	CredentialID    string        `json:"credentialID"`
	Vendor          string        `json:"vendor"`
	StartDate       time.Time     `json:"startDate"`
	Status          SessionStatus `json:"status"`
	State           SyncState     `json:"state"`
	LastEmittedStep string        `json:"lastEmittedStep"`
	Percent         int           `json:"percent"`
	Error           string        `json:"error,omitempty"`
	Hint            string        `json:"hint,omitempty"`
	StartedAt       time.Time     `json:"startedAt"`
	FinishedAt      *time.Time    `json:"finishedAt,omitempty"`
	Summary         *SyncSummary  `json:"summary,omitempty"`
}

// Transition moves the session to the next state, keeping Status in step.
func (s *SyncSession) Transition(to SyncState) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("illegal sync state transition %s -> %s", s.State, to)
	}
	s.State = to
	switch to {
	case StateCompleted:
		s.Status = SessionCompleted
	case StateFailed:
		s.Status = SessionFailed
	case StateAborted:
		s.Status = SessionAborted
	default:
		s.Status = SessionRunning
	}
	return nil
}

// CategorizationBreakdown counts where merged transactions got their category.
type CategorizationBreakdown struct {
	FromRule      int `json:"fromRule"`
	FromCache     int `json:"fromCache"`
	FromSource    int `json:"fromSource"`
	Uncategorized int `json:"uncategorized"`
}

// Add counts one categorization result.
func (b *CategorizationBreakdown) Add(src CategorySource) {
	switch src {
	case CategorySourceRule:
		b.FromRule++
	case CategorySourceCache:
		b.FromCache++
	case CategorySourceScraper:
		b.FromSource++
	default:
		b.Uncategorized++
	}
}

// SyncSummary is carried by the final complete event.
type SyncSummary struct {
	SessionID       string                  `json:"sessionID"`
	Vendor          string                  `json:"vendor"`
	StartDate       string                  `json:"startDate"`
	Accounts        int                     `json:"accounts"`
	RawTransactions int                     `json:"rawTransactions"`
	Saved           int                     `json:"savedTransactions"`
	Duplicates      int                     `json:"duplicateTransactions"`
	Updated         int                     `json:"updatedTransactions"`
	Filtered        int                     `json:"filteredTransactions"`
	Invalid         int                     `json:"invalidTransactions"`
	Categorization  CategorizationBreakdown `json:"categorization"`
	DurationMillis  int64                   `json:"durationMillis"`
}

// BillingCycleStart resolves a "YYYY-MM" billing cycle to its first day.
func BillingCycleStart(cycle string) (time.Time, error) {
	t, err := time.Parse("2006-01", cycle)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid billing cycle %q, expected YYYY-MM", cycle)
	}
	return t.UTC(), nil
}

// GapFillStart is the start date of a retry that only fills the gap after
// the newest stored transaction.
func GapFillStart(last time.Time) time.Time {
	return TruncateToDay(last).AddDate(0, 0, 1)
}
