// Package sources defines the contract of the external producers of raw
// transactions. Institution specific scraping lives behind this interface.
package sources

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
)

var (
	// ErrAuthentication marks a login rejected by the institution.
	ErrAuthentication = errors.New("source authentication failed")
	// ErrUnsupportedVendor is returned by Open for a vendor the source cannot scrape.
	ErrUnsupportedVendor = errors.New("unsupported vendor")
)

// SourceError is an irrecoverable source failure with a user facing hint.
type SourceError struct {
	ErrorType string
	Message   string
	Hint      string
	Err       error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps ErrAuthentication with a message and a hint.
func NewAuthError(message, hint string) *SourceError {
	return &SourceError{ErrorType: "authentication", Message: message, Hint: hint, Err: ErrAuthentication}
}

// OpenRequest carries everything a source needs to log in and fetch.
type OpenRequest struct {
	SessionID string
	Vendor    string
	Fields    map[string]string
	StartDate time.Time
	Options   domain.SyncOptions
}

// Step is an informational progress notice from the source.
type Step struct {
	Name    string `json:"step"`
	Message string `json:"message"`
	Success *bool  `json:"success,omitempty"`
}

// AccountBatch is every raw record the source fetched for one account.
type AccountBatch struct {
	AccountNumber string                  `json:"accountNumber"`
	Transactions  []domain.RawTransaction `json:"txns"`
}

// Event is exactly one of Step or Account.
type Event struct {
	Step    *Step
	Account *AccountBatch
}

// Session is an authenticated scrape in progress. Next returns io.EOF once
// every account has been delivered.
type Session interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// RawTransactionSource opens authenticated scrape sessions.
type RawTransactionSource interface {
	// SupportsVendor reports whether Open can handle the vendor.
	SupportsVendor(vendor string) bool

	// Open logs in and returns a session ready to deliver accounts.
	// Authentication failures wrap ErrAuthentication.
	Open(ctx context.Context, req OpenRequest) (Session, error)
}
