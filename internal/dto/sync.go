package dto

import (
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
)

// InlineCredentials carries a login that is not stored on the server.
type InlineCredentials struct {
	Vendor string            `json:"vendor" binding:"required"`
	Fields map[string]string `json:"fields" binding:"required,min=1"`
}

// SyncOptionsRequest mirrors domain.SyncOptions on the wire.
type SyncOptionsRequest struct {
	ResumeMode     string            `json:"resumeMode" binding:"omitempty,oneof=full gap_fill"`
	TimeoutSeconds int               `json:"timeoutSeconds" binding:"gte=0"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// StartSyncRequest starts a sync session. Exactly one of CredentialID or
// Credentials identifies the login.
type StartSyncRequest struct {
	CredentialID string             `json:"credentialId" binding:"required_without=Credentials,excluded_with=Credentials"`
	Credentials  *InlineCredentials `json:"credentials" binding:"required_without=CredentialID"`
	Vendor       string             `json:"vendor"`
	StartDate    string             `json:"startDate" binding:"omitempty,isodate"`
	BillingCycle string             `json:"billingCycle" binding:"omitempty,yearmonth"`
	Options      SyncOptionsRequest `json:"options"`
}

// ToDomain converts the request to a domain.SyncRequest.
func (r StartSyncRequest) ToDomain() (domain.SyncRequest, error) {
	cred := domain.Credential{CredentialID: r.CredentialID, Vendor: r.Vendor}
	if r.Credentials != nil {
		cred.Fields = r.Credentials.Fields
		if r.Credentials.Vendor != "" {
			if cred.Vendor != "" && cred.Vendor != r.Credentials.Vendor {
				return domain.SyncRequest{}, apperrors.Validationf("vendor %q does not match credentials vendor %q", cred.Vendor, r.Credentials.Vendor)
			}
			cred.Vendor = r.Credentials.Vendor
		}
	}

	req := domain.SyncRequest{
		Credential:   cred,
		BillingCycle: r.BillingCycle,
		Options: domain.SyncOptions{
			ResumeMode:     domain.ResumeMode(r.Options.ResumeMode),
			TimeoutSeconds: r.Options.TimeoutSeconds,
			Extra:          r.Options.Extra,
		},
	}
	if r.StartDate != "" {
		start, err := time.Parse(domain.DateLayout, r.StartDate)
		if err != nil {
			return domain.SyncRequest{}, apperrors.Validationf("invalid startDate %q, expected YYYY-MM-DD", r.StartDate)
		}
		req.StartDate = start
	}
	return req, nil
}

// SyncSessionResponse is the state of a running or finished session.
type SyncSessionResponse struct {
	SessionID       string              `json:"sessionId"`
	CredentialID    string              `json:"credentialId"`
	Vendor          string              `json:"vendor"`
	StartDate       string              `json:"startDate"`
	Status          string              `json:"status"`
	State           string              `json:"state"`
	LastEmittedStep string              `json:"lastEmittedStep"`
	Percent         int                 `json:"percent"`
	Error           string              `json:"error,omitempty"`
	Hint            string              `json:"hint,omitempty"`
	StartedAt       time.Time           `json:"startedAt"`
	FinishedAt      *time.Time          `json:"finishedAt,omitempty"`
	Summary         *domain.SyncSummary `json:"summary,omitempty"`
}

// ToSyncSessionResponse converts a domain.SyncSession to its response DTO
func ToSyncSessionResponse(s *domain.SyncSession) SyncSessionResponse {
	return SyncSessionResponse{
		SessionID:       s.SessionID,
		CredentialID:    s.CredentialID,
		Vendor:          s.Vendor,
		StartDate:       s.StartDate.Format(domain.DateLayout),
		Status:          string(s.Status),
		State:           string(s.State),
		LastEmittedStep: s.LastEmittedStep,
		Percent:         s.Percent,
		Error:           s.Error,
		Hint:            s.Hint,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		Summary:         s.Summary,
	}
}

// LastTransactionDateResponse holds the newest stored date of a vendor, or null.
type LastTransactionDateResponse struct {
	LastDate *string `json:"lastDate"`
}

// ToLastTransactionDateResponse formats an optional date as YYYY-MM-DD.
func ToLastTransactionDateResponse(last *time.Time) LastTransactionDateResponse {
	if last == nil {
		return LastTransactionDateResponse{}
	}
	formatted := last.Format(domain.DateLayout)
	return LastTransactionDateResponse{LastDate: &formatted}
}
