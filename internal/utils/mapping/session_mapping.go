package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/models"
)

// ToModelSyncSession converts a domain SyncSession to a model SyncSession
func ToModelSyncSession(d domain.SyncSession) (models.SyncSession, error) {
	m := models.SyncSession{
		SessionID:       d.SessionID,
		CredentialID:    d.CredentialID,
		Vendor:          d.Vendor,
		StartDate:       d.StartDate,
		Status:          string(d.Status),
		State:           string(d.State),
		LastEmittedStep: d.LastEmittedStep,
		Percent:         d.Percent,
		Error:           nullableString(d.Error),
		Hint:            nullableString(d.Hint),
		StartedAt:       d.StartedAt,
		FinishedAt:      d.FinishedAt,
	}
	if d.Summary != nil {
		raw, err := json.Marshal(d.Summary)
		if err != nil {
			return m, fmt.Errorf("failed to encode session summary: %w", err)
		}
		m.Summary = raw
	}
	return m, nil
}

// ToDomainSyncSession converts a model SyncSession to a domain SyncSession
func ToDomainSyncSession(m models.SyncSession) (domain.SyncSession, error) {
	d := domain.SyncSession{
		SessionID:       m.SessionID,
		CredentialID:    m.CredentialID,
		Vendor:          m.Vendor,
		StartDate:       m.StartDate,
		Status:          domain.SessionStatus(m.Status),
		State:           domain.SyncState(m.State),
		LastEmittedStep: m.LastEmittedStep,
		Percent:         m.Percent,
		StartedAt:       m.StartedAt,
		FinishedAt:      m.FinishedAt,
	}
	if m.Error != nil {
		d.Error = *m.Error
	}
	if m.Hint != nil {
		d.Hint = *m.Hint
	}
	if len(m.Summary) > 0 {
		var summary domain.SyncSummary
		if err := json.Unmarshal(m.Summary, &summary); err != nil {
			return d, fmt.Errorf("failed to decode session summary: %w", err)
		}
		d.Summary = &summary
	}
	return d, nil
}

// ToDomainCredential converts a model VendorCredential to a domain Credential
func ToDomainCredential(m models.VendorCredential) domain.Credential {
	return domain.Credential{
		CredentialID: m.CredentialID,
		Vendor:       m.Vendor,
		Fields:       m.Fields,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
