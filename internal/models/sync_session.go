package models

import "time"

// SyncSession is one row of the sync_sessions table. Summary is stored as JSONB.
type SyncSession struct {
	SessionID       string     `db:"session_id"`
	CredentialID    string     `db:"credential_id"`
	Vendor          string     `db:"vendor"`
	StartDate       time.Time  `db:"start_date"`
	Status          string     `db:"status"`
	State           string     `db:"state"`
	LastEmittedStep string     `db:"last_emitted_step"`
	Percent         int        `db:"percent"`
	Error           *string    `db:"error"`
	Hint            *string    `db:"hint"`
	StartedAt       time.Time  `db:"started_at"`
	FinishedAt      *time.Time `db:"finished_at"`
	Summary         []byte     `db:"summary"`
}

// VendorCredential is one row of the vendor_credentials table.
type VendorCredential struct {
	CredentialID string            `db:"credential_id"`
	Vendor       string            `db:"vendor"`
	Fields       map[string]string `db:"fields"` // JSONB
	CreatedAt    time.Time         `db:"created_at"`
}
