package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFingerprint(t *testing.T) {
	base := domain.RawTransaction{
		Vendor:        "isracard",
		AccountNumber: "1234",
		Date:          time.Date(2024, 1, 5, 13, 45, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString("-49.90"),
		Description:   "Netflix  Subscription ",
	}

	tests := []struct {
		name   string
		mutate func(r *domain.RawTransaction)
		same   bool
	}{
		{name: "identical record", mutate: func(r *domain.RawTransaction) {}, same: true},
		{name: "cosmetic description change", mutate: func(r *domain.RawTransaction) { r.Description = "NETFLIX subscription" }, same: true},
		{name: "clock time ignored", mutate: func(r *domain.RawTransaction) { r.Date = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) }, same: true},
		{name: "trailing zeros ignored", mutate: func(r *domain.RawTransaction) { r.Amount = decimal.RequireFromString("-49.9") }, same: true},
		{name: "category ignored", mutate: func(r *domain.RawTransaction) { r.Category = "Streaming" }, same: true},
		{name: "different amount", mutate: func(r *domain.RawTransaction) { r.Amount = decimal.RequireFromString("-59.90") }, same: false},
		{name: "different account", mutate: func(r *domain.RawTransaction) { r.AccountNumber = "9999" }, same: false},
		{name: "different day", mutate: func(r *domain.RawTransaction) { r.Date = r.Date.AddDate(0, 0, 1) }, same: false},
		{name: "different vendor", mutate: func(r *domain.RawTransaction) { r.Vendor = "max" }, same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if tt.same {
				assert.Equal(t, domain.Fingerprint(base), domain.Fingerprint(other))
			} else {
				assert.NotEqual(t, domain.Fingerprint(base), domain.Fingerprint(other))
			}
		})
	}
}

func TestInlineCredentialID_StableAcrossMapOrder(t *testing.T) {
	a := domain.InlineCredentialID("hapoalim", map[string]string{"userCode": "u1", "password": "p"})
	b := domain.InlineCredentialID("hapoalim", map[string]string{"password": "p", "userCode": "u1"})
	c := domain.InlineCredentialID("hapoalim", map[string]string{"userCode": "u2", "password": "p"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "inline:hapoalim:")
	assert.NotContains(t, a, "u1")
}

func TestSyncSession_Transition(t *testing.T) {
	s := &domain.SyncSession{State: domain.StateInit}

	path := []domain.SyncState{
		domain.StateAuthenticating,
		domain.StateFetching,
		domain.StateProcessing,
		domain.StateFetching,
		domain.StateProcessing,
		domain.StateSaving,
		domain.StateCompleted,
	}
	for _, next := range path {
		require.NoError(t, s.Transition(next), "transition to %s", next)
	}
	assert.Equal(t, domain.SessionCompleted, s.Status)
	assert.True(t, s.State.IsTerminal())

	assert.Error(t, s.Transition(domain.StateFetching), "terminal states have no exits")

	skip := &domain.SyncSession{State: domain.StateInit}
	assert.Error(t, skip.Transition(domain.StateProcessing))
}

func TestSyncSession_TransitionFailedAndAborted(t *testing.T) {
	failed := &domain.SyncSession{State: domain.StateAuthenticating}
	require.NoError(t, failed.Transition(domain.StateFailed))
	assert.Equal(t, domain.SessionFailed, failed.Status)

	aborted := &domain.SyncSession{State: domain.StateProcessing}
	require.NoError(t, aborted.Transition(domain.StateAborted))
	assert.Equal(t, domain.SessionAborted, aborted.Status)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		in     string
		months int
		want   string
	}{
		{"2024-05-05", 2, "2024-07-05"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-11-30", 2, "2025-01-30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := domain.AddMonthsClamped(date(tt.in), tt.months)
			assert.Equal(t, tt.want, got.Format(domain.DateLayout))
		})
	}
}

func TestDeriveInstallmentStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)
	today := domain.TruncateToDay(now)

	assert.Equal(t, domain.InstallmentCompleted, domain.DeriveInstallmentStatus(12, 12, &yesterday, now))
	assert.Equal(t, domain.InstallmentActive, domain.DeriveInstallmentStatus(12, 12, &tomorrow, now))
	assert.Equal(t, domain.InstallmentActive, domain.DeriveInstallmentStatus(12, 12, &today, now), "today is not strictly in the past")
	assert.Equal(t, domain.InstallmentCompleted, domain.DeriveInstallmentStatus(12, 12, nil, now))
	assert.Equal(t, domain.InstallmentActive, domain.DeriveInstallmentStatus(5, 12, &yesterday, now))
}

func TestBillingCycleStartAndGapFill(t *testing.T) {
	start, err := domain.BillingCycleStart("2024-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", start.Format(domain.DateLayout))

	_, err = domain.BillingCycleStart("03/2024")
	assert.Error(t, err)

	assert.Equal(t, "2024-01-11", domain.GapFillStart(date("2024-01-10")).Format(domain.DateLayout))
}

func TestExclusionMark_Matches(t *testing.T) {
	mark := domain.ExclusionMark{Name: " Spotify ", AccountNumber: "1234"}
	tx := domain.Transaction{Description: "SPOTIFY", Vendor: "max", AccountNumber: "1234"}

	assert.True(t, mark.Matches(domain.GroupKeyOf(tx)))
	tx.AccountNumber = "5678"
	assert.False(t, mark.Matches(domain.GroupKeyOf(tx)))
}

func TestRawTransaction_Validate(t *testing.T) {
	valid := domain.RawTransaction{Vendor: "max", AccountNumber: "1", Date: date("2024-01-01"), Description: "x"}
	assert.NoError(t, valid.Validate())

	noDesc := valid
	noDesc.Description = "  "
	assert.Error(t, noDesc.Validate())

	badInstallment := valid
	badInstallment.InstallmentNumber = 4
	badInstallment.InstallmentTotal = 3
	assert.Error(t, badInstallment.Validate())
}
