package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/finsync/internal/apperrors"
	"github.com/SscSPs/finsync/internal/core/domain"
	"github.com/SscSPs/finsync/internal/repositories/database/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTxn(date, description, amount string) domain.Transaction {
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	txn := domain.NewTransactionFromRaw(domain.RawTransaction{
		Vendor:        "max",
		AccountNumber: "4321",
		Date:          d,
		Amount:        decimal.RequireFromString(amount),
		Description:   description,
	})
	txn.TransactionID = uuid.NewString()
	txn.Category = domain.Uncategorized
	txn.CategorySource = domain.CategorySourceNone
	return txn
}

func TestStore_InsertAssignsSeqAndRejectsDuplicateFingerprint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first, err := store.InsertTransaction(ctx, newTxn("2024-03-01", "Netflix", "-39.90"))
	require.NoError(t, err)
	second, err := store.InsertTransaction(ctx, newTxn("2024-03-02", "Spotify", "-19.90"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	_, err = store.InsertTransaction(ctx, newTxn("2024-03-01", "  NETFLIX ", "-39.90"))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	maxSeq, err := store.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), maxSeq)
}

func TestStore_ListForPatternsHonoursSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.InsertTransaction(ctx, newTxn("2024-03-05", "Gym", "-120"))
	require.NoError(t, err)
	_, err = store.InsertTransaction(ctx, newTxn("2024-02-05", "Gym", "-120"))
	require.NoError(t, err)
	_, err = store.InsertTransaction(ctx, newTxn("2024-01-05", "Gym", "-120"))
	require.NoError(t, err)

	visible, err := store.ListForPatterns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "2024-02-05", visible[0].Date.Format(domain.DateLayout))
	assert.Equal(t, "2024-03-05", visible[1].Date.Format(domain.DateLayout))
}

func TestStore_UpdateKeepsSeqAndMovesFingerprint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	saved, err := store.InsertTransaction(ctx, newTxn("2024-03-01", "Electric", "-200"))
	require.NoError(t, err)

	corrected := newTxn("2024-03-01", "Electric", "-210")
	corrected.TransactionID = saved.TransactionID
	updated, err := store.UpdateTransaction(ctx, corrected)
	require.NoError(t, err)
	assert.Equal(t, saved.Seq, updated.Seq)

	_, err = store.FindByFingerprint(ctx, saved.Fingerprint)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	found, err := store.FindByFingerprint(ctx, corrected.Fingerprint)
	require.NoError(t, err)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("-210")))

	missing := newTxn("2024-03-01", "Water", "-50")
	_, err = store.UpdateTransaction(ctx, missing)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_ReassignCategoryUpsertsRule(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	for _, date := range []string{"2024-01-10", "2024-02-10"} {
		_, err := store.InsertTransaction(ctx, newTxn(date, "Wolt", "-80"))
		require.NoError(t, err)
	}
	_, err := store.InsertTransaction(ctx, newTxn("2024-02-11", "Yango", "-30"))
	require.NoError(t, err)

	rule := domain.CategoryRule{RuleID: "r1", MatchDescription: "wolt", Category: "Food", AuditFields: domain.AuditFields{CreatedAt: now}}
	count, err := store.ReassignCategory(ctx, "wolt", "Food", &rule, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	again := domain.CategoryRule{RuleID: "r2", MatchDescription: "wolt", Category: "Delivery", AuditFields: domain.AuditFields{CreatedAt: now.Add(time.Hour)}}
	_, err = store.ReassignCategory(ctx, "wolt", "Delivery", &again, now.Add(time.Hour))
	require.NoError(t, err)

	stored, err := store.FindRuleByDescription(ctx, "wolt")
	require.NoError(t, err)
	assert.Equal(t, "r1", stored.RuleID)
	assert.Equal(t, "Delivery", stored.Category)
	assert.True(t, stored.CreatedAt.Equal(now))

	cached, err := store.LatestCategoryForDescription(ctx, "wolt", "")
	require.NoError(t, err)
	assert.Equal(t, "Delivery", cached)

	_, err = store.LatestCategoryForDescription(ctx, "yango", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_SaveExclusionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first, err := store.SaveExclusion(ctx, domain.ExclusionMark{ExclusionID: "e1", Name: "Netflix", AccountNumber: "4321"})
	require.NoError(t, err)
	second, err := store.SaveExclusion(ctx, domain.ExclusionMark{ExclusionID: "e2", Name: " netflix ", AccountNumber: "4321"})
	require.NoError(t, err)
	assert.Equal(t, first.ExclusionID, second.ExclusionID)

	marks, err := store.ListExclusions(ctx)
	require.NoError(t, err)
	assert.Len(t, marks, 1)

	require.NoError(t, store.DeleteExclusion(ctx, "e1"))
	assert.ErrorIs(t, store.DeleteExclusion(ctx, "e1"), apperrors.ErrNotFound)
}

func TestStore_FindLatestSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveSession(ctx, domain.SyncSession{SessionID: "s1", CredentialID: "c1", StartedAt: started}))
	require.NoError(t, store.SaveSession(ctx, domain.SyncSession{SessionID: "s2", CredentialID: "c1", StartedAt: started.Add(time.Hour)}))
	require.NoError(t, store.SaveSession(ctx, domain.SyncSession{SessionID: "s3", CredentialID: "c2", StartedAt: started.Add(2 * time.Hour)}))

	latest, err := store.FindLatestSession(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "s2", latest.SessionID)

	_, err = store.FindLatestSession(ctx, "c9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
