package auth

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/fantasy-hoops-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAccountKeepsDisplayName(t *testing.T) {
	store := NewGormCredentialStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.UpsertAccount(ctx, &models.Account{GUID: "U1", DisplayName: "hooper"}))
	require.NoError(t, store.UpsertAccount(ctx, &models.Account{GUID: "U1"}))

	account, err := store.GetAccount(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "hooper", account.DisplayName)

	_, err = store.GetAccount(ctx, "U2")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReplaceCredentialIsConditional(t *testing.T) {
	store := NewGormCredentialStore(setupTestDB(t))
	ctx := context.Background()
	seedCredential(t, store, "U1", "r0", time.Now())

	ok, err := store.ReplaceCredential(ctx, &models.Credential{AccountGUID: "U1", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.Now().Add(time.Hour)}, "r0")
	require.NoError(t, err)
	assert.True(t, ok)

	// a second writer that also started from r0 loses
	ok, err = store.ReplaceCredential(ctx, &models.Credential{AccountGUID: "U1", AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now().Add(time.Hour)}, "r0")
	require.NoError(t, err)
	assert.False(t, ok)

	cred, err := store.GetCredential(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "a1", cred.AccessToken)
	assert.Equal(t, "r1", cred.RefreshToken)
}

func TestDeleteCredentialOnlyRemovesMatchingPair(t *testing.T) {
	store := NewGormCredentialStore(setupTestDB(t))
	ctx := context.Background()
	seedCredential(t, store, "U1", "current", time.Now())

	require.NoError(t, store.DeleteCredential(ctx, "U1", "stale"))
	_, err := store.GetCredential(ctx, "U1")
	require.NoError(t, err)

	require.NoError(t, store.DeleteCredential(ctx, "U1", "current"))
	_, err = store.GetCredential(ctx, "U1")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestListExpiringBefore(t *testing.T) {
	store := NewGormCredentialStore(setupTestDB(t))
	now := time.Now().UTC()
	seedCredential(t, store, "soon", "r1", now.Add(5*time.Minute))
	seedCredential(t, store, "later", "r2", now.Add(2*time.Hour))
	seedCredential(t, store, "past", "r3", now.Add(-time.Minute))

	due, err := store.ListExpiringBefore(context.Background(), now.Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "past", due[0].AccountGUID)
	assert.Equal(t, "soon", due[1].AccountGUID)
}

func TestClaimRefreshLease(t *testing.T) {
	store := NewGormCredentialStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	seedCredential(t, store, "U1", "r0", now)

	ok, err := store.ClaimRefresh(ctx, "U1", "r0", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ClaimRefresh(ctx, "U1", "r0", now.Add(30*time.Second), now.Add(90*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "lease still running")

	ok, err = store.ClaimRefresh(ctx, "U1", "r0", now.Add(2*time.Minute), now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok, "lapsed lease can be taken over")

	ok, err = store.ClaimRefresh(ctx, "U1", "stale", now.Add(10*time.Minute), now.Add(11*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "lease is tied to the current refresh token")

	require.NoError(t, store.ReleaseRefresh(ctx, "U1", "r0"))
	ok, err = store.ClaimRefresh(ctx, "U1", "r0", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	replaced, err := store.ReplaceCredential(ctx, &models.Credential{AccountGUID: "U1", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: now.Add(time.Hour)}, "r0")
	require.NoError(t, err)
	require.True(t, replaced)
	cred, err := store.GetCredential(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, cred.RefreshingUntil)
}
