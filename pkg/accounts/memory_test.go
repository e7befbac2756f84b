package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStore() Store {
	return NewMemoryStore(zap.NewNop().Sugar())
}

func TestUpsertKeysOnUserAndHub(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	first := Account{ID: "acct-1", UserID: "u1", HubID: "123", AccessToken: "tok-a", RefreshToken: "ref-a"}
	require.NoError(t, s.UpsertAuthorized(ctx, first))

	// Re-authorizing the same user+portal under a new id updates the existing
	// record instead of creating a second one.
	second := Account{ID: "acct-2", UserID: "u1", HubID: "123", AccessToken: "tok-b", RefreshToken: "ref-b"}
	require.NoError(t, s.UpsertAuthorized(ctx, second))

	got, err := s.GetByID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", got.AccessToken)

	_, err = s.GetByID(ctx, "acct-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertMatchesPreProvisionedRecordByID(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	// Admin saves credentials first; the later authorization carries no user
	// id in its state, so the (user, hub) key alone would not find the row.
	require.NoError(t, s.SaveAppCredentials(ctx, Account{
		ID: "acct-1", UserID: "u1", HubID: "123",
		AppClientID: []byte("cid"), AppClientSecret: []byte("csec"),
	}))
	require.NoError(t, s.UpsertAuthorized(ctx, Account{
		ID: "acct-1", UserID: "", HubID: "123",
		AccessToken: "tok", RefreshToken: "ref",
	}))

	got, err := s.GetByID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "tok", got.AccessToken)
	assert.Equal(t, []byte("cid"), got.AppClientID)

	// Still one record for the portal.
	byHub, err := s.GetByHubID(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", byHub.ID)
}

func TestUpsertDistinctUsersGetDistinctRecords(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	require.NoError(t, s.UpsertAuthorized(ctx, Account{ID: "a", UserID: "u1", HubID: "123", AccessToken: "t1"}))
	require.NoError(t, s.UpsertAuthorized(ctx, Account{ID: "b", UserID: "u2", HubID: "123", AccessToken: "t2"}))

	a, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	b, err := s.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "t1", a.AccessToken)
	assert.Equal(t, "t2", b.AccessToken)
}

func TestUpsertKeepsAppCredentials(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	require.NoError(t, s.SaveAppCredentials(ctx, Account{ID: "a", UserID: "u1", HubID: "123", AppClientID: []byte("cid"), AppClientSecret: []byte("csec")}))
	require.NoError(t, s.UpsertAuthorized(ctx, Account{ID: "a", UserID: "u1", HubID: "123", AccessToken: "tok"}))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("cid"), got.AppClientID)
	assert.Equal(t, "tok", got.AccessToken)
}

func TestUpdateTokens(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	exp := time.Now().Add(30 * time.Minute).UTC()

	require.NoError(t, s.UpsertAuthorized(ctx, Account{ID: "a", UserID: "u1", HubID: "123"}))
	require.NoError(t, s.UpdateTokens(ctx, "a", "new-access", "new-refresh", exp))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new-access", got.AccessToken)
	assert.Equal(t, "new-refresh", got.RefreshToken)
	assert.Equal(t, exp, got.ExpiresAt)

	assert.ErrorIs(t, s.UpdateTokens(ctx, "missing", "x", "y", exp), ErrNotFound)
}

func TestGetByHubID(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	require.NoError(t, s.UpsertAuthorized(ctx, Account{ID: "a", UserID: "u1", HubID: "999", AccessToken: "tok"}))

	got, err := s.GetByHubID(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = s.GetByHubID(ctx, "000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	require.NoError(t, s.UpsertAuthorized(ctx, Account{ID: "a", UserID: "u1", HubID: "1"}))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err := s.GetByID(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenValid(t *testing.T) {
	now := time.Now()
	assert.True(t, Account{ExpiresAt: now.Add(time.Minute)}.TokenValid(now))
	assert.False(t, Account{ExpiresAt: now.Add(-time.Minute)}.TokenValid(now))
	assert.False(t, Account{}.TokenValid(now))
}
