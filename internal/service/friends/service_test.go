package friends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkhov/driftchat-server/internal/store"
	"github.com/avolkhov/driftchat-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func seedUser(t *testing.T, st *sqlite.SQLiteStore, username string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), store.CreateUserParams{
		DisplayName:  username,
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func TestSendRequest(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	f, recipient, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, bob.ID, recipient.ID)
	require.Equal(t, store.FriendStatusPending, f.Status)

	_, _, err = svc.SendRequest(ctx, alice.ID, "bob")
	require.ErrorIs(t, err, ErrRequestAlreadyExists)

	_, _, err = svc.SendRequest(ctx, alice.ID, "alice")
	require.ErrorIs(t, err, ErrCannotFriendSelf)

	_, _, err = svc.SendRequest(ctx, alice.ID, "nobody")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAcceptRequest(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	_, _, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)

	// Only the recipient can accept.
	_, _, err = svc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.ErrorIs(t, err, ErrRequestNotFound)

	accepter, requester, err := svc.AcceptRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, bob.ID, accepter.ID)
	require.Equal(t, alice.ID, requester.ID)

	ok, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Accepted requests cannot be accepted again.
	_, _, err = svc.AcceptRequest(ctx, bob.ID, alice.ID)
	require.ErrorIs(t, err, ErrRequestNotFound)

	// Sending towards an accepted friendship is rejected.
	_, _, err = svc.SendRequest(ctx, alice.ID, "bob")
	require.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestRemoveFriend(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	_, _, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	_, _, err = svc.AcceptRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFriend(ctx, bob.ID, alice.ID))

	ok, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.ErrorIs(t, svc.RemoveFriend(ctx, bob.ID, alice.ID), ErrFriendshipNotFound)
}

func TestRandomFriend(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	// Nobody online but self.
	_, err := svc.RandomFriend(ctx, alice.ID, []int64{alice.ID})
	require.ErrorIs(t, err, ErrNoEligiblePeer)

	// Existing friends are excluded from candidates.
	_, _, err = svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	_, _, err = svc.AcceptRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	peer, err := svc.RandomFriend(ctx, alice.ID, []int64{alice.ID, bob.ID, carol.ID})
	require.NoError(t, err)
	require.Equal(t, carol.ID, peer.ID)

	ok, err := svc.IsFriend(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestListFriends(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	// bob is a friend, carol has a pending request towards alice.
	_, _, err := svc.SendRequest(ctx, bob.ID, "alice")
	require.NoError(t, err)
	_, _, err = svc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, _, err = svc.SendRequest(ctx, carol.ID, "alice")
	require.NoError(t, err)

	friends, requests, err := svc.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, bob.ID, friends[0].ID)
	require.Len(t, requests, 1)
	require.Equal(t, carol.ID, requests[0].ID)

	// Outgoing pending requests are not "incoming" for the sender.
	_, requests, err = svc.ListFriends(ctx, carol.ID)
	require.NoError(t, err)
	require.Empty(t, requests)
}
