package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkhov/driftchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string) *store.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), store.CreateUserParams{
		DisplayName:  username,
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, store.CreateUserParams{
		DisplayName:  "Alice A",
		Username:     "alice",
		PasswordHash: "hash",
		Email:        "alice@example.com",
		Pronouns:     "she/her",
		Bio:          "hello",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)
	require.Equal(t, "Alice A", byName.DisplayName)
	require.Equal(t, "she/her", byName.Pronouns)

	_, err = s.GetUserByUsername(ctx, "nobody")
	require.Error(t, err)

	// Usernames and emails are unique.
	_, err = s.CreateUser(ctx, store.CreateUserParams{
		DisplayName:  "Alice B",
		Username:     "alice",
		PasswordHash: "hash",
		Email:        "alice2@example.com",
	})
	require.Error(t, err)
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "alex", "alan", "bob", "charlie"} {
		seedUser(t, s, u)
	}

	results, err := s.SearchUsers(ctx, "al")
	require.NoError(t, err)

	var names []string
	for _, u := range results {
		names = append(names, u.Username)
	}
	require.Equal(t, []string{"alan", "alex", "alice"}, names)

	results, err = s.SearchUsers(ctx, "zzz")
	require.NoError(t, err)
	require.Empty(t, results)

	// LIKE wildcards in the query must be treated literally.
	results, err = s.SearchUsers(ctx, "%")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestFriendshipLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	f, err := s.CreateFriendship(ctx, alice.ID, bob.ID, store.FriendStatusPending)
	require.NoError(t, err)
	require.Equal(t, store.FriendStatusPending, f.Status)

	// Visible from both directions.
	got, err := s.GetFriendship(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, f.ID, got.ID)

	incoming, err := s.ListIncomingRequestUsers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	require.Equal(t, alice.ID, incoming[0].ID)

	ok, err := s.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.UpdateFriendStatus(ctx, alice.ID, bob.ID, store.FriendStatusAccepted))

	ok, err = s.IsFriend(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)

	friendsOfBob, err := s.ListFriendUsers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfBob, 1)
	require.Equal(t, alice.ID, friendsOfBob[0].ID)

	require.NoError(t, s.DeleteFriendship(ctx, bob.ID, alice.ID))

	ok, err = s.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMessagesConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	eve := seedUser(t, s, "eve")

	msgs := []*store.Message{
		{SenderID: alice.ID, RecipientID: bob.ID, Content: "hi bob"},
		{SenderID: bob.ID, RecipientID: alice.ID, Content: "hi alice"},
		{SenderID: alice.ID, RecipientID: eve.ID, Content: "unrelated"},
	}
	for _, m := range msgs {
		require.NoError(t, s.SaveMessage(ctx, m))
		require.NotZero(t, m.ID)
		require.False(t, m.CreatedAt.IsZero())
	}

	conv, err := s.ListConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	require.Equal(t, "hi bob", conv[0].Content)
	require.Equal(t, "hi alice", conv[1].Content)

	conv, err = s.ListConversation(ctx, bob.ID, eve.ID)
	require.NoError(t, err)
	require.Empty(t, conv)
}
