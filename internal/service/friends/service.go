package friends

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/avolkhov/driftchat-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends       = errors.New("already friends")
	ErrRequestAlreadyExists = errors.New("friend request already exists")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrFriendshipNotFound   = errors.New("friendship not found")
	ErrNoEligiblePeer       = errors.New("no eligible online user")
)

// Service provides friend management business logic.
type Service struct {
	store store.Store
}

// New creates a new friends service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// SendRequest sends a friend request addressed by username. Returns the
// created friendship and the recipient so the caller can notify them.
func (s *Service) SendRequest(ctx context.Context, fromUserID int64, username string) (*store.Friend, *store.User, error) {
	recipient, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}
	if recipient.ID == fromUserID {
		return nil, nil, ErrCannotFriendSelf
	}

	if existing, err := s.store.GetFriendship(ctx, fromUserID, recipient.ID); err == nil {
		switch existing.Status {
		case store.FriendStatusAccepted:
			return nil, nil, ErrAlreadyFriends
		case store.FriendStatusPending:
			return nil, nil, ErrRequestAlreadyExists
		}
	}

	friend, err := s.store.CreateFriendship(ctx, fromUserID, recipient.ID, store.FriendStatusPending)
	if err != nil {
		return nil, nil, fmt.Errorf("create friend request: %w", err)
	}

	return friend, recipient, nil
}

// AcceptRequest accepts a pending friend request from friendID directed at
// userID. Returns both user rows for the two acceptance notifications.
func (s *Service) AcceptRequest(ctx context.Context, userID, friendID int64) (accepter, requester *store.User, err error) {
	existing, err := s.store.GetFriendship(ctx, friendID, userID)
	if err != nil {
		return nil, nil, ErrRequestNotFound
	}

	// Must be pending and directed at the accepting user.
	if existing.Status != store.FriendStatusPending || existing.FriendID != userID {
		return nil, nil, ErrRequestNotFound
	}

	if err := s.store.UpdateFriendStatus(ctx, existing.UserID, existing.FriendID, store.FriendStatusAccepted); err != nil {
		return nil, nil, fmt.Errorf("accept request: %w", err)
	}

	accepter, err = s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load accepter: %w", err)
	}
	requester, err = s.store.GetUserByID(ctx, friendID)
	if err != nil {
		return nil, nil, fmt.Errorf("load requester: %w", err)
	}
	return accepter, requester, nil
}

// RemoveFriend deletes the friendship between two users, in either direction.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if _, err := s.store.GetFriendship(ctx, userID, friendID); err != nil {
		return ErrFriendshipNotFound
	}
	if err := s.store.DeleteFriendship(ctx, userID, friendID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// RandomFriend force-creates an accepted friendship with a random online
// user. online is a snapshot of currently connected user IDs.
func (s *Service) RandomFriend(ctx context.Context, userID int64, online []int64) (*store.User, error) {
	candidates := make([]int64, 0, len(online))
	for _, id := range online {
		if id == userID {
			continue
		}
		if isFriend, err := s.store.IsFriend(ctx, userID, id); err != nil || isFriend {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligiblePeer
	}

	peerID := candidates[rand.Intn(len(candidates))]
	peer, err := s.store.GetUserByID(ctx, peerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// A dangling pending request between the two collapses into the new
	// accepted friendship.
	_ = s.store.DeleteFriendship(ctx, userID, peerID)
	if _, err := s.store.CreateFriendship(ctx, userID, peerID, store.FriendStatusAccepted); err != nil {
		return nil, fmt.Errorf("create friendship: %w", err)
	}

	return peer, nil
}

// ListFriends returns accepted friends and incoming pending requests.
func (s *Service) ListFriends(ctx context.Context, userID int64) (friends, requests []*store.User, err error) {
	friends, err = s.store.ListFriendUsers(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list friends: %w", err)
	}
	requests, err = s.store.ListIncomingRequestUsers(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return friends, requests, nil
}

// IsFriend checks if two users are friends (accepted status).
func (s *Service) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	return s.store.IsFriend(ctx, userID, friendID)
}
