package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avolkhov/driftchat-server/internal/core"
	"github.com/avolkhov/driftchat-server/internal/service/friends"
	"github.com/avolkhov/driftchat-server/internal/store"
)

// FriendsHandlers provides HTTP handlers for friend management endpoints.
// Every durable mutation is followed by a best-effort notification to the
// affected peers if they are online.
type FriendsHandlers struct {
	service  *friends.Service
	store    store.Store
	registry *core.Registry
	notifier *core.Notifier
	log      *zerolog.Logger
}

// NewFriendsHandlers creates a new friends handlers instance.
func NewFriendsHandlers(svc *friends.Service, st store.Store, registry *core.Registry, notifier *core.Notifier, logger *zerolog.Logger) *FriendsHandlers {
	return &FriendsHandlers{
		service:  svc,
		store:    st,
		registry: registry,
		notifier: notifier,
		log:      logger,
	}
}

// SendFriendRequestRequest represents the request body for sending a friend request.
type SendFriendRequestRequest struct {
	Username string `json:"username" binding:"required"`
}

// AcceptFriendRequestRequest represents the request body for accepting a request.
type AcceptFriendRequestRequest struct {
	FriendID int64 `json:"friendId" binding:"required"`
}

// FriendsListResponse is the combined friends/requests listing.
type FriendsListResponse struct {
	Friends        []*UserResponse `json:"friends"`
	FriendRequests []*UserResponse `json:"friendRequests"`
}

func userSummary(u *store.User) *core.UserSummary {
	return &core.UserSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		Pronouns:    u.Pronouns,
		Bio:         u.Bio,
	}
}

// List handles listing accepted friends and incoming requests.
// GET /api/v1/friends
func (h *FriendsHandlers) List(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	friendUsers, requestUsers, err := h.service.ListFriends(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := FriendsListResponse{
		Friends:        make([]*UserResponse, 0, len(friendUsers)),
		FriendRequests: make([]*UserResponse, 0, len(requestUsers)),
	}
	for _, u := range friendUsers {
		resp.Friends = append(resp.Friends, userToResponse(u))
	}
	for _, u := range requestUsers {
		resp.FriendRequests = append(resp.FriendRequests, userToResponse(u))
	}

	c.JSON(http.StatusOK, resp)
}

// SendRequest handles sending a friend request by username.
// POST /api/v1/friends
func (h *FriendsHandlers) SendRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send friend request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	_, recipient, err := h.service.SendRequest(c.Request.Context(), uid, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrCannotFriendSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send friend request to yourself"})
		case errors.Is(err, friends.ErrAlreadyFriends):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "already friends"})
		case errors.Is(err, friends.ErrRequestAlreadyExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "friend request already exists"})
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			h.log.Error().Err(err).Int64("from_user_id", uid).Str("to_username", req.Username).Msg("failed to send friend request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	sender, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err == nil {
		h.notifier.Notify(recipient.ID, core.Envelope{
			Type:          core.EnvelopeFriendRequest,
			FriendRequest: &core.FriendRequestPayload{UserID: uid, Username: sender.Username},
		})
	}

	h.log.Info().Int64("from_user_id", uid).Int64("to_user_id", recipient.ID).Msg("friend request sent")
	c.JSON(http.StatusCreated, gin.H{"message": "friend request sent"})
}

// AcceptRequest handles accepting a friend request. Both parties learn about
// the new friendship if online.
// POST /api/v1/friends/accept
func (h *FriendsHandlers) AcceptRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AcceptFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid accept friend request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	accepter, requester, err := h.service.AcceptRequest(c.Request.Context(), uid, req.FriendID)
	if err != nil {
		if errors.Is(err, friends.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friend request not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("from_user_id", req.FriendID).Msg("failed to accept friend request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.notifier.Notify(requester.ID, core.Envelope{
		Type:   core.EnvelopeFriendRequestAccepted,
		Friend: &core.FriendPayload{UserID: accepter.ID, Friend: userSummary(accepter)},
	})
	h.notifier.Notify(accepter.ID, core.Envelope{
		Type:   core.EnvelopeFriendRequestAccepted,
		Friend: &core.FriendPayload{UserID: requester.ID, Friend: userSummary(requester)},
	})

	h.log.Info().Int64("user_id", uid).Int64("from_user_id", req.FriendID).Msg("friend request accepted")
	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

// RandomFriend force-befriends a random online user.
// POST /api/v1/friends/random
func (h *FriendsHandlers) RandomFriend(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	peer, err := h.service.RandomFriend(c.Request.Context(), uid, h.registry.OnlineUsers())
	if err != nil {
		if errors.Is(err, friends.ErrNoEligiblePeer) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no eligible online user"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to create random friendship")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	me, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err == nil {
		h.notifier.Notify(peer.ID, core.Envelope{
			Type:   core.EnvelopeFriendRequestAccepted,
			Friend: &core.FriendPayload{UserID: uid, Friend: userSummary(me)},
		})
	}

	h.log.Info().Int64("user_id", uid).Int64("peer_id", peer.ID).Msg("random friendship created")
	c.JSON(http.StatusOK, gin.H{"userId": peer.ID})
}

// RemoveFriend handles deleting a friendship. Both parties are notified.
// DELETE /api/v1/friends/:friendId
func (h *FriendsHandlers) RemoveFriend(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	friendID, err := strconv.ParseInt(c.Param("friendId"), 10, 64)
	if err != nil || friendID <= 0 {
		h.log.Debug().Str("friend_id", c.Param("friendId")).Msg("invalid friend id")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid friend id"})
		return
	}

	if err := h.service.RemoveFriend(c.Request.Context(), uid, friendID); err != nil {
		if errors.Is(err, friends.ErrFriendshipNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "friendship not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("friend_id", friendID).Msg("failed to remove friend")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.notifier.Notify(friendID, core.Envelope{
		Type:   core.EnvelopeFriendDeleted,
		Friend: &core.FriendPayload{UserID: uid},
	})
	h.notifier.Notify(uid, core.Envelope{
		Type:   core.EnvelopeFriendDeleted,
		Friend: &core.FriendPayload{UserID: friendID},
	})

	h.log.Info().Int64("user_id", uid).Int64("friend_id", friendID).Msg("friendship removed")
	c.JSON(http.StatusOK, gin.H{"message": "friend removed"})
}
