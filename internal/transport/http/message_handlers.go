package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avolkhov/driftchat-server/internal/core"
	"github.com/avolkhov/driftchat-server/internal/store"
)

// MessageHandlers provides HTTP handlers for direct message endpoints.
type MessageHandlers struct {
	store    store.Store
	notifier *core.Notifier
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, notifier *core.Notifier, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store:    st,
		notifier: notifier,
		log:      logger,
	}
}

// CreateMessageRequest represents the request body for sending a message.
type CreateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// MessageResponse represents a direct message in API responses.
type MessageResponse struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"senderId"`
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
	CreatedAt   string `json:"createdAt"`
}

func messageToResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}

func otherUserIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("otherUserId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid otherUserId"})
		return 0, false
	}
	return id, true
}

// ListMessages returns the conversation history with another user.
// GET /api/v1/messages/:otherUserId
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := otherUserIDParam(c)
	if !ok {
		return
	}

	messages, err := h.store.ListConversation(c.Request.Context(), uid, otherID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("other_user_id", otherID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, messageToResponse(m))
	}

	c.JSON(http.StatusOK, response)
}

// CreateMessage stores a message and pushes it to the recipient if online.
// The notification is best effort; a failed push never fails the request.
// POST /api/v1/messages/:otherUserId
func (h *MessageHandlers) CreateMessage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := otherUserIDParam(c)
	if !ok {
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing content in request body"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), otherID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}

	msg := &store.Message{
		SenderID:    uid,
		RecipientID: otherID,
		Content:     req.Content,
	}
	if err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("other_user_id", otherID).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.notifier.Notify(otherID, core.Envelope{
		Type: core.EnvelopeMessage,
		Message: &core.MessagePayload{
			ID:          msg.ID,
			SenderID:    msg.SenderID,
			RecipientID: msg.RecipientID,
			Content:     msg.Content,
			CreatedAt:   msg.CreatedAt,
		},
	})

	c.JSON(http.StatusCreated, messageToResponse(msg))
}
