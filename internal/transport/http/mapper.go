package http

import (
	"time"

	"github.com/avolkhov/driftchat-server/internal/core"
	"github.com/avolkhov/driftchat-server/internal/proto"
)

func summaryToProto(u *core.UserSummary) *proto.User {
	if u == nil {
		return nil
	}
	return &proto.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		Pronouns:    u.Pronouns,
		Bio:         u.Bio,
	}
}

// outboundFromEnvelope maps a core envelope onto its wire frame.
func outboundFromEnvelope(env core.Envelope) proto.Outbound {
	switch env.Type {
	case core.EnvelopeAuthenticated:
		return proto.Outbound{Type: proto.OutboundTypeAuthenticated}
	case core.EnvelopeError:
		return proto.Outbound{Type: proto.OutboundTypeError, Message: env.Error}
	case core.EnvelopeMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Message: proto.MessagePayload{
				ID:          env.Message.ID,
				SenderID:    env.Message.SenderID,
				RecipientID: env.Message.RecipientID,
				Content:     env.Message.Content,
				CreatedAt:   env.Message.CreatedAt.Format(time.RFC3339),
			},
		}
	case core.EnvelopeFriendRequest:
		return proto.Outbound{
			Type: proto.OutboundTypeFriendRequest,
			Message: proto.FriendRequestPayload{
				ID:       env.FriendRequest.UserID,
				Username: env.FriendRequest.Username,
			},
		}
	case core.EnvelopeFriendRequestAccepted:
		return proto.Outbound{
			Type: proto.OutboundTypeFriendRequestAccepted,
			Message: proto.FriendAcceptedPayload{
				ID:     env.Friend.UserID,
				Friend: summaryToProto(env.Friend.Friend),
			},
		}
	case core.EnvelopeFriendDeleted:
		return proto.Outbound{
			Type:    proto.OutboundTypeFriendDeleted,
			Message: proto.FriendDeletedPayload{ID: env.Friend.UserID},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Message: "unknown event"}
	}
}
