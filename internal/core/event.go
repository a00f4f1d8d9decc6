package core

import "time"

// EnvelopeType discriminates the events pushed to clients over the socket.
type EnvelopeType string

const (
	// EnvelopeAuthenticated confirms a successful authenticate frame.
	EnvelopeAuthenticated EnvelopeType = "authenticated"
	// EnvelopeError reports a protocol or authentication failure.
	EnvelopeError EnvelopeType = "error"
	// EnvelopeMessage notifies the recipient of a new direct message.
	EnvelopeMessage EnvelopeType = "message"
	// EnvelopeFriendRequest notifies a user of an incoming friend request.
	EnvelopeFriendRequest EnvelopeType = "friendRequest"
	// EnvelopeFriendRequestAccepted notifies both parties of an accepted request.
	EnvelopeFriendRequestAccepted EnvelopeType = "friendRequestAccepted"
	// EnvelopeFriendDeleted notifies both parties of a removed friendship.
	EnvelopeFriendDeleted EnvelopeType = "friendDeleted"
)

// Envelope is an immutable event constructed at the moment of emission.
// Exactly one payload field is set, matching Type.
type Envelope struct {
	Type          EnvelopeType
	Error         string
	Message       *MessagePayload
	FriendRequest *FriendRequestPayload
	Friend        *FriendPayload
}

// MessagePayload describes a direct message for EnvelopeMessage.
type MessagePayload struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Content     string
	CreatedAt   time.Time
}

// FriendRequestPayload identifies the requesting user for EnvelopeFriendRequest.
type FriendRequestPayload struct {
	UserID   int64
	Username string
}

// UserSummary is the public view of a user carried inside friend events.
type UserSummary struct {
	ID          int64
	DisplayName string
	Username    string
	Pronouns    string
	Bio         string
}

// FriendPayload carries the counterpart user for accepted/deleted friend
// events. Friend is nil for EnvelopeFriendDeleted.
type FriendPayload struct {
	UserID int64
	Friend *UserSummary
}

// AuthenticatedEnvelope builds the success envelope for a completed handshake.
func AuthenticatedEnvelope() Envelope {
	return Envelope{Type: EnvelopeAuthenticated}
}

// ErrorEnvelope builds an error envelope with a client-visible message.
func ErrorEnvelope(msg string) Envelope {
	return Envelope{Type: EnvelopeError, Error: msg}
}
