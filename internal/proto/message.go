package proto

// Inbound is the envelope for frames coming from the client. The only
// recognized inbound type is "authenticate".
type Inbound struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

const (
	InboundTypeAuthenticate = "authenticate"

	OutboundTypeAuthenticated         = "authenticated"
	OutboundTypeError                 = "error"
	OutboundTypeMessage               = "message"
	OutboundTypeFriendRequest         = "friendRequest"
	OutboundTypeFriendRequestAccepted = "friendRequestAccepted"
	OutboundTypeFriendDeleted         = "friendDeleted"
)

// Outbound is the envelope for frames sent to the client. Message carries the
// type-specific payload; for "error" it is the failure text itself.
type Outbound struct {
	Type    string `json:"type"`
	Message any    `json:"message,omitempty"`
}

// MessagePayload is the body of a "message" frame.
type MessagePayload struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"senderId"`
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
	CreatedAt   string `json:"createdAt"`
}

// FriendRequestPayload is the body of a "friendRequest" frame; ID is the
// requesting user.
type FriendRequestPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// User is the public profile embedded in friend events.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Pronouns    string `json:"pronouns,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// FriendAcceptedPayload is the body of a "friendRequestAccepted" frame; ID is
// the counterpart user.
type FriendAcceptedPayload struct {
	ID     int64 `json:"id"`
	Friend *User `json:"friend,omitempty"`
}

// FriendDeletedPayload is the body of a "friendDeleted" frame; ID is the
// counterpart user.
type FriendDeletedPayload struct {
	ID int64 `json:"id"`
}
