package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	DisplayName  string
	Username     string
	PasswordHash string
	Email        string
	Pronouns     string
	Bio          string
	CreatedAt    time.Time
}

// CreateUserParams carries the validated fields for a new account.
type CreateUserParams struct {
	DisplayName  string
	Username     string
	PasswordHash string
	Email        string
	Pronouns     string
	Bio          string
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// Friend represents a friendship row. UserID is the requester.
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    FriendStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message represents a persisted direct message.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Content     string
	CreatedAt   time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user and returns the stored row.
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers searches for users by username prefix/substring.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// FriendStore handles friendship persistence.
type FriendStore interface {
	// CreateFriendship inserts a friendship row with the given status.
	CreateFriendship(ctx context.Context, userID, friendID int64, status FriendStatus) (*Friend, error)

	// GetFriendship retrieves the friendship between two users, in either
	// direction.
	GetFriendship(ctx context.Context, userID, friendID int64) (*Friend, error)

	// UpdateFriendStatus updates the status of the row created by userID
	// towards friendID.
	UpdateFriendStatus(ctx context.Context, userID, friendID int64, status FriendStatus) error

	// ListFriendUsers lists the users befriended with userID (accepted, both
	// directions).
	ListFriendUsers(ctx context.Context, userID int64) ([]*User, error)

	// ListIncomingRequestUsers lists the users with a pending request
	// directed at userID.
	ListIncomingRequestUsers(ctx context.Context, userID int64) ([]*User, error)

	// IsFriend checks if two users are friends (accepted, either direction).
	IsFriend(ctx context.Context, userID, friendID int64) (bool, error)

	// DeleteFriendship removes the friendship between two users, in either
	// direction.
	DeleteFriendship(ctx context.Context, userID, friendID int64) error
}

// MessageStore handles direct message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListConversation retrieves all messages between two users in
	// chronological order.
	ListConversation(ctx context.Context, userID, otherUserID int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	FriendStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
