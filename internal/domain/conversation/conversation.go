package conversation

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const (
	// DefaultHistoryLimit caps ordered history reads, including the profile
	// branch lookback.
	DefaultHistoryLimit = 50
	// ChatContextLimit is how many recent messages are sent upstream as
	// conversation context.
	ChatContextLimit = 20
	// ProfileMinTurns is the minimum prior history before a personality
	// profile is generated.
	ProfileMinTurns = 5
)

// Message is one persisted turn in a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    *string   `json:"user_id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is a named, ordered container of messages owned by one user.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile holds per-user display data and preferences.
type UserProfile struct {
	ID          string            `json:"id"`
	FullName    *string           `json:"full_name,omitempty"`
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MessageRepository is the narrow store interface the relay depends on:
// append, ordered range read, delete by session.
type MessageRepository interface {
	Save(ctx context.Context, message *Message) error
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

// SessionRepository manages chat session rows. Message cleanup on delete is
// the store's concern (cascade), not enforced here.
type SessionRepository interface {
	Create(ctx context.Context, session *ChatSession) error
	ListByUser(ctx context.Context, userID string) ([]ChatSession, error)
	Rename(ctx context.Context, id, title string) (*ChatSession, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ProfileRepository stores user profiles keyed by user id.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (*UserProfile, error)
	Upsert(ctx context.Context, profile *UserProfile) error
}
