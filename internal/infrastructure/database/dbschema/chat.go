package dbschema

import (
	"time"

	"chat-server/internal/domain/conversation"
	"chat-server/internal/infrastructure/database"

	"gorm.io/datatypes"
)

func init() {
	database.RegisterSchemaForAutoMigrate(ConversationMessage{})
	database.RegisterSchemaForAutoMigrate(ChatSession{})
	database.RegisterSchemaForAutoMigrate(UserProfile{})
}

// ConversationMessage is one persisted turn, table "conversations".
type ConversationMessage struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID string    `gorm:"type:varchar(64);index:idx_conversations_session_created;not null"`
	UserID    *string   `gorm:"type:varchar(64);index"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_conversations_session_created"`
}

func (ConversationMessage) TableName() string { return "conversations" }

// ChatSession is one named conversation container, table "chat_sessions".
type ChatSession struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string    `gorm:"type:varchar(64);index;not null"`
	Title     string    `gorm:"type:varchar(256);not null;default:'New Chat'"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// UserProfile stores per-user display data, table "user_profiles".
type UserProfile struct {
	ID          string            `gorm:"type:varchar(64);primaryKey"`
	FullName    *string           `gorm:"type:varchar(256)"`
	AvatarURL   *string           `gorm:"type:varchar(512)"`
	Preferences datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UserProfile) TableName() string { return "user_profiles" }

// EtoD converts the row to its domain shape.
func (m *ConversationMessage) EtoD() conversation.Message {
	return conversation.Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		UserID:    m.UserID,
		Role:      conversation.Role(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// NewSchemaMessage converts a domain message to its row shape.
func NewSchemaMessage(msg *conversation.Message) *ConversationMessage {
	return &ConversationMessage{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		UserID:    msg.UserID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

// EtoD converts the row to its domain shape.
func (s *ChatSession) EtoD() conversation.ChatSession {
	return conversation.ChatSession{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// EtoD converts the row to its domain shape.
func (p *UserProfile) EtoD() conversation.UserProfile {
	prefs := make(map[string]string, len(p.Preferences))
	for key, value := range p.Preferences {
		if str, ok := value.(string); ok {
			prefs[key] = str
		}
	}
	return conversation.UserProfile{
		ID:          p.ID,
		FullName:    p.FullName,
		AvatarURL:   p.AvatarURL,
		Preferences: prefs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewSchemaProfile converts a domain profile to its row shape.
func NewSchemaProfile(profile *conversation.UserProfile) *UserProfile {
	prefs := make(datatypes.JSONMap, len(profile.Preferences))
	for key, value := range profile.Preferences {
		prefs[key] = value
	}
	return &UserProfile{
		ID:          profile.ID,
		FullName:    profile.FullName,
		AvatarURL:   profile.AvatarURL,
		Preferences: prefs,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}
