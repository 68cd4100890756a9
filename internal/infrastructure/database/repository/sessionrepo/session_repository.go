package sessionrepo

import (
	"context"
	"time"

	"chat-server/internal/domain/conversation"
	"chat-server/internal/infrastructure/database/dbschema"
	"chat-server/internal/utils/functional"
	"chat-server/internal/utils/platformerrors"

	"gorm.io/gorm"
)

// SessionGormRepository persists chat sessions.
type SessionGormRepository struct {
	db *gorm.DB
}

var _ conversation.SessionRepository = (*SessionGormRepository)(nil)

func NewSessionGormRepository(db *gorm.DB) conversation.SessionRepository {
	return &SessionGormRepository{db: db}
}

// Create implements conversation.SessionRepository.
func (repo *SessionGormRepository) Create(ctx context.Context, session *conversation.ChatSession) error {
	if session.Title == "" {
		session.Title = "New Chat"
	}
	model := &dbschema.ChatSession{
		ID:     session.ID,
		UserID: session.UserID,
		Title:  session.Title,
	}
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to create chat session", err, "4e7e0f41-9b0f-4b88-b0a4-56fbb3b7b626")
	}
	session.ID = model.ID
	session.CreatedAt = model.CreatedAt
	session.UpdatedAt = model.UpdatedAt
	return nil
}

// ListByUser implements conversation.SessionRepository. Most recently
// updated sessions come first.
func (repo *SessionGormRepository) ListByUser(ctx context.Context, userID string) ([]conversation.ChatSession, error) {
	var rows []*dbschema.ChatSession
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to list chat sessions", err, "7b9e2f07-6a4e-4c65-9a3e-cf5a1df6e8d3")
	}

	return functional.Map(rows, func(row *dbschema.ChatSession) conversation.ChatSession {
		return row.EtoD()
	}), nil
}

// Rename implements conversation.SessionRepository.
func (repo *SessionGormRepository) Rename(ctx context.Context, id, title string) (*conversation.ChatSession, error) {
	var model dbschema.ChatSession
	err := repo.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "chat session not found", err, "2c41d7ab-9a01-41ee-8d47-1e0b0d3f9c55")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to load chat session", err, "e00d1f9a-49d8-4a6f-b02c-a2ee6f0f7f38")
	}

	model.Title = title
	model.UpdatedAt = time.Now().UTC()
	if err := repo.db.WithContext(ctx).Save(&model).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to rename chat session", err, "6f0a7e52-0a0e-45f0-8b64-4bb1e92dc1d4")
	}

	session := model.EtoD()
	return &session, nil
}

// Touch implements conversation.SessionRepository. It bumps updated_at so
// recently used sessions sort first.
func (repo *SessionGormRepository) Touch(ctx context.Context, id string) error {
	err := repo.db.WithContext(ctx).
		Model(&dbschema.ChatSession{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to touch chat session", err, "37e9a6cf-5d1a-4d25-b9ad-8a6fd9b5e1c8")
	}
	return nil
}

// Delete implements conversation.SessionRepository.
func (repo *SessionGormRepository) Delete(ctx context.Context, id string) error {
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&dbschema.ChatSession{}).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to delete chat session", err, "8a1b2d4e-7c3f-4b9a-a6e0-5d4c3b2a1f09")
	}
	return nil
}
