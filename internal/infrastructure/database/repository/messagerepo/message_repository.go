package messagerepo

import (
	"context"

	"chat-server/internal/domain/conversation"
	"chat-server/internal/infrastructure/database/dbschema"
	"chat-server/internal/utils/functional"
	"chat-server/internal/utils/platformerrors"

	"gorm.io/gorm"
)

// MessageGormRepository persists conversation messages.
type MessageGormRepository struct {
	db *gorm.DB
}

var _ conversation.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *gorm.DB) conversation.MessageRepository {
	return &MessageGormRepository{db: db}
}

// Save implements conversation.MessageRepository.
func (repo *MessageGormRepository) Save(ctx context.Context, message *conversation.Message) error {
	model := dbschema.NewSchemaMessage(message)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to save message", err, "c13c7a54-7d1e-4e6a-9f0b-2a5a0e3d8b41")
	}
	message.ID = model.ID
	message.CreatedAt = model.CreatedAt
	return nil
}

// History implements conversation.MessageRepository. It returns the most
// recent limit messages in chronological order.
func (repo *MessageGormRepository) History(ctx context.Context, sessionID string, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = conversation.DefaultHistoryLimit
	}

	var rows []*dbschema.ConversationMessage
	err := repo.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to read history", err, "0f2c9656-16aa-4e0e-8b33-6c2f6f9a1d72")
	}

	// Fetched newest first; flip to oldest first for callers.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	return functional.Map(rows, func(row *dbschema.ConversationMessage) conversation.Message {
		return row.EtoD()
	}), nil
}

// DeleteBySession implements conversation.MessageRepository. Deleting an
// already empty session is not an error.
func (repo *MessageGormRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	err := repo.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&dbschema.ConversationMessage{}).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to clear session", err, "9d61c9ad-53fb-4fd0-8f2d-3b8c1f0de6a9")
	}
	return nil
}
