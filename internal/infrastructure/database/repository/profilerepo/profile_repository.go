package profilerepo

import (
	"context"
	"time"

	"chat-server/internal/domain/conversation"
	"chat-server/internal/infrastructure/database/dbschema"
	"chat-server/internal/utils/platformerrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileGormRepository persists user profiles.
type ProfileGormRepository struct {
	db *gorm.DB
}

var _ conversation.ProfileRepository = (*ProfileGormRepository)(nil)

func NewProfileGormRepository(db *gorm.DB) conversation.ProfileRepository {
	return &ProfileGormRepository{db: db}
}

// Get implements conversation.ProfileRepository. A missing profile returns
// nil, not an error.
func (repo *ProfileGormRepository) Get(ctx context.Context, id string) (*conversation.UserProfile, error) {
	var model dbschema.UserProfile
	err := repo.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to load user profile", err, "d4c8f5a2-0b6e-4a1d-9c3f-7e2b5a8d1f60")
	}
	profile := model.EtoD()
	return &profile, nil
}

// Upsert implements conversation.ProfileRepository.
func (repo *ProfileGormRepository) Upsert(ctx context.Context, profile *conversation.UserProfile) error {
	model := dbschema.NewSchemaProfile(profile)
	model.UpdatedAt = time.Now().UTC()
	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabase, "failed to upsert user profile", err, "a9f1e3b7-5c2d-4e8a-b0f6-1d7c4a2e9b53")
	}
	profile.CreatedAt = model.CreatedAt
	profile.UpdatedAt = model.UpdatedAt
	return nil
}
