package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
)

type LikeRepository interface {
	Find(ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID) (*model.ActivityLike, error)
	Create(ctx context.Context, tx *gorm.DB, like *model.ActivityLike) error
	Delete(ctx context.Context, tx *gorm.DB, like *model.ActivityLike) error
	// LikedAmong returns the subset of activityIDs the user has liked.
	LikedAmong(ctx context.Context, userID uuid.UUID, activityIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type pgLikeRepository struct {
	db *gorm.DB
}

func NewPGLikeRepository(db *gorm.DB) LikeRepository {
	return &pgLikeRepository{db: db}
}

func (r *pgLikeRepository) Find(ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID) (*model.ActivityLike, error) {
	var like model.ActivityLike
	err := tx.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *pgLikeRepository) Create(ctx context.Context, tx *gorm.DB, like *model.ActivityLike) error {
	return tx.WithContext(ctx).Create(like).Error
}

func (r *pgLikeRepository) Delete(ctx context.Context, tx *gorm.DB, like *model.ActivityLike) error {
	return tx.WithContext(ctx).Delete(&model.ActivityLike{}, "id = ?", like.ID).Error
}

func (r *pgLikeRepository) LikedAmong(
	ctx context.Context, userID uuid.UUID, activityIDs []uuid.UUID,
) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool)
	if len(activityIDs) == 0 {
		return liked, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.ActivityLike{}).
		Where("user_id = ? AND activity_id IN ?", userID, activityIDs).
		Pluck("activity_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
