package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
)

// FriendshipRepository reads the friendship graph. Accepted friendships are
// symmetric, so both directions are searched.
type FriendshipRepository interface {
	AcceptedFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type pgFriendshipRepository struct {
	db *gorm.DB
}

func NewPGFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &pgFriendshipRepository{db: db}
}

func (r *pgFriendshipRepository) AcceptedFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var rows []model.Friendship
	err := r.db.WithContext(ctx).
		Select("user_id", "friend_id").
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, f := range rows {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}
