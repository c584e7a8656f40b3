package repository

import (
	"context"

	"github.com/google/uuid"

	"gocial/backend/internal/model"
)

// UserRepository reads accounts owned by the account service.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
}
