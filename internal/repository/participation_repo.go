package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
)

type ParticipationRepository interface {
	GetDB() *gorm.DB

	Create(ctx context.Context, tx *gorm.DB, p *model.Participation) error
	Save(ctx context.Context, tx *gorm.DB, p *model.Participation) error
	FindByUserAndActivity(ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID) (*model.Participation, error)
	// ListByActivity preloads each participant's user. A nil status lists every row.
	ListByActivity(ctx context.Context, activityID uuid.UUID, status *model.ParticipationStatus) ([]model.Participation, error)
	ListByUserForActivities(ctx context.Context, userID uuid.UUID, activityIDs []uuid.UUID) ([]model.Participation, error)
	ListUserIDs(ctx context.Context, activityID uuid.UUID, statuses ...model.ParticipationStatus) ([]uuid.UUID, error)
}
