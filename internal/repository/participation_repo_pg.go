package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
)

type pgParticipationRepository struct {
	db *gorm.DB
}

func NewPGParticipationRepository(db *gorm.DB) ParticipationRepository {
	return &pgParticipationRepository{db: db}
}

func (r *pgParticipationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *pgParticipationRepository) Create(ctx context.Context, tx *gorm.DB, p *model.Participation) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *pgParticipationRepository) Save(ctx context.Context, tx *gorm.DB, p *model.Participation) error {
	return tx.WithContext(ctx).Omit("User").Save(p).Error
}

func (r *pgParticipationRepository) FindByUserAndActivity(
	ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID,
) (*model.Participation, error) {
	var p model.Participation
	err := tx.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgParticipationRepository) ListByActivity(
	ctx context.Context, activityID uuid.UUID, status *model.ParticipationStatus,
) ([]model.Participation, error) {
	var participations []model.Participation
	q := r.db.WithContext(ctx).Preload("User").Where("activity_id = ?", activityID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at ASC").Find(&participations).Error; err != nil {
		return nil, err
	}
	return participations, nil
}

func (r *pgParticipationRepository) ListByUserForActivities(
	ctx context.Context, userID uuid.UUID, activityIDs []uuid.UUID,
) ([]model.Participation, error) {
	if len(activityIDs) == 0 {
		return nil, nil
	}
	var participations []model.Participation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id IN ?", userID, activityIDs).
		Find(&participations).Error
	return participations, err
}

func (r *pgParticipationRepository) ListUserIDs(
	ctx context.Context, activityID uuid.UUID, statuses ...model.ParticipationStatus,
) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&model.Participation{}).Where("activity_id = ?", activityID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Pluck("user_id", &ids).Error
	return ids, err
}
