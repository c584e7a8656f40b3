package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gocial/backend/internal/model"
	"gocial/backend/internal/visibility"
)

type pgActivityRepository struct {
	db *gorm.DB
}

func NewPGActivityRepository(db *gorm.DB) ActivityRepository {
	return &pgActivityRepository{db: db}
}

func (r *pgActivityRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *pgActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *pgActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	var activity model.Activity
	if err := r.db.WithContext(ctx).First(&activity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetByIDForUpdate acquires a row-level lock on the activity within the given transaction.
func (r *pgActivityRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Activity, error) {
	var activity model.Activity
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&activity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *pgActivityRepository) Save(ctx context.Context, tx *gorm.DB, activity *model.Activity) error {
	return tx.WithContext(ctx).Save(activity).Error
}

func (r *pgActivityRepository) IncrementParticipants(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&model.Activity{}).
		Where("id = ? AND current_participants < max_participants", id).
		Updates(map[string]interface{}{
			"current_participants": gorm.Expr("current_participants + 1"),
			"status": gorm.Expr(
				"CASE WHEN current_participants + 1 >= max_participants THEN ? ELSE status END",
				model.ActivityStatusFull,
			),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *pgActivityRepository) DecrementParticipants(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).
		Model(&model.Activity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_participants": gorm.Expr(
				"CASE WHEN current_participants > 1 THEN current_participants - 1 ELSE 1 END",
			),
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE status END",
				model.ActivityStatusFull, model.ActivityStatusPublished,
			),
		}).Error
}

func (r *pgActivityRepository) AddLikes(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.WithContext(ctx).
		Model(&model.Activity{}).
		Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr(
			"CASE WHEN likes_count + ? > 0 THEN likes_count + ? ELSE 0 END", delta, delta,
		)).Error
}

func (r *pgActivityRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (r *pgActivityRepository) IncrementShares(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Where("id = ?", id).
		UpdateColumn("shares_count", gorm.Expr("shares_count + 1")).Error
}

// feedScope holds every feed predicate so the count and the page query
// are built from the same conditions.
func feedScope(q FeedQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("activities.status = ? AND activities.date >= ?", model.ActivityStatusPublished, q.Now)

		if q.Type != "" {
			db = db.Where("activities.activity_type = ?", q.Type)
		}
		if q.Category != "" {
			db = db.Where("activities.category = ?", q.Category)
		}
		if q.From != nil {
			db = db.Where("activities.date >= ?", *q.From)
		}
		if q.To != nil {
			db = db.Where("activities.date < ?", *q.To)
		}
		if q.FemaleOnly {
			db = db.Where("activities.gender_restriction = ?", model.GenderFemale)
		}
		if q.FreeOnly {
			db = db.Where("(activities.price IS NULL OR activities.price = 0)")
		}
		if q.Box != nil {
			db = db.Where(
				"activities.latitude BETWEEN ? AND ? AND activities.longitude BETWEEN ? AND ?",
				q.Box.MinLat, q.Box.MaxLat, q.Box.MinLng, q.Box.MaxLng,
			)
		}
		return db.Scopes(visibility.Scope(q.ViewerID, q.Friends))
	}
}

func (r *pgActivityRepository) Feed(ctx context.Context, q FeedQuery) ([]model.Activity, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Scopes(feedScope(q)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []model.Activity
	err := r.db.WithContext(ctx).
		Scopes(feedScope(q)).
		Order("activities.date ASC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&activities).Error
	return activities, total, err
}

func (r *pgActivityRepository) ListHosted(
	ctx context.Context, hostID uuid.UUID, includePast bool, now time.Time, offset, limit int,
) ([]model.Activity, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("host_id = ? AND status <> ?", hostID, model.ActivityStatusCancelled)
		if !includePast {
			db = db.Where("date >= ?", now)
		}
		return db
	}
	return r.page(ctx, scope, "date ASC", offset, limit)
}

func (r *pgActivityRepository) ListParticipating(ctx context.Context, q ParticipatingQuery) ([]model.Activity, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Joins("JOIN participations ON participations.activity_id = activities.id").
			Where("participations.user_id = ?", q.UserID)
		if len(q.Statuses) > 0 {
			db = db.Where("participations.status IN ?", q.Statuses)
		}
		if !q.IncludePast {
			db = db.Where("activities.date >= ?", q.Now)
		}
		return db
	}
	return r.page(ctx, scope, "activities.date ASC", q.Offset, q.Limit)
}

func (r *pgActivityRepository) ListLiked(
	ctx context.Context, userID uuid.UUID, offset, limit int,
) ([]model.Activity, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN activity_likes ON activity_likes.activity_id = activities.id").
			Where("activity_likes.user_id = ?", userID).
			Where("activities.status IN ?", []model.ActivityStatus{
				model.ActivityStatusPublished, model.ActivityStatusFull,
			})
	}
	return r.page(ctx, scope, "activity_likes.created_at DESC", offset, limit)
}

func (r *pgActivityRepository) page(
	ctx context.Context, scope func(*gorm.DB) *gorm.DB, order string, offset, limit int,
) ([]model.Activity, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Scopes(scope).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []model.Activity
	err := r.db.WithContext(ctx).
		Select("activities.*").
		Scopes(scope).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	return activities, total, err
}

// ListStartingBetween returns open activities whose start falls in [from, to).
func (r *pgActivityRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]model.Activity, error) {
	var activities []model.Activity
	err := r.db.WithContext(ctx).
		Where("status IN ? AND date >= ? AND date < ?",
			[]model.ActivityStatus{model.ActivityStatusPublished, model.ActivityStatusFull}, from, to).
		Order("date ASC").
		Find(&activities).Error
	return activities, err
}
