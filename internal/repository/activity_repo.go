package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
	"gocial/backend/internal/visibility"
	"gocial/backend/pkg/geo"
)

// FeedQuery is the storage-side filter set of the activity feed.
// Zero values mean "no filter".
type FeedQuery struct {
	ViewerID uuid.UUID
	Friends  visibility.FriendSet
	Now      time.Time

	Type       model.ActivityType
	Category   string
	From, To   *time.Time
	FemaleOnly bool
	FreeOnly   bool
	Box        *geo.Box

	Offset int
	Limit  int
}

// ParticipatingQuery selects the activities a user has a participation in.
type ParticipatingQuery struct {
	UserID      uuid.UUID
	Statuses    []model.ParticipationStatus // empty means any
	IncludePast bool
	Now         time.Time
	Offset      int
	Limit       int
}

// ActivityRepository persists activities. Methods taking a tx run inside the
// caller's transaction; the others use the repository's own handle.
type ActivityRepository interface {
	GetDB() *gorm.DB

	Create(ctx context.Context, activity *model.Activity) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Activity, error)
	Save(ctx context.Context, tx *gorm.DB, activity *model.Activity) error

	// IncrementParticipants takes one slot. It reports false when no slot
	// was left, and flips the status to full when the last one is taken.
	IncrementParticipants(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	// DecrementParticipants frees one slot, never going below the host,
	// and reopens a full activity.
	DecrementParticipants(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	AddLikes(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementShares(ctx context.Context, id uuid.UUID) error

	Feed(ctx context.Context, q FeedQuery) ([]model.Activity, int64, error)
	ListHosted(ctx context.Context, hostID uuid.UUID, includePast bool, now time.Time, offset, limit int) ([]model.Activity, int64, error)
	ListParticipating(ctx context.Context, q ParticipatingQuery) ([]model.Activity, int64, error)
	ListLiked(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.Activity, int64, error)
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]model.Activity, error)
}
