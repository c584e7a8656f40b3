// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gocial/backend/internal/model"
)

// NewDB opens a fresh in-memory SQLite database with the full schema.
// The pool holds a single connection, so transactions run one at a time
// the way row locks serialize them on PostgreSQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// CreateUser inserts an active person with notifications enabled.
func CreateUser(t *testing.T, db *gorm.DB, pseudo string, opts ...func(*model.User)) *model.User {
	t.Helper()
	u := &model.User{
		UserType:           model.UserTypePerson,
		Pseudo:             pseudo,
		FirstName:          pseudo,
		IsActive:           true,
		NotifParticipation: true,
		NotifNewActivity:   true,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Befriend stores an accepted friendship from a to b.
func Befriend(t *testing.T, db *gorm.DB, a, b uuid.UUID) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&model.Friendship{
		UserID:     a,
		FriendID:   b,
		Status:     model.FriendshipAccepted,
		AcceptedAt: &now,
	}).Error)
}

// CreateActivity inserts a published public activity hosted by hostID,
// one day in the future, which callers may adjust through opts.
func CreateActivity(t *testing.T, db *gorm.DB, hostID uuid.UUID, opts ...func(*model.Activity)) *model.Activity {
	t.Helper()
	now := time.Now().UTC()
	a := &model.Activity{
		HostID:              hostID,
		Title:               "Board games night",
		ActivityType:        model.ActivityTypeReal,
		Category:            "games",
		Date:                now.Add(24 * time.Hour),
		MinParticipants:     2,
		MaxParticipants:     10,
		CurrentParticipants: 1,
		MinAge:              18,
		MaxAge:              99,
		GenderRestriction:   model.GenderAll,
		AcceptNonVerified:   true,
		AcceptNonPremium:    true,
		ValidationType:      model.ValidationManual,
		Visibility:          model.VisibilityPublic,
		Currency:            "EUR",
		Status:              model.ActivityStatusPublished,
		PublishedAt:         &now,
	}
	for _, opt := range opts {
		opt(a)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func Float(v float64) *float64 { return &v }
