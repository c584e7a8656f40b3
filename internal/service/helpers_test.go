package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocial/backend/internal/config"
	"gocial/backend/internal/model"
	"gocial/backend/internal/notify"
	"gocial/backend/internal/repository"
	"gocial/backend/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) For(userID uuid.UUID) []model.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var types []model.NotificationType
	for _, e := range n.events {
		if e.UserID == userID {
			types = append(types, e.Type)
		}
	}
	return types
}

type testEnv struct {
	db             *gorm.DB
	activities     *activityService
	participations *participationService
	notifier       *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	logger := zap.NewNop()
	notifier := &recordingNotifier{}

	activityRepo := repository.NewPGActivityRepository(db)
	participationRepo := repository.NewPGParticipationRepository(db)
	userRepo := repository.NewPGUserRepository(db)
	state := repository.NewMemoryStateStore()
	friends := NewFriendService(repository.NewPGFriendshipRepository(db))

	feedCfg := config.FeedConfig{Timezone: "UTC", DefaultRadiusKm: 50, DefaultPerPage: 20, MaxPerPage: 50}
	stateCfg := config.StateConfig{ViewDedupTTL: time.Hour}

	return &testEnv{
		db: db,
		activities: NewActivityService(feedCfg, stateCfg, activityRepo, participationRepo,
			repository.NewPGLikeRepository(db), userRepo, friends, state, notifier, logger).(*activityService),
		participations: NewParticipationService(activityRepo, participationRepo, userRepo,
			friends, notifier, logger).(*participationService),
		notifier: notifier,
	}
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *model.Activity {
	t.Helper()
	var a model.Activity
	require.NoError(t, e.db.First(&a, "id = ?", id).Error)
	return &a
}

func (e *testEnv) participation(t *testing.T, userID, activityID uuid.UUID) *model.Participation {
	t.Helper()
	var p model.Participation
	require.NoError(t, e.db.First(&p, "user_id = ? AND activity_id = ?", userID, activityID).Error)
	return &p
}

func (e *testEnv) addParticipation(t *testing.T, userID, activityID uuid.UUID, status model.ParticipationStatus) *model.Participation {
	t.Helper()
	p := &model.Participation{UserID: userID, ActivityID: activityID, Status: status}
	if status == model.ParticipationValidated {
		now := time.Now().UTC()
		p.ValidatedAt = &now
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func autoJoin(a *model.Activity) { a.ValidationType = model.ValidationAuto }

func withMax(n int) func(*model.Activity) {
	return func(a *model.Activity) { a.MaxParticipants = n }
}

// assertCapacityInvariant checks the bounds on the participant counter and
// that full status matches a tight bound.
func assertCapacityInvariant(t *testing.T, a *model.Activity) {
	t.Helper()
	require.GreaterOrEqual(t, a.CurrentParticipants, 1)
	require.LessOrEqual(t, a.CurrentParticipants, a.MaxParticipants)
	if a.Status == model.ActivityStatusFull || a.Status == model.ActivityStatusPublished {
		require.Equal(t, a.CurrentParticipants == a.MaxParticipants, a.Status == model.ActivityStatusFull,
			"status %s with %d/%d", a.Status, a.CurrentParticipants, a.MaxParticipants)
	}
}
