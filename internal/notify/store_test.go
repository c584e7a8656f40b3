package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocial/backend/internal/model"
	"gocial/backend/internal/repository"
	"gocial/backend/internal/testutil"
)

func TestStore_Deliver(t *testing.T) {
	db := testutil.NewDB(t)
	notifications := repository.NewPGNotificationRepository(db)
	store := NewStore(repository.NewPGUserRepository(db), notifications)
	ctx := context.Background()

	host := testutil.CreateUser(t, db, "host")
	actor := testutil.CreateUser(t, db, "guest")
	activityID := uuid.New()

	err := store.Deliver(ctx, Event{
		UserID:  host.ID,
		ActorID: &actor.ID,
		Type:    model.NotifParticipationRequest,
		Title:   "New participation request",
		Data:    map[string]interface{}{"activity_id": activityID.String()},
	})
	require.NoError(t, err)

	rows, err := notifications.ListByUser(ctx, host.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotifParticipationRequest, rows[0].NotifType)
	require.NotNil(t, rows[0].ActorID)
	assert.Equal(t, actor.ID, *rows[0].ActorID)

	var data map[string]string
	require.NoError(t, json.Unmarshal(rows[0].Data, &data))
	assert.Equal(t, activityID.String(), data["activity_id"])
}

func TestStore_RespectsPreferences(t *testing.T) {
	db := testutil.NewDB(t)
	notifications := repository.NewPGNotificationRepository(db)
	store := NewStore(repository.NewPGUserRepository(db), notifications)
	ctx := context.Background()

	muted := testutil.CreateUser(t, db, "muted", func(u *model.User) {
		u.NotifParticipation = false
	})
	inactive := testutil.CreateUser(t, db, "gone", func(u *model.User) {
		u.IsActive = false
	})

	require.NoError(t, store.Deliver(ctx, Event{UserID: muted.ID, Type: model.NotifParticipationAccepted}))
	require.NoError(t, store.Deliver(ctx, Event{UserID: inactive.ID, Type: model.NotifParticipationAccepted}))
	require.NoError(t, store.Deliver(ctx, Event{UserID: uuid.New(), Type: model.NotifParticipationAccepted}))

	rows, err := notifications.ListByUser(ctx, muted.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	rows, err = notifications.ListByUser(ctx, inactive.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Activity notifications follow the other preference.
	require.NoError(t, store.Deliver(ctx, Event{UserID: muted.ID, Type: model.NotifActivityCancelled}))
	rows, err = notifications.ListByUser(ctx, muted.ID, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
