package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocial/backend/internal/model"
	"gocial/backend/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func futureDate(d time.Duration) string {
	return time.Now().UTC().Add(d).Format(time.RFC3339)
}

func TestCreate_Defaults(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")

	view, err := env.activities.Create(context.Background(), host.ID, CreateActivityInput{
		Title:        "  Picnic  ",
		ActivityType: "real",
		Date:         futureDate(48 * time.Hour),
		City:         "Lyon",
		Latitude:     testutil.Float(45.76),
		Longitude:    testutil.Float(4.83),
	})
	require.NoError(t, err)
	assert.True(t, view.ViewerInfo.IsHost)

	a := env.reload(t, view.ID)
	assert.Equal(t, "Picnic", a.Title)
	assert.Equal(t, host.ID, a.HostID)
	assert.Equal(t, 1, a.CurrentParticipants)
	assert.Equal(t, 2, a.MinParticipants)
	assert.Equal(t, 10, a.MaxParticipants)
	assert.Equal(t, 18, a.MinAge)
	assert.Equal(t, 99, a.MaxAge)
	assert.True(t, a.AcceptNonVerified)
	assert.True(t, a.AcceptNonPremium)
	assert.Equal(t, model.ValidationManual, a.ValidationType)
	assert.Equal(t, model.VisibilityPublic, a.Visibility)
	assert.Equal(t, model.GenderAll, a.GenderRestriction)
	assert.Equal(t, model.ActivityStatusPublished, a.Status)
	assert.NotNil(t, a.PublishedAt)
	assert.False(t, a.IsPaid)
	assert.True(t, a.HasLocation())
}

func TestCreate_Options(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")

	view, err := env.activities.Create(context.Background(), host.ID, CreateActivityInput{
		Title:             "Yoga call",
		ActivityType:      "visio",
		Date:              futureDate(24 * time.Hour),
		DurationMinutes:   ptr(60),
		MaxParticipants:   ptr(4),
		IsGirlsOnly:       true,
		RequireApproval:   ptr(false),
		Visibility:        "friends",
		AcceptNonVerified: ptr(false),
		Status:            "draft",
		VisioURL:          "https://meet.example.com/yoga",
		Address:           "ignored for visio",
		Price:             testutil.Float(5),
		Currency:          "usd",
	})
	require.NoError(t, err)

	a := env.reload(t, view.ID)
	assert.Equal(t, model.GenderFemale, a.GenderRestriction)
	assert.Equal(t, model.ValidationAuto, a.ValidationType)
	assert.Equal(t, model.VisibilityFriendsOnly, a.Visibility)
	assert.False(t, a.AcceptNonVerified)
	assert.Equal(t, model.ActivityStatusDraft, a.Status)
	assert.Nil(t, a.PublishedAt)
	assert.Equal(t, "https://meet.example.com/yoga", a.VisioURL)
	assert.Empty(t, a.Address)
	assert.True(t, a.IsPaid)
	assert.Equal(t, "USD", a.Currency)
	require.NotNil(t, a.EndDate)
	assert.Equal(t, time.Hour, a.EndDate.Sub(a.Date))
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	valid := func() CreateActivityInput {
		return CreateActivityInput{Title: "Run", ActivityType: "real", Date: futureDate(time.Hour)}
	}

	tests := []struct {
		name   string
		mutate func(*CreateActivityInput)
		err    error
	}{
		{name: "blank title", mutate: func(in *CreateActivityInput) { in.Title = "   " }, err: ErrTitleRequired},
		{name: "unknown type", mutate: func(in *CreateActivityInput) { in.ActivityType = "hybrid" }, err: ErrInvalidType},
		{name: "missing date", mutate: func(in *CreateActivityInput) { in.Date = "" }, err: ErrDateRequired},
		{name: "malformed date", mutate: func(in *CreateActivityInput) { in.Date = "tomorrow" }, err: ErrInvalidDate},
		{name: "past date", mutate: func(in *CreateActivityInput) { in.Date = futureDate(-time.Hour) }, err: ErrDateInPast},
		{name: "visibility", mutate: func(in *CreateActivityInput) { in.Visibility = "secret" }, err: ErrInvalidVisibility},
		{name: "gender", mutate: func(in *CreateActivityInput) { in.GenderRestriction = "robots" }, err: ErrInvalidGender},
		{name: "status", mutate: func(in *CreateActivityInput) { in.Status = "full" }, err: ErrInvalidStatus},
		{name: "max below two", mutate: func(in *CreateActivityInput) { in.MaxParticipants = ptr(1) }, err: ErrInvalidCapacity},
		{name: "min above max", mutate: func(in *CreateActivityInput) { in.MinParticipants = ptr(6); in.MaxParticipants = ptr(5) }, err: ErrInvalidCapacity},
		{name: "coordinates", mutate: func(in *CreateActivityInput) {
			in.Latitude, in.Longitude = testutil.Float(91), testutil.Float(0)
		}, err: ErrInvalidCoordinates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := env.activities.Create(context.Background(), host.ID, in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&model.Activity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGet_VisibilityAndRoster(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	member := testutil.CreateUser(t, env.db, "member")
	stranger := testutil.CreateUser(t, env.db, "stranger")
	a := testutil.CreateActivity(t, env.db, host.ID)
	env.addParticipation(t, member.ID, a.ID, model.ParticipationValidated)
	ctx := context.Background()

	detail, err := env.activities.Get(ctx, stranger.ID, a.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Participants)
	assert.Nil(t, detail.MyParticipation)

	detail, err = env.activities.Get(ctx, member.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, detail.Participants, 1)
	assert.Equal(t, member.ID, detail.Participants[0].User.(model.PersonProfile).ID)
	require.NotNil(t, detail.MyParticipation)
	assert.Equal(t, model.ParticipationValidated, detail.MyParticipation.Status)

	detail, err = env.activities.Get(ctx, host.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, detail.ViewerInfo.IsHost)
	assert.Len(t, detail.Participants, 1)

	private := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Visibility = model.VisibilityPrivate })
	_, err = env.activities.Get(ctx, stranger.ID, private.ID)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = env.activities.Get(ctx, stranger.ID, uuid.New())
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestGet_CountsEachViewerOnce(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	a := testutil.CreateActivity(t, env.db, host.ID)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.activities.Get(ctx, alice.ID, a.ID)
		require.NoError(t, err)
		_, err = env.activities.Get(ctx, host.ID, a.ID)
		require.NoError(t, err)
	}
	detail, err := env.activities.Get(ctx, bob.ID, a.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, detail.ViewsCount)
	assert.Equal(t, 2, env.reload(t, a.ID).ViewsCount)
}

func TestUpdate_Capacity(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	a := testutil.CreateActivity(t, env.db, host.ID, withMax(5))
	for _, name := range []string{"p1", "p2"} {
		u := testutil.CreateUser(t, env.db, name)
		env.addParticipation(t, u.ID, a.ID, model.ParticipationValidated)
	}
	require.NoError(t, env.db.Model(a).Update("current_participants", 3).Error)
	ctx := context.Background()

	_, err := env.activities.Update(ctx, host.ID, a.ID, UpdateActivityInput{MaxParticipants: ptr(2)})
	assert.ErrorIs(t, err, ErrCapacityBelowCount)

	_, err = env.activities.Update(ctx, host.ID, a.ID, UpdateActivityInput{MaxParticipants: ptr(1)})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	view, err := env.activities.Update(ctx, host.ID, a.ID, UpdateActivityInput{MaxParticipants: ptr(3)})
	require.NoError(t, err)
	assert.True(t, view.IsFull)
	reloaded := env.reload(t, a.ID)
	assert.Equal(t, model.ActivityStatusFull, reloaded.Status)
	assertCapacityInvariant(t, reloaded)

	_, err = env.activities.Update(ctx, host.ID, a.ID, UpdateActivityInput{MaxParticipants: ptr(8)})
	require.NoError(t, err)
	reloaded = env.reload(t, a.ID)
	assert.Equal(t, model.ActivityStatusPublished, reloaded.Status)
	assert.Equal(t, 5, reloaded.SpotsLeft())
}

func TestUpdate_Fields(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	a := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Status = model.ActivityStatusDraft })
	ctx := context.Background()
	newDate := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)

	_, err := env.activities.Update(ctx, host.ID, a.ID, UpdateActivityInput{
		Title:           ptr(" Chess "),
		Visibility:      ptr("private"),
		IsGirlsOnly:     ptr(true),
		RequireApproval: ptr(false),
		Price:           testutil.Float(3),
		Date:            ptr(newDate.Format(time.RFC3339)),
		Status:          ptr("published"),
	})
	require.NoError(t, err)

	reloaded := env.reload(t, a.ID)
	assert.Equal(t, "Chess", reloaded.Title)
	assert.Equal(t, model.VisibilityPrivate, reloaded.Visibility)
	assert.Equal(t, model.GenderFemale, reloaded.GenderRestriction)
	assert.Equal(t, model.ValidationAuto, reloaded.ValidationType)
	assert.True(t, reloaded.IsPaid)
	assert.True(t, newDate.Equal(reloaded.Date))
	assert.Equal(t, model.ActivityStatusPublished, reloaded.Status)
	assert.NotNil(t, reloaded.PublishedAt)
}

func TestUpdate_Refusals(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	other := testutil.CreateUser(t, env.db, "other")
	ctx := context.Background()

	public := testutil.CreateActivity(t, env.db, host.ID)
	private := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Visibility = model.VisibilityPrivate })
	cancelled := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Status = model.ActivityStatusCancelled })
	visio := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.ActivityType = model.ActivityTypeVisio
		a.VisioURL = "https://meet.example/board"
	})

	tests := []struct {
		name     string
		caller   uuid.UUID
		activity uuid.UUID
		in       UpdateActivityInput
		err      error
	}{
		{name: "not host", caller: other.ID, activity: public.ID, in: UpdateActivityInput{Title: ptr("x")}, err: ErrNotHost},
		{name: "hidden from caller", caller: other.ID, activity: private.ID, in: UpdateActivityInput{Title: ptr("x")}, err: ErrActivityNotFound},
		{name: "cancelled", caller: host.ID, activity: cancelled.ID, in: UpdateActivityInput{Title: ptr("x")}, err: ErrActivityClosed},
		{name: "blank title", caller: host.ID, activity: public.ID, in: UpdateActivityInput{Title: ptr(" ")}, err: ErrTitleRequired},
		{name: "past date", caller: host.ID, activity: public.ID, in: UpdateActivityInput{Date: ptr(futureDate(-time.Hour))}, err: ErrDateInPast},
		{name: "back to draft", caller: host.ID, activity: public.ID, in: UpdateActivityInput{Status: ptr("draft")}, err: ErrInvalidStatus},
		{name: "direct cancel", caller: host.ID, activity: public.ID, in: UpdateActivityInput{Status: ptr("cancelled")}, err: ErrInvalidStatus},
		{name: "visibility", caller: host.ID, activity: public.ID, in: UpdateActivityInput{Visibility: ptr("everyone")}, err: ErrInvalidVisibility},
		{name: "visio link on real", caller: host.ID, activity: public.ID, in: UpdateActivityInput{VisioURL: ptr("https://meet.example/x")}, err: ErrLocationMismatch},
		{name: "coordinates on visio", caller: host.ID, activity: visio.ID, in: UpdateActivityInput{Latitude: ptr(48.85), Longitude: ptr(2.35)}, err: ErrLocationMismatch},
		{name: "address on visio", caller: host.ID, activity: visio.ID, in: UpdateActivityInput{Address: ptr("1 rue")}, err: ErrLocationMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.activities.Update(ctx, tt.caller, tt.activity, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Equal(t, "Board games night", env.reload(t, public.ID).Title)
	assert.Empty(t, env.reload(t, public.ID).VisioURL)
	reloaded := env.reload(t, visio.ID)
	assert.Nil(t, reloaded.Latitude)
	assert.Empty(t, reloaded.Address)
	assert.Equal(t, "https://meet.example/board", reloaded.VisioURL)
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	validated := testutil.CreateUser(t, env.db, "validated")
	pending := testutil.CreateUser(t, env.db, "pending")
	rejected := testutil.CreateUser(t, env.db, "rejected")
	a := testutil.CreateActivity(t, env.db, host.ID)
	env.addParticipation(t, validated.ID, a.ID, model.ParticipationValidated)
	env.addParticipation(t, pending.ID, a.ID, model.ParticipationPending)
	env.addParticipation(t, rejected.ID, a.ID, model.ParticipationRejected)
	ctx := context.Background()

	assert.ErrorIs(t, env.activities.Cancel(ctx, validated.ID, a.ID, "nope"), ErrNotHost)

	require.NoError(t, env.activities.Cancel(ctx, host.ID, a.ID, " rain "))
	reloaded := env.reload(t, a.ID)
	assert.Equal(t, model.ActivityStatusCancelled, reloaded.Status)
	assert.Equal(t, "rain", reloaded.CancelledReason)
	assert.Equal(t, model.ParticipationValidated, env.participation(t, validated.ID, a.ID).Status)

	assert.Equal(t, []model.NotificationType{model.NotifActivityCancelled}, env.notifier.For(validated.ID))
	assert.Equal(t, []model.NotificationType{model.NotifActivityCancelled}, env.notifier.For(pending.ID))
	assert.Empty(t, env.notifier.For(rejected.ID))

	// Cancelling twice changes nothing and notifies nobody again.
	require.NoError(t, env.activities.Cancel(ctx, host.ID, a.ID, "again"))
	assert.Equal(t, "rain", env.reload(t, a.ID).CancelledReason)
	assert.Len(t, env.notifier.For(validated.ID), 1)

	page, err := env.activities.Feed(ctx, validated.ID, FeedFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Activities)

	completed := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Status = model.ActivityStatusCompleted })
	assert.ErrorIs(t, env.activities.Cancel(ctx, host.ID, completed.ID, ""), ErrInvalidStatus)
}

func TestLikeUnlike(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	fan := testutil.CreateUser(t, env.db, "fan")
	a := testutil.CreateActivity(t, env.db, host.ID)
	ctx := context.Background()

	created, err := env.activities.Like(ctx, fan.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.activities.Like(ctx, fan.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, env.reload(t, a.ID).LikesCount)

	page, err := env.activities.ListLiked(ctx, fan.ID, Page{})
	require.NoError(t, err)
	require.Len(t, page.Activities, 1)
	assert.True(t, page.Activities[0].ViewerInfo.IsLiked)

	require.NoError(t, env.activities.Unlike(ctx, fan.ID, a.ID))
	require.NoError(t, env.activities.Unlike(ctx, fan.ID, a.ID))
	assert.Equal(t, 0, env.reload(t, a.ID).LikesCount)

	private := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Visibility = model.VisibilityPrivate })
	_, err = env.activities.Like(ctx, fan.ID, private.ID)
	assert.ErrorIs(t, err, ErrActivityNotFound)
	assert.ErrorIs(t, env.activities.Unlike(ctx, fan.ID, private.ID), ErrActivityNotFound)
	assert.ErrorIs(t, env.activities.Unlike(ctx, fan.ID, uuid.New()), ErrActivityNotFound)
}

func TestShare(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	user := testutil.CreateUser(t, env.db, "user")
	a := testutil.CreateActivity(t, env.db, host.ID)
	ctx := context.Background()

	require.NoError(t, env.activities.Share(ctx, user.ID, a.ID))
	require.NoError(t, env.activities.Share(ctx, user.ID, a.ID))
	assert.Equal(t, 2, env.reload(t, a.ID).SharesCount)

	assert.ErrorIs(t, env.activities.Share(ctx, user.ID, uuid.New()), ErrActivityNotFound)
}

func TestListHostedAndParticipating(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	user := testutil.CreateUser(t, env.db, "user")
	upcoming := testutil.CreateActivity(t, env.db, host.ID)
	past := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Date = time.Now().UTC().Add(-time.Hour) })
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Status = model.ActivityStatusCancelled })
	pendingOn := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Date = a.Date.Add(time.Hour) })

	env.addParticipation(t, user.ID, upcoming.ID, model.ParticipationValidated)
	env.addParticipation(t, user.ID, past.ID, model.ParticipationValidated)
	env.addParticipation(t, user.ID, pendingOn.ID, model.ParticipationPending)
	ctx := context.Background()

	hosted, err := env.activities.ListHosted(ctx, host.ID, false, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), hosted.Total)

	hosted, err = env.activities.ListHosted(ctx, host.ID, true, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), hosted.Total)
	for _, v := range hosted.Activities {
		assert.True(t, v.ViewerInfo.IsHost)
	}

	mine, err := env.activities.ListParticipating(ctx, user.ID, "", false, Page{})
	require.NoError(t, err)
	require.Len(t, mine.Activities, 1)
	assert.Equal(t, upcoming.ID, mine.Activities[0].ID)
	require.NotNil(t, mine.Activities[0].MyParticipation)

	mine, err = env.activities.ListParticipating(ctx, user.ID, "pending", false, Page{})
	require.NoError(t, err)
	require.Len(t, mine.Activities, 1)
	assert.Equal(t, pendingOn.ID, mine.Activities[0].ID)

	mine, err = env.activities.ListParticipating(ctx, user.ID, "all", true, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)

	_, err = env.activities.ListParticipating(ctx, user.ID, "maybe", false, Page{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
