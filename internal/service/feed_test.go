package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocial/backend/internal/model"
	"gocial/backend/internal/testutil"
	"gocial/backend/pkg/geo"
)

func feedIDs(page *FeedPage) []uuid.UUID {
	ids := make([]uuid.UUID, len(page.Activities))
	for i, v := range page.Activities {
		ids[i] = v.ID
	}
	return ids
}

func at(lat, lng float64) func(*model.Activity) {
	return func(a *model.Activity) {
		a.Latitude = testutil.Float(lat)
		a.Longitude = testutil.Float(lng)
	}
}

func TestFeed_BasePredicateAndOrder(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	now := time.Now().UTC()

	later := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Date = now.Add(72 * time.Hour) })
	sooner := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Date = now.Add(2 * time.Hour) })
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Date = now.Add(-2 * time.Hour) })
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Status = model.ActivityStatusDraft })
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Status = model.ActivityStatusCancelled })

	page, err := env.activities.Feed(context.Background(), viewer.ID, FeedFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sooner.ID, later.ID}, feedIDs(page))
	assert.Equal(t, int64(2), page.Total)
	assert.True(t, page.TotalExact)
	assert.Equal(t, 1, page.Pages)
	assert.False(t, page.HasNext)

	require.NotNil(t, page.Activities[0].Host)
	assert.Equal(t, host.ID, page.Activities[0].Host.(model.PersonProfile).ID)
	assert.False(t, page.Activities[0].ViewerInfo.IsHost)
}

func TestFeed_Visibility(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	friend := testutil.CreateUser(t, env.db, "friend")
	stranger := testutil.CreateUser(t, env.db, "stranger")
	testutil.Befriend(t, env.db, host.ID, friend.ID)

	public := testutil.CreateActivity(t, env.db, host.ID)
	friendsOnly := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Visibility = model.VisibilityFriendsOnly
		a.Date = a.Date.Add(time.Hour)
	})
	private := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Visibility = model.VisibilityPrivate
		a.Date = a.Date.Add(2 * time.Hour)
	})

	ctx := context.Background()
	tests := []struct {
		viewer uuid.UUID
		want   []uuid.UUID
	}{
		{viewer: host.ID, want: []uuid.UUID{public.ID, friendsOnly.ID, private.ID}},
		{viewer: friend.ID, want: []uuid.UUID{public.ID, friendsOnly.ID}},
		{viewer: stranger.ID, want: []uuid.UUID{public.ID}},
	}
	for _, tt := range tests {
		page, err := env.activities.Feed(ctx, tt.viewer, FeedFilter{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, feedIDs(page))
	}
}

func TestFeed_GirlsOnly(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	girlsMode := testutil.CreateUser(t, env.db, "girls", func(u *model.User) { u.GirlsOnlyMode = true })

	female := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.GenderRestriction = model.GenderFemale })
	testutil.CreateActivity(t, env.db, host.ID)
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.GenderRestriction = model.GenderMale })

	ctx := context.Background()

	page, err := env.activities.Feed(ctx, viewer.ID, FeedFilter{GirlsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{female.ID}, feedIDs(page))

	page, err = env.activities.Feed(ctx, girlsMode.ID, FeedFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{female.ID}, feedIDs(page), "viewer preference applies without the flag")

	page, err = env.activities.Feed(ctx, viewer.ID, FeedFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Activities, 3)
}

func TestFeed_ScalarFilters(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	day := time.Now().UTC().AddDate(0, 0, 3)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	visio := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.ActivityType = model.ActivityTypeVisio
		a.Category = "talk"
	})
	paid := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Price = testutil.Float(12)
		a.Date = dayStart.Add(10 * time.Hour)
	})
	zero := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Price = testutil.Float(0)
		a.Date = dayStart.Add(23*time.Hour + 30*time.Minute)
	})
	nextDay := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Date = dayStart.Add(24 * time.Hour)
	})

	ctx := context.Background()
	tests := []struct {
		name   string
		filter FeedFilter
		want   []uuid.UUID
	}{
		{name: "type", filter: FeedFilter{Type: "visio"}, want: []uuid.UUID{visio.ID}},
		{name: "category", filter: FeedFilter{Category: "talk"}, want: []uuid.UUID{visio.ID}},
		{name: "calendar day", filter: FeedFilter{Date: dayStart.Format("2006-01-02")}, want: []uuid.UUID{paid.ID, zero.ID}},
		{name: "free only", filter: FeedFilter{FreeOnly: true, Date: dayStart.Format("2006-01-02")}, want: []uuid.UUID{zero.ID}},
		{name: "malformed date is ignored", filter: FeedFilter{Date: "03/04/2026", Type: "real"}, want: []uuid.UUID{paid.ID, zero.ID, nextDay.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.activities.Feed(ctx, viewer.ID, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, feedIDs(page))
		})
	}

	_, err := env.activities.Feed(ctx, viewer.ID, FeedFilter{Type: "hybrid"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestFeed_CalendarDayUsesFeedTimezone(t *testing.T) {
	env := newTestEnv(t)
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	env.activities.location = loc

	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	day := time.Now().In(loc).AddDate(0, 0, 5)
	localMidnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	// 00:30 Paris time is still the previous day in UTC.
	early := testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Date = localMidnight.Add(30 * time.Minute).UTC()
	})
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
		a.Date = localMidnight.Add(-30 * time.Minute).UTC()
	})

	page, err := env.activities.Feed(context.Background(), viewer.ID, FeedFilter{Date: localMidnight.Format("2006-01-02")})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early.ID}, feedIDs(page))
}

func TestFeed_GeoRadius(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	paris := testutil.CreateActivity(t, env.db, host.ID, at(48.85, 2.35))
	testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) { a.Date = a.Date.Add(time.Hour) })

	// A point 10 km due north of the activity.
	lat := 48.85 + 10/(geo.EarthRadiusKm*math.Pi/180)
	lng := 2.35
	require.InDelta(t, 10, geo.DistanceKm(lng, lat, 2.35, 48.85), 0.01)

	ctx := context.Background()

	page, err := env.activities.Feed(ctx, viewer.ID, FeedFilter{Lat: &lat, Lng: &lng, RadiusKm: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Activities)
	assert.False(t, page.TotalExact)
	assert.Equal(t, int64(0), page.Total)

	page, err = env.activities.Feed(ctx, viewer.ID, FeedFilter{Lat: &lat, Lng: &lng, RadiusKm: 15})
	require.NoError(t, err)
	require.Len(t, page.Activities, 1)
	assert.Equal(t, paris.ID, page.Activities[0].ID)
	require.NotNil(t, page.Activities[0].DistanceKm)
	assert.Equal(t, 10.0, *page.Activities[0].DistanceKm)
	assert.Equal(t, int64(1), page.Total)
	assert.False(t, page.TotalExact)

	bad := 95.0
	_, err = env.activities.Feed(ctx, viewer.ID, FeedFilter{Lat: &bad, Lng: &lng})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestFeed_GeoBoxKeepsEveryTruePositive(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	lat, lng, radius := 64.1, -21.9, 30.0

	// Points just inside the radius in eight directions; the east/west ones
	// sit where the flat longitude delta is tightest.
	var want []uuid.UUID
	for i := 0; i < 8; i++ {
		bearing := float64(i) * math.Pi / 4
		plat, plng := destination(lat, lng, bearing, radius-0.05)
		a := testutil.CreateActivity(t, env.db, host.ID, at(plat, plng), func(a *model.Activity) {
			a.Date = a.Date.Add(time.Duration(i) * time.Minute)
		})
		want = append(want, a.ID)
	}

	page, err := env.activities.Feed(context.Background(), viewer.ID,
		FeedFilter{Lat: &lat, Lng: &lng, RadiusKm: radius, Page: Page{PerPage: 50}})
	require.NoError(t, err)
	assert.ElementsMatch(t, want, feedIDs(page))
}

func TestFeed_GeoPagesFollowBoxCount(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	lat, lng, radius := 48.85, 2.35, 10.0

	// North-east of the centre: inside the box corner, outside the radius.
	plat, plng := destination(lat, lng, math.Pi/4, radius*1.3)
	require.True(t, geo.BoundingBox(lat, lng, radius).Contains(plat, plng))
	testutil.CreateActivity(t, env.db, host.ID, at(plat, plng))

	page, err := env.activities.Feed(context.Background(), viewer.ID,
		FeedFilter{Lat: &lat, Lng: &lng, RadiusKm: radius})
	require.NoError(t, err)
	assert.Empty(t, page.Activities)
	assert.Equal(t, int64(0), page.Total)
	assert.False(t, page.TotalExact)
	assert.Equal(t, 1, page.Pages)
	assert.False(t, page.HasNext)
}

func TestFeed_Pagination(t *testing.T) {
	env := newTestEnv(t)
	host := testutil.CreateUser(t, env.db, "host")
	viewer := testutil.CreateUser(t, env.db, "viewer")
	for i := 0; i < 5; i++ {
		testutil.CreateActivity(t, env.db, host.ID, func(a *model.Activity) {
			a.Date = a.Date.Add(time.Duration(i) * time.Hour)
		})
	}

	ctx := context.Background()
	page, err := env.activities.Feed(ctx, viewer.ID, FeedFilter{Page: Page{Page: 2, PerPage: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Activities, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.True(t, page.HasNext)

	page, err = env.activities.Feed(ctx, viewer.ID, FeedFilter{Page: Page{Page: 3, PerPage: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Activities, 1)
	assert.False(t, page.HasNext)

	assert.Equal(t, Page{Page: 1, PerPage: 50}, Page{Page: 0, PerPage: 500}.normalize(20, 50))
	assert.Equal(t, Page{Page: 1, PerPage: 20}, Page{}.normalize(20, 50))
}

// destination moves distKm from (lat, lng) along bearing on the sphere.
func destination(lat, lng, bearing, distKm float64) (float64, float64) {
	toRad := math.Pi / 180
	d := distKm / geo.EarthRadiusKm
	phi1, lambda1 := lat*toRad, lng*toRad
	phi2 := math.Asin(math.Sin(phi1)*math.Cos(d) + math.Cos(phi1)*math.Sin(d)*math.Cos(bearing))
	lambda2 := lambda1 + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(phi1), math.Cos(d)-math.Sin(phi1)*math.Sin(phi2))
	return phi2 / toRad, lambda2 / toRad
}
