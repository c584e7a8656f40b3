package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
	"gocial/backend/internal/repository"
	"gocial/backend/pkg/geo"
)

// FeedFilter is the viewer's feed request. Lat and Lng enable the geo
// filter only when both are set.
type FeedFilter struct {
	Type      string
	Category  string
	Date      string // YYYY-MM-DD in the feed time zone
	Lat       *float64
	Lng       *float64
	RadiusKm  float64
	GirlsOnly bool
	FreeOnly  bool
	Page      Page
}

func (s *activityService) Feed(ctx context.Context, viewerID uuid.UUID, filter FeedFilter) (*FeedPage, error) {
	now := s.now()
	page := filter.Page.normalize(s.feedCfg.DefaultPerPage, s.feedCfg.MaxPerPage)
	q := repository.FeedQuery{
		ViewerID: viewerID,
		Now:      now,
		Category: strings.TrimSpace(filter.Category),
		FreeOnly: filter.FreeOnly,
		Offset:   page.offset(),
		Limit:    page.PerPage,
	}

	// 1. Scalar filters
	if t := strings.TrimSpace(filter.Type); t != "" {
		q.Type = model.ActivityType(t)
		if !q.Type.Valid() {
			return nil, ErrInvalidType
		}
	}
	if from, to, ok := s.dayRange(filter.Date); ok {
		q.From, q.To = &from, &to
	}

	// 2. Girls-only, by request or by the viewer's own preference
	q.FemaleOnly = filter.GirlsOnly
	if !q.FemaleOnly {
		viewer, err := s.users.GetByID(ctx, viewerID)
		switch {
		case err == nil:
			q.FemaleOnly = viewer.GirlsOnlyMode
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, surface(s.logger, dbErr("load viewer", err))
		}
	}

	// 3. Bounding box pre-filter
	geoMode := filter.Lat != nil && filter.Lng != nil
	radius := filter.RadiusKm
	if geoMode {
		if !geo.ValidCoordinates(*filter.Lat, *filter.Lng) {
			return nil, ErrInvalidCoordinates
		}
		if radius <= 0 {
			radius = s.feedCfg.DefaultRadiusKm
		}
		box := geo.BoundingBox(*filter.Lat, *filter.Lng, radius)
		q.Box = &box
	}

	// 4. Visibility
	friends, err := s.friends.Friends(ctx, viewerID)
	if err != nil {
		return nil, surface(s.logger, dbErr("load friends", err))
	}
	q.Friends = friends

	rows, total, err := s.activities.Feed(ctx, q)
	if err != nil {
		return nil, surface(s.logger, dbErr("feed query", err))
	}

	// 5. Exact distance pass on the fetched page
	var distances map[uuid.UUID]float64
	if geoMode {
		distances = make(map[uuid.UUID]float64, len(rows))
		kept := rows[:0]
		for _, a := range rows {
			if !a.HasLocation() {
				continue
			}
			d := geo.DistanceKm(*filter.Lng, *filter.Lat, *a.Longitude, *a.Latitude)
			if d > radius {
				continue
			}
			distances[a.ID] = geo.RoundKm(d)
			kept = append(kept, a)
		}
		rows = kept
	}

	views, err := s.decorate(ctx, viewerID, rows)
	if err != nil {
		return nil, surface(s.logger, err)
	}
	for i := range views {
		if d, ok := distances[views[i].ID]; ok {
			views[i].DistanceKm = &d
		}
	}

	result := &FeedPage{ActivityPage: newActivityPage(views, total, page), TotalExact: true}
	if geoMode {
		// The storage total counts bounding-box hits, not radius hits.
		result.Total = int64(len(views))
		result.TotalExact = false
	}
	return result, nil
}

// dayRange turns YYYY-MM-DD into [midnight, next midnight) in the feed time
// zone. Malformed input disables the filter.
func (s *activityService) dayRange(raw string) (time.Time, time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", raw, s.location)
	if err != nil {
		s.logger.Debug("ignoring malformed feed date", zap.String("date", raw))
		return time.Time{}, time.Time{}, false
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), true
}
