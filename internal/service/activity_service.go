package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocial/backend/internal/config"
	"gocial/backend/internal/model"
	"gocial/backend/internal/notify"
	"gocial/backend/internal/repository"
	"gocial/backend/internal/visibility"
	"gocial/backend/pkg/geo"
)

const (
	defaultMaxParticipants = 10
	defaultMinParticipants = 2
	defaultMinAge          = 18
	defaultMaxAge          = 99
)

type CreateActivityInput struct {
	Title        string
	Description  string
	ActivityType string
	Category     string
	Subcategory  string
	Date         string // RFC 3339

	DurationMinutes *int
	MinParticipants *int
	MaxParticipants *int
	MinAge          *int
	MaxAge          *int

	GenderRestriction string
	IsGirlsOnly       bool
	RequireApproval   *bool
	Visibility        string
	FriendsOnly       bool
	AcceptNonVerified *bool
	AcceptNonPremium  *bool
	Status            string

	Address      string
	City         string
	PostalCode   string
	MeetingPoint string
	Latitude     *float64
	Longitude    *float64

	VisioURL      string
	VisioPlatform string

	ImageURL string
	Price    *float64
	Currency string
}

// UpdateActivityInput is a partial update; nil fields are left unchanged.
type UpdateActivityInput struct {
	Title             *string
	Description       *string
	Category          *string
	Address           *string
	City              *string
	PostalCode        *string
	MaxParticipants   *int
	Price             *float64
	Visibility        *string
	Status            *string
	IsGirlsOnly       *bool
	GenderRestriction *string
	RequireApproval   *bool
	VisioURL          *string
	Date              *string
	Latitude          *float64
	Longitude         *float64
}

type ActivityService interface {
	Feed(ctx context.Context, viewerID uuid.UUID, filter FeedFilter) (*FeedPage, error)
	ListHosted(ctx context.Context, hostID uuid.UUID, includePast bool, page Page) (*ActivityPage, error)
	ListParticipating(ctx context.Context, userID uuid.UUID, status string, includePast bool, page Page) (*ActivityPage, error)
	ListLiked(ctx context.Context, userID uuid.UUID, page Page) (*ActivityPage, error)

	Create(ctx context.Context, hostID uuid.UUID, in CreateActivityInput) (*ActivityView, error)
	Get(ctx context.Context, viewerID, activityID uuid.UUID) (*ActivityDetail, error)
	Update(ctx context.Context, hostID, activityID uuid.UUID, in UpdateActivityInput) (*ActivityView, error)
	Cancel(ctx context.Context, hostID, activityID uuid.UUID, reason string) error

	// Like reports whether a new like was recorded.
	Like(ctx context.Context, userID, activityID uuid.UUID) (bool, error)
	Unlike(ctx context.Context, userID, activityID uuid.UUID) error
	Share(ctx context.Context, userID, activityID uuid.UUID) error
}

type activityService struct {
	activities     repository.ActivityRepository
	participations repository.ParticipationRepository
	likes          repository.LikeRepository
	users          repository.UserRepository
	friends        FriendService
	state          repository.StateStore
	notifier       notify.Notifier
	feedCfg        config.FeedConfig
	viewDedupTTL   time.Duration
	location       *time.Location
	logger         *zap.Logger
	now            func() time.Time
}

func NewActivityService(
	feedCfg config.FeedConfig,
	stateCfg config.StateConfig,
	activities repository.ActivityRepository,
	participations repository.ParticipationRepository,
	likes repository.LikeRepository,
	users repository.UserRepository,
	friends FriendService,
	state repository.StateStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) ActivityService {
	return &activityService{
		activities:     activities,
		participations: participations,
		likes:          likes,
		users:          users,
		friends:        friends,
		state:          state,
		notifier:       notifier,
		feedCfg:        feedCfg,
		viewDedupTTL:   stateCfg.ViewDedupTTL,
		location:       feedCfg.Location(),
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *activityService) Create(ctx context.Context, hostID uuid.UUID, in CreateActivityInput) (*ActivityView, error) {
	now := s.now()

	// 1. Required fields
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	activityType := model.ActivityType(strings.TrimSpace(in.ActivityType))
	if !activityType.Valid() {
		return nil, ErrInvalidType
	}
	date, err := parseFutureDate(in.Date, now)
	if err != nil {
		return nil, err
	}

	a := &model.Activity{
		HostID:              hostID,
		Title:               title,
		Description:         strings.TrimSpace(in.Description),
		ActivityType:        activityType,
		Category:            strings.TrimSpace(in.Category),
		Subcategory:         strings.TrimSpace(in.Subcategory),
		Date:                date,
		DurationMinutes:     in.DurationMinutes,
		MinParticipants:     intOr(in.MinParticipants, defaultMinParticipants),
		MaxParticipants:     intOr(in.MaxParticipants, defaultMaxParticipants),
		CurrentParticipants: 1,
		MinAge:              intOr(in.MinAge, defaultMinAge),
		MaxAge:              intOr(in.MaxAge, defaultMaxAge),
		GenderRestriction:   model.GenderAll,
		FriendsOnly:         in.FriendsOnly,
		AcceptNonVerified:   boolOr(in.AcceptNonVerified, true),
		AcceptNonPremium:    boolOr(in.AcceptNonPremium, true),
		ValidationType:      model.ValidationManual,
		Visibility:          model.VisibilityPublic,
		ImageURL:            strings.TrimSpace(in.ImageURL),
		Price:               in.Price,
		Currency:            "EUR",
		Status:              model.ActivityStatusPublished,
	}

	// 2. Optional settings
	if in.DurationMinutes != nil {
		end := date.Add(time.Duration(*in.DurationMinutes) * time.Minute)
		a.EndDate = &end
	}
	if in.IsGirlsOnly {
		a.GenderRestriction = model.GenderFemale
	} else if in.GenderRestriction != "" {
		a.GenderRestriction = model.GenderRestriction(in.GenderRestriction)
		if !a.GenderRestriction.Valid() {
			return nil, ErrInvalidGender
		}
	}
	if !boolOr(in.RequireApproval, true) {
		a.ValidationType = model.ValidationAuto
	}
	if in.Visibility != "" {
		v, ok := model.ParseVisibility(in.Visibility)
		if !ok {
			return nil, ErrInvalidVisibility
		}
		a.Visibility = v
	}
	switch model.ActivityStatus(in.Status) {
	case "", model.ActivityStatusPublished:
		a.PublishedAt = &now
	case model.ActivityStatusDraft:
		a.Status = model.ActivityStatusDraft
	default:
		return nil, ErrInvalidStatus
	}
	if in.Currency != "" {
		a.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	}
	a.IsPaid = !a.IsFree()

	if a.MaxParticipants < 2 || a.MinParticipants < 1 || a.MinParticipants > a.MaxParticipants {
		return nil, ErrInvalidCapacity
	}

	// 3. Location XOR visio link
	switch activityType {
	case model.ActivityTypeReal:
		a.Address = strings.TrimSpace(in.Address)
		a.City = strings.TrimSpace(in.City)
		a.PostalCode = strings.TrimSpace(in.PostalCode)
		a.MeetingPoint = strings.TrimSpace(in.MeetingPoint)
		if in.Latitude != nil && in.Longitude != nil {
			if !geo.ValidCoordinates(*in.Latitude, *in.Longitude) {
				return nil, ErrInvalidCoordinates
			}
			a.Latitude, a.Longitude = in.Latitude, in.Longitude
		}
	case model.ActivityTypeVisio:
		a.VisioURL = strings.TrimSpace(in.VisioURL)
		a.VisioPlatform = strings.TrimSpace(in.VisioPlatform)
	}

	// 4. Persist
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, surface(s.logger, dbErr("create activity", err))
	}

	s.logger.Info("activity created",
		zap.String("activity_id", a.ID.String()),
		zap.String("host_id", hostID.String()),
	)
	view := newActivityView(a, now)
	view.ViewerInfo.IsHost = true
	return &view, nil
}

func (s *activityService) Get(ctx context.Context, viewerID, activityID uuid.UUID) (*ActivityDetail, error) {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return nil, surface(s.logger, err)
	}

	friends, err := s.friends.Friends(ctx, viewerID)
	if err != nil {
		return nil, surface(s.logger, dbErr("load friends", err))
	}
	if !visibility.IsVisible(activity, viewerID, friends) {
		return nil, ErrActivityNotFound
	}

	s.countView(ctx, activity, viewerID)

	views, err := s.decorate(ctx, viewerID, []model.Activity{*activity})
	if err != nil {
		return nil, surface(s.logger, err)
	}
	detail := &ActivityDetail{ActivityView: views[0]}

	var own *model.Participation
	if mp := detail.MyParticipation; mp != nil {
		own = &model.Participation{UserID: viewerID, Status: mp.Status}
	}
	if visibility.CanViewRoster(activity, viewerID, own) {
		status := model.ParticipationValidated
		rows, err := s.participations.ListByActivity(ctx, activityID, &status)
		if err != nil {
			return nil, surface(s.logger, dbErr("list roster", err))
		}
		now := s.now()
		detail.Participants = make([]RosterEntry, 0, len(rows))
		for i := range rows {
			detail.Participants = append(detail.Participants, RosterEntry{
				User:     model.ProfileOf(rows[i].User, now),
				JoinedAt: rows[i].ValidatedAt,
			})
		}
	}
	return detail, nil
}

// countView increments views_count at most once per viewer within the dedup
// TTL. Hosts do not count. Failures are logged and ignored.
func (s *activityService) countView(ctx context.Context, activity *model.Activity, viewerID uuid.UUID) {
	if activity.HostID == viewerID {
		return
	}
	if s.viewDedupTTL > 0 {
		key := fmt.Sprintf("view:%s:%s", activity.ID, viewerID)
		first, err := s.state.SetNX(ctx, key, []byte("1"), s.viewDedupTTL)
		if err != nil {
			s.logger.Warn("view dedup failed", zap.Error(err))
			return
		}
		if !first {
			return
		}
	}
	if err := s.activities.IncrementViews(ctx, activity.ID); err != nil {
		s.logger.Warn("view count failed", zap.Error(err))
		return
	}
	activity.ViewsCount++
}

func (s *activityService) Update(ctx context.Context, hostID, activityID uuid.UUID, in UpdateActivityInput) (*ActivityView, error) {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return nil, surface(s.logger, err)
	}
	if err := requireHost(ctx, s.friends, activity, hostID); err != nil {
		return nil, surface(s.logger, err)
	}

	now := s.now()
	var updated *model.Activity
	err = s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.activities.GetByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			return dbErr("lock activity", err)
		}
		if err := applyUpdate(locked, in, now); err != nil {
			return err
		}
		if err := s.activities.Save(ctx, tx, locked); err != nil {
			return dbErr("save activity", err)
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, surface(s.logger, err)
	}

	view := newActivityView(updated, now)
	view.ViewerInfo.IsHost = true
	return &view, nil
}

// applyUpdate runs on the locked row so the capacity and the published/full
// status are derived from the current participant count.
func applyUpdate(a *model.Activity, in UpdateActivityInput, now time.Time) error {
	if a.Status == model.ActivityStatusCancelled || a.Status == model.ActivityStatusCompleted {
		return ErrActivityClosed
	}
	// Location XOR visio link, as on creation.
	setsLocation := in.Address != nil || in.City != nil || in.PostalCode != nil ||
		in.Latitude != nil || in.Longitude != nil
	if (a.ActivityType == model.ActivityTypeVisio && setsLocation) ||
		(a.ActivityType == model.ActivityTypeReal && in.VisioURL != nil) {
		return ErrLocationMismatch
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return ErrTitleRequired
		}
		a.Title = title
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		a.Category = strings.TrimSpace(*in.Category)
	}
	if in.Address != nil {
		a.Address = strings.TrimSpace(*in.Address)
	}
	if in.City != nil {
		a.City = strings.TrimSpace(*in.City)
	}
	if in.PostalCode != nil {
		a.PostalCode = strings.TrimSpace(*in.PostalCode)
	}
	if in.Price != nil {
		a.Price = in.Price
		a.IsPaid = !a.IsFree()
	}
	if in.Visibility != nil {
		v, ok := model.ParseVisibility(*in.Visibility)
		if !ok {
			return ErrInvalidVisibility
		}
		a.Visibility = v
	}
	if in.IsGirlsOnly != nil {
		a.GenderRestriction = model.GenderAll
		if *in.IsGirlsOnly {
			a.GenderRestriction = model.GenderFemale
		}
	}
	if in.GenderRestriction != nil {
		g := model.GenderRestriction(*in.GenderRestriction)
		if !g.Valid() {
			return ErrInvalidGender
		}
		a.GenderRestriction = g
	}
	if in.RequireApproval != nil {
		a.ValidationType = model.ValidationManual
		if !*in.RequireApproval {
			a.ValidationType = model.ValidationAuto
		}
	}
	if in.VisioURL != nil {
		a.VisioURL = strings.TrimSpace(*in.VisioURL)
	}
	if in.Date != nil {
		date, err := parseFutureDate(*in.Date, now)
		if err != nil {
			return err
		}
		if a.EndDate != nil && a.DurationMinutes != nil {
			end := date.Add(time.Duration(*a.DurationMinutes) * time.Minute)
			a.EndDate = &end
		}
		a.Date = date
	}
	if in.Latitude != nil && in.Longitude != nil {
		if !geo.ValidCoordinates(*in.Latitude, *in.Longitude) {
			return ErrInvalidCoordinates
		}
		a.Latitude, a.Longitude = in.Latitude, in.Longitude
	}

	if in.Status != nil {
		next := model.ActivityStatus(*in.Status)
		switch {
		case next == a.Status:
		case a.Status == model.ActivityStatusDraft && next == model.ActivityStatusPublished:
			a.Status = model.ActivityStatusPublished
			a.PublishedAt = &now
		default:
			return ErrInvalidStatus
		}
	}

	if in.MaxParticipants != nil {
		limit := *in.MaxParticipants
		if limit < 2 || limit < a.MinParticipants {
			return ErrInvalidCapacity
		}
		if limit < a.CurrentParticipants {
			return ErrCapacityBelowCount
		}
		a.MaxParticipants = limit
		switch {
		case a.Status == model.ActivityStatusPublished && a.IsFull():
			a.Status = model.ActivityStatusFull
		case a.Status == model.ActivityStatusFull && !a.IsFull():
			a.Status = model.ActivityStatusPublished
		}
	}
	return nil
}

func (s *activityService) Cancel(ctx context.Context, hostID, activityID uuid.UUID, reason string) error {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return surface(s.logger, err)
	}
	if err := requireHost(ctx, s.friends, activity, hostID); err != nil {
		return surface(s.logger, err)
	}

	var cancelled bool
	err = s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.activities.GetByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			return dbErr("lock activity", err)
		}
		if locked.Status == model.ActivityStatusCancelled {
			return nil
		}
		if !locked.Status.CanTransitionTo(model.ActivityStatusCancelled) {
			return ErrInvalidStatus
		}
		locked.Status = model.ActivityStatusCancelled
		locked.CancelledReason = strings.TrimSpace(reason)
		if err := s.activities.Save(ctx, tx, locked); err != nil {
			return dbErr("cancel activity", err)
		}
		activity = locked
		cancelled = true
		return nil
	})
	if err != nil {
		return surface(s.logger, err)
	}
	if !cancelled {
		return nil
	}

	s.logger.Info("activity cancelled", zap.String("activity_id", activityID.String()))

	// Participations are left untouched; participants are told.
	userIDs, err := s.participations.ListUserIDs(ctx, activityID,
		model.ParticipationValidated, model.ParticipationPending)
	if err != nil {
		s.logger.Warn("could not list participants to notify", zap.Error(err))
		return nil
	}
	for _, id := range userIDs {
		s.notifier.Notify(ctx, notify.Event{
			UserID:  id,
			ActorID: &hostID,
			Type:    model.NotifActivityCancelled,
			Title:   "Activity cancelled",
			Body:    fmt.Sprintf("%q has been cancelled", activity.Title),
			Data:    activityData(activity),
		})
	}
	return nil
}

func (s *activityService) Like(ctx context.Context, userID, activityID uuid.UUID) (bool, error) {
	if _, err := s.visibleActivity(ctx, userID, activityID); err != nil {
		return false, err
	}

	var created bool
	err := s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.likes.Find(ctx, tx, userID, activityID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dbErr("find like", err)
		}

		err = s.likes.Create(ctx, tx, &model.ActivityLike{UserID: userID, ActivityID: activityID})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		if err != nil {
			return dbErr("create like", err)
		}
		if err := s.activities.AddLikes(ctx, tx, activityID, 1); err != nil {
			return dbErr("count like", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, surface(s.logger, err)
	}
	return created, nil
}

func (s *activityService) Unlike(ctx context.Context, userID, activityID uuid.UUID) error {
	if _, err := s.visibleActivity(ctx, userID, activityID); err != nil {
		return err
	}
	err := s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like, err := s.likes.Find(ctx, tx, userID, activityID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return dbErr("find like", err)
		}
		if err := s.likes.Delete(ctx, tx, like); err != nil {
			return dbErr("delete like", err)
		}
		if err := s.activities.AddLikes(ctx, tx, activityID, -1); err != nil {
			return dbErr("count like", err)
		}
		return nil
	})
	return surface(s.logger, err)
}

func (s *activityService) Share(ctx context.Context, userID, activityID uuid.UUID) error {
	if _, err := s.visibleActivity(ctx, userID, activityID); err != nil {
		return err
	}
	if err := s.activities.IncrementShares(ctx, activityID); err != nil {
		return surface(s.logger, dbErr("count share", err))
	}
	return nil
}

func (s *activityService) visibleActivity(ctx context.Context, viewerID, activityID uuid.UUID) (*model.Activity, error) {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return nil, surface(s.logger, err)
	}
	friends, err := s.friends.Friends(ctx, viewerID)
	if err != nil {
		return nil, surface(s.logger, dbErr("load friends", err))
	}
	if !visibility.IsVisible(activity, viewerID, friends) {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

func (s *activityService) ListHosted(ctx context.Context, hostID uuid.UUID, includePast bool, page Page) (*ActivityPage, error) {
	page = page.normalize(s.feedCfg.DefaultPerPage, s.feedCfg.MaxPerPage)
	rows, total, err := s.activities.ListHosted(ctx, hostID, includePast, s.now(), page.offset(), page.PerPage)
	if err != nil {
		return nil, surface(s.logger, dbErr("list hosted", err))
	}
	return s.pageOf(ctx, hostID, rows, total, page)
}

// ListParticipating accepts a participation status or "all"; empty means
// validated.
func (s *activityService) ListParticipating(
	ctx context.Context, userID uuid.UUID, status string, includePast bool, page Page,
) (*ActivityPage, error) {
	q := repository.ParticipatingQuery{UserID: userID, IncludePast: includePast, Now: s.now()}
	switch status {
	case "":
		q.Statuses = []model.ParticipationStatus{model.ParticipationValidated}
	case "all":
	default:
		st := model.ParticipationStatus(status)
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		q.Statuses = []model.ParticipationStatus{st}
	}

	page = page.normalize(s.feedCfg.DefaultPerPage, s.feedCfg.MaxPerPage)
	q.Offset, q.Limit = page.offset(), page.PerPage
	rows, total, err := s.activities.ListParticipating(ctx, q)
	if err != nil {
		return nil, surface(s.logger, dbErr("list participating", err))
	}
	return s.pageOf(ctx, userID, rows, total, page)
}

func (s *activityService) ListLiked(ctx context.Context, userID uuid.UUID, page Page) (*ActivityPage, error) {
	page = page.normalize(s.feedCfg.DefaultPerPage, s.feedCfg.MaxPerPage)
	rows, total, err := s.activities.ListLiked(ctx, userID, page.offset(), page.PerPage)
	if err != nil {
		return nil, surface(s.logger, dbErr("list liked", err))
	}
	return s.pageOf(ctx, userID, rows, total, page)
}

func (s *activityService) pageOf(
	ctx context.Context, viewerID uuid.UUID, rows []model.Activity, total int64, page Page,
) (*ActivityPage, error) {
	views, err := s.decorate(ctx, viewerID, rows)
	if err != nil {
		return nil, surface(s.logger, err)
	}
	p := newActivityPage(views, total, page)
	return &p, nil
}

// decorate builds viewer-specific views with three batched lookups: hosts,
// likes and the viewer's own participations.
func (s *activityService) decorate(ctx context.Context, viewerID uuid.UUID, rows []model.Activity) ([]ActivityView, error) {
	if len(rows) == 0 {
		return []ActivityView{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	hostIDs := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]bool, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		if !seen[rows[i].HostID] {
			seen[rows[i].HostID] = true
			hostIDs = append(hostIDs, rows[i].HostID)
		}
	}

	hosts, err := s.users.GetByIDs(ctx, hostIDs)
	if err != nil {
		return nil, dbErr("load hosts", err)
	}
	liked, err := s.likes.LikedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, dbErr("load likes", err)
	}
	mine, err := s.participations.ListByUserForActivities(ctx, viewerID, ids)
	if err != nil {
		return nil, dbErr("load participations", err)
	}
	byActivity := make(map[uuid.UUID]*model.Participation, len(mine))
	for i := range mine {
		byActivity[mine[i].ActivityID] = &mine[i]
	}

	now := s.now()
	views := make([]ActivityView, len(rows))
	for i := range rows {
		a := &rows[i]
		v := newActivityView(a, now)
		v.Host = model.ProfileOf(hosts[a.HostID], now)
		v.ViewerInfo = ViewerInfo{IsHost: a.HostID == viewerID, IsLiked: liked[a.ID]}
		if p, ok := byActivity[a.ID]; ok {
			status := p.Status
			v.ViewerInfo.ParticipationStatus = &status
			v.MyParticipation = &MyParticipation{Status: p.Status, RequestedAt: p.CreatedAt}
		}
		views[i] = v
	}
	return views, nil
}

func parseFutureDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrDateRequired
	}
	date, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	date = date.UTC()
	if date.Before(now) {
		return time.Time{}, ErrDateInPast
	}
	return date, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
