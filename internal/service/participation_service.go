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

	"gocial/backend/internal/model"
	"gocial/backend/internal/notify"
	"gocial/backend/internal/repository"
	"gocial/backend/internal/visibility"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

type ParticipantEntry struct {
	User        model.Profile `json:"user"`
	Message     string        `json:"message,omitempty"`
	RequestedAt time.Time     `json:"requested_at"`
	ValidatedAt *time.Time    `json:"validated_at,omitempty"`
}

// ParticipantList groups an activity's participations by status.
type ParticipantList struct {
	Validated []ParticipantEntry `json:"validated"`
	Pending   []ParticipantEntry `json:"pending"`
	Rejected  []ParticipantEntry `json:"rejected"`
	Cancelled []ParticipantEntry `json:"cancelled"`
}

type ParticipationService interface {
	Request(ctx context.Context, activityID, userID uuid.UUID, message string) (*model.Participation, error)
	Decide(ctx context.Context, activityID, hostID, userID uuid.UUID, action, response string) (*model.Participation, error)
	Accept(ctx context.Context, activityID, hostID, userID uuid.UUID, response string) (*model.Participation, error)
	Reject(ctx context.Context, activityID, hostID, userID uuid.UUID, response string) (*model.Participation, error)
	Cancel(ctx context.Context, activityID, userID uuid.UUID) error
	ListParticipants(ctx context.Context, activityID, hostID uuid.UUID) (*ParticipantList, error)
	RateHost(ctx context.Context, activityID, participantID uuid.UUID, rating int, review string) error
	RateParticipant(ctx context.Context, activityID, hostID, userID uuid.UUID, rating int, review string) error
}

type participationService struct {
	activities     repository.ActivityRepository
	participations repository.ParticipationRepository
	users          repository.UserRepository
	friends        FriendService
	notifier       notify.Notifier
	logger         *zap.Logger
	now            func() time.Time
}

func NewParticipationService(
	activities repository.ActivityRepository,
	participations repository.ParticipationRepository,
	users repository.UserRepository,
	friends FriendService,
	notifier notify.Notifier,
	logger *zap.Logger,
) ParticipationService {
	return &participationService{
		activities:     activities,
		participations: participations,
		users:          users,
		friends:        friends,
		notifier:       notifier,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *participationService) Request(ctx context.Context, activityID, userID uuid.UUID, message string) (*model.Participation, error) {
	// 1. Load the requester and the activity
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, surface(s.logger, dbErr("load requester", err))
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return nil, surface(s.logger, err)
	}

	// 2. Hidden activities do not exist for the requester
	friends, err := s.friends.Friends(ctx, userID)
	if err != nil {
		return nil, surface(s.logger, dbErr("load friends", err))
	}
	if !visibility.IsVisible(activity, userID, friends) {
		return nil, ErrActivityNotFound
	}

	// 3. Cheap checks on the unlocked copy
	now := s.now()
	if err := checkJoinable(activity, userID, now); err != nil {
		return nil, err
	}
	if err := checkRestrictions(activity, user, friends, now); err != nil {
		return nil, err
	}

	// 4. Create or revive the participation under the activity row lock
	var result *model.Participation
	err = s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.activities.GetByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			return dbErr("lock activity", err)
		}
		if err := checkJoinable(locked, userID, now); err != nil {
			return err
		}

		p, err := s.participations.FindByUserAndActivity(ctx, tx, userID, activityID)
		switch {
		case err == nil:
			if err := existingParticipationErr(p.Status); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = &model.Participation{UserID: userID, ActivityID: activityID}
		default:
			return dbErr("find participation", err)
		}

		p.RequestMessage = strings.TrimSpace(message)
		p.ResponseMessage = ""
		p.Status = model.ParticipationPending
		p.ValidatedAt = nil

		if locked.ValidationType == model.ValidationAuto {
			ok, err := s.activities.IncrementParticipants(ctx, tx, activityID)
			if err != nil {
				return dbErr("increment participants", err)
			}
			if !ok {
				return ErrActivityFull
			}
			p.Status = model.ParticipationValidated
			p.ValidatedAt = &now
		}

		if p.ID == uuid.Nil {
			err = s.participations.Create(ctx, tx, p)
		} else {
			err = s.participations.Save(ctx, tx, p)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request for the same pair won the insert.
			if p.Status == model.ParticipationValidated {
				return ErrAlreadyParticipating
			}
			return ErrRequestPending
		}
		if err != nil {
			return dbErr("save participation", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, surface(s.logger, err)
	}

	// 5. Tell the host
	event := notify.Event{
		UserID:  activity.HostID,
		ActorID: &userID,
		Type:    model.NotifParticipationRequest,
		Title:   "New participation request",
		Body:    fmt.Sprintf("%s wants to join %q", user.Pseudo, activity.Title),
		Data:    activityData(activity),
	}
	if result.Status == model.ParticipationValidated {
		event.Type = model.NotifParticipationJoined
		event.Title = "New participant"
		event.Body = fmt.Sprintf("%s joined %q", user.Pseudo, activity.Title)
	}
	s.notifier.Notify(ctx, event)

	return result, nil
}

func (s *participationService) Decide(
	ctx context.Context, activityID, hostID, userID uuid.UUID, action, response string,
) (*model.Participation, error) {
	switch action {
	case ActionAccept:
		return s.Accept(ctx, activityID, hostID, userID, response)
	case ActionReject:
		return s.Reject(ctx, activityID, hostID, userID, response)
	default:
		return nil, ErrInvalidAction
	}
}

func (s *participationService) Accept(
	ctx context.Context, activityID, hostID, userID uuid.UUID, response string,
) (*model.Participation, error) {
	activity, err := s.hostActivity(ctx, activityID, hostID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var result *model.Participation
	err = s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.activities.GetByIDForUpdate(ctx, tx, activityID)
		if err != nil {
			return dbErr("lock activity", err)
		}

		p, err := s.participations.FindByUserAndActivity(ctx, tx, userID, activityID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParticipationMissing
		}
		if err != nil {
			return dbErr("find participation", err)
		}
		if p.Status != model.ParticipationPending {
			return ErrNotPending
		}

		// Pending requests hold no slot, so capacity is checked again here.
		if !locked.Status.Open() {
			return ErrActivityClosed
		}
		if locked.IsPast(now) {
			return ErrActivityPast
		}
		ok, err := s.activities.IncrementParticipants(ctx, tx, activityID)
		if err != nil {
			return dbErr("increment participants", err)
		}
		if !ok {
			return ErrActivityFull
		}

		p.Status = model.ParticipationValidated
		p.ValidatedAt = &now
		p.ResponseMessage = response
		if err := s.participations.Save(ctx, tx, p); err != nil {
			return dbErr("save participation", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, surface(s.logger, err)
	}

	s.notifier.Notify(ctx, notify.Event{
		UserID:  userID,
		ActorID: &hostID,
		Type:    model.NotifParticipationAccepted,
		Title:   "Request accepted",
		Body:    fmt.Sprintf("You are in for %q", activity.Title),
		Data:    activityData(activity),
	})
	return result, nil
}

func (s *participationService) Reject(
	ctx context.Context, activityID, hostID, userID uuid.UUID, response string,
) (*model.Participation, error) {
	activity, err := s.hostActivity(ctx, activityID, hostID)
	if err != nil {
		return nil, err
	}

	var result *model.Participation
	err = s.participations.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.participations.FindByUserAndActivity(ctx, tx, userID, activityID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParticipationMissing
		}
		if err != nil {
			return dbErr("find participation", err)
		}
		if p.Status != model.ParticipationPending {
			return ErrNotPending
		}

		p.Status = model.ParticipationRejected
		p.ResponseMessage = response
		if err := s.participations.Save(ctx, tx, p); err != nil {
			return dbErr("save participation", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, surface(s.logger, err)
	}

	s.notifier.Notify(ctx, notify.Event{
		UserID:  userID,
		ActorID: &hostID,
		Type:    model.NotifParticipationRejected,
		Title:   "Request declined",
		Body:    fmt.Sprintf("Your request for %q was declined", activity.Title),
		Data:    activityData(activity),
	})
	return result, nil
}

// Cancel withdraws the caller's participation. The row is kept with status
// cancelled; a validated participant frees their slot.
func (s *participationService) Cancel(ctx context.Context, activityID, userID uuid.UUID) error {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return surface(s.logger, err)
	}

	err = s.activities.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.activities.GetByIDForUpdate(ctx, tx, activityID); err != nil {
			return dbErr("lock activity", err)
		}

		p, err := s.participations.FindByUserAndActivity(ctx, tx, userID, activityID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotParticipating
		}
		if err != nil {
			return dbErr("find participation", err)
		}

		switch p.Status {
		case model.ParticipationValidated:
			if err := s.activities.DecrementParticipants(ctx, tx, activityID); err != nil {
				return dbErr("decrement participants", err)
			}
		case model.ParticipationPending:
		default:
			return ErrNotParticipating
		}

		p.Status = model.ParticipationCancelled
		p.ValidatedAt = nil
		if err := s.participations.Save(ctx, tx, p); err != nil {
			return dbErr("save participation", err)
		}
		return nil
	})
	if err != nil {
		return surface(s.logger, err)
	}

	s.notifier.Notify(ctx, notify.Event{
		UserID:  activity.HostID,
		ActorID: &userID,
		Type:    model.NotifParticipationCancelled,
		Title:   "Participation cancelled",
		Body:    fmt.Sprintf("A participant left %q", activity.Title),
		Data:    activityData(activity),
	})
	return nil
}

func (s *participationService) ListParticipants(ctx context.Context, activityID, hostID uuid.UUID) (*ParticipantList, error) {
	if _, err := s.hostActivity(ctx, activityID, hostID); err != nil {
		return nil, err
	}

	rows, err := s.participations.ListByActivity(ctx, activityID, nil)
	if err != nil {
		return nil, surface(s.logger, dbErr("list participations", err))
	}

	now := s.now()
	list := &ParticipantList{
		Validated: []ParticipantEntry{},
		Pending:   []ParticipantEntry{},
		Rejected:  []ParticipantEntry{},
		Cancelled: []ParticipantEntry{},
	}
	for i := range rows {
		p := &rows[i]
		entry := ParticipantEntry{
			User:        model.ProfileOf(p.User, now),
			Message:     p.RequestMessage,
			RequestedAt: p.CreatedAt,
			ValidatedAt: p.ValidatedAt,
		}
		switch p.Status {
		case model.ParticipationValidated:
			list.Validated = append(list.Validated, entry)
		case model.ParticipationPending:
			list.Pending = append(list.Pending, entry)
		case model.ParticipationRejected:
			list.Rejected = append(list.Rejected, entry)
		case model.ParticipationCancelled:
			list.Cancelled = append(list.Cancelled, entry)
		}
	}
	return list, nil
}

// RateHost records the participant's rating of the host.
func (s *participationService) RateHost(ctx context.Context, activityID, participantID uuid.UUID, rating int, review string) error {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return surface(s.logger, err)
	}
	return s.rate(ctx, activity, participantID, rating, func(p *model.Participation) {
		p.HostRating = &rating
		p.HostReview = review
	})
}

// RateParticipant records the host's rating of a participant.
func (s *participationService) RateParticipant(
	ctx context.Context, activityID, hostID, userID uuid.UUID, rating int, review string,
) error {
	activity, err := s.hostActivity(ctx, activityID, hostID)
	if err != nil {
		return err
	}
	return s.rate(ctx, activity, userID, rating, func(p *model.Participation) {
		p.ParticipantRating = &rating
		p.ParticipantReview = review
	})
}

func (s *participationService) rate(
	ctx context.Context, activity *model.Activity, userID uuid.UUID, rating int, apply func(*model.Participation),
) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	now := s.now()
	if !activity.IsPast(now) {
		return ErrActivityNotPast
	}

	db := s.participations.GetDB()
	p, err := s.participations.FindByUserAndActivity(ctx, db, userID, activity.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotParticipating
	}
	if err != nil {
		return surface(s.logger, dbErr("find participation", err))
	}
	if p.Status != model.ParticipationValidated {
		return ErrNotValidated
	}

	apply(p)
	p.RatedAt = &now
	if err := s.participations.Save(ctx, db, p); err != nil {
		return surface(s.logger, dbErr("save rating", err))
	}
	return nil
}

// hostActivity loads an activity for a host-only operation. Callers who
// cannot see the activity get ErrActivityNotFound, the others ErrNotHost.
func (s *participationService) hostActivity(ctx context.Context, activityID, callerID uuid.UUID) (*model.Activity, error) {
	activity, err := loadActivity(ctx, s.activities, activityID)
	if err != nil {
		return nil, surface(s.logger, err)
	}
	if err := requireHost(ctx, s.friends, activity, callerID); err != nil {
		return nil, surface(s.logger, err)
	}
	return activity, nil
}

func loadActivity(ctx context.Context, repo repository.ActivityRepository, id uuid.UUID) (*model.Activity, error) {
	activity, err := repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, dbErr("load activity", err)
	}
	return activity, nil
}

func requireHost(ctx context.Context, friends FriendService, activity *model.Activity, callerID uuid.UUID) error {
	if activity.HostID == callerID {
		return nil
	}
	set, err := friends.Friends(ctx, callerID)
	if err != nil {
		return dbErr("load friends", err)
	}
	if !visibility.IsVisible(activity, callerID, set) {
		return ErrActivityNotFound
	}
	return ErrNotHost
}

// checkJoinable holds the guards that depend on the activity row alone.
func checkJoinable(a *model.Activity, userID uuid.UUID, now time.Time) error {
	switch {
	case a.HostID == userID:
		return ErrSelfJoin
	case !a.Status.Open():
		return ErrActivityClosed
	case a.IsFull():
		return ErrActivityFull
	case a.IsPast(now):
		return ErrActivityPast
	}
	return nil
}

func existingParticipationErr(status model.ParticipationStatus) error {
	switch status {
	case model.ParticipationValidated:
		return ErrAlreadyParticipating
	case model.ParticipationPending:
		return ErrRequestPending
	case model.ParticipationRejected:
		return ErrRequestRejected
	}
	return nil
}

func checkRestrictions(a *model.Activity, u *model.User, friends visibility.FriendSet, now time.Time) error {
	if a.FriendsOnly && !friends.Has(a.HostID) {
		return ErrFriendsOnly
	}
	if !a.AcceptNonVerified && !u.IsVerified {
		return ErrVerificationRequired
	}
	if !a.AcceptNonPremium && !u.IsPremium {
		return ErrPremiumRequired
	}
	switch a.GenderRestriction {
	case model.GenderFemale, model.GenderMale:
		if u.Gender != string(a.GenderRestriction) {
			return ErrGenderRestricted
		}
	}
	if age := u.Age(now); age != nil {
		if *age < a.MinAge || (a.MaxAge > 0 && *age > a.MaxAge) {
			return ErrAgeRestricted
		}
	}
	return nil
}

func activityData(a *model.Activity) map[string]interface{} {
	return map[string]interface{}{
		"activity_id": a.ID.String(),
		"title":       a.Title,
		"date":        a.Date.Format(time.RFC3339),
	}
}
