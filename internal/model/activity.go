package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityTypeReal  ActivityType = "real"
	ActivityTypeVisio ActivityType = "visio"
)

func (t ActivityType) Valid() bool {
	return t == ActivityTypeReal || t == ActivityTypeVisio
}

type ActivityStatus string

const (
	ActivityStatusDraft     ActivityStatus = "draft"
	ActivityStatusPublished ActivityStatus = "published"
	ActivityStatusFull      ActivityStatus = "full"
	ActivityStatusCancelled ActivityStatus = "cancelled"
	ActivityStatusCompleted ActivityStatus = "completed"
)

// activityTransitions lists the statuses each status may move to.
// cancelled and completed are terminal.
var activityTransitions = map[ActivityStatus][]ActivityStatus{
	ActivityStatusDraft:     {ActivityStatusPublished, ActivityStatusCancelled},
	ActivityStatusPublished: {ActivityStatusFull, ActivityStatusCancelled, ActivityStatusCompleted},
	ActivityStatusFull:      {ActivityStatusPublished, ActivityStatusCancelled, ActivityStatusCompleted},
}

func (s ActivityStatus) CanTransitionTo(next ActivityStatus) bool {
	for _, allowed := range activityTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Open reports whether the activity accepts participation changes.
func (s ActivityStatus) Open() bool {
	return s == ActivityStatusPublished || s == ActivityStatusFull
}

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityFriendsOnly Visibility = "friends_only"
	VisibilityPrivate     Visibility = "private"
)

// ParseVisibility accepts "friends" as an alias of friends_only.
func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "public":
		return VisibilityPublic, true
	case "friends_only", "friends":
		return VisibilityFriendsOnly, true
	case "private":
		return VisibilityPrivate, true
	}
	return "", false
}

type ValidationType string

const (
	ValidationManual ValidationType = "manual"
	ValidationAuto   ValidationType = "auto"
)

type GenderRestriction string

const (
	GenderAll    GenderRestriction = "all"
	GenderFemale GenderRestriction = "female"
	GenderMale   GenderRestriction = "male"
)

func (g GenderRestriction) Valid() bool {
	return g == GenderAll || g == GenderFemale || g == GenderMale
}

type Activity struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HostID uuid.UUID `gorm:"type:uuid;not null;index" json:"host_id"`

	Title        string       `gorm:"type:varchar(120);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	ActivityType ActivityType `gorm:"type:varchar(20);not null" json:"activity_type"`
	Category     string       `gorm:"type:varchar(50);index" json:"category,omitempty"`
	Subcategory  string       `gorm:"type:varchar(50)" json:"subcategory,omitempty"`

	Date            time.Time  `gorm:"not null;index" json:"date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`

	Address      string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	City         string   `gorm:"type:varchar(100);index" json:"city,omitempty"`
	PostalCode   string   `gorm:"type:varchar(10)" json:"postal_code,omitempty"`
	MeetingPoint string   `gorm:"type:varchar(255)" json:"meeting_point,omitempty"`
	Latitude     *float64 `gorm:"index:idx_activities_geo" json:"latitude,omitempty"`
	Longitude    *float64 `gorm:"index:idx_activities_geo" json:"longitude,omitempty"`

	VisioURL      string `gorm:"type:varchar(500)" json:"visio_url,omitempty"`
	VisioPlatform string `gorm:"type:varchar(50)" json:"visio_platform,omitempty"`

	MinParticipants     int `gorm:"not null;default:2" json:"min_participants"`
	MaxParticipants     int `gorm:"not null;default:10" json:"max_participants"`
	CurrentParticipants int `gorm:"not null;default:1" json:"current_participants"`

	MinAge            int               `gorm:"not null" json:"min_age"`
	MaxAge            int               `gorm:"not null" json:"max_age"`
	GenderRestriction GenderRestriction `gorm:"type:varchar(20);not null;default:'all'" json:"gender_restriction"`
	FriendsOnly       bool              `gorm:"not null;default:false" json:"friends_only"`
	AcceptNonVerified bool              `gorm:"not null" json:"accept_non_verified"`
	AcceptNonPremium  bool              `gorm:"not null" json:"accept_non_premium"`

	ValidationType ValidationType `gorm:"type:varchar(20);not null;default:'manual'" json:"validation_type"`
	Visibility     Visibility     `gorm:"type:varchar(20);not null;default:'public';index" json:"visibility"`
	IsFeatured     bool           `gorm:"not null;default:false" json:"is_featured"`
	ImageURL       string         `gorm:"type:varchar(500)" json:"image_url,omitempty"`

	IsPaid   bool     `gorm:"not null;default:false" json:"is_paid"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`

	LikesCount  int `gorm:"not null;default:0" json:"likes_count"`
	ViewsCount  int `gorm:"not null;default:0" json:"views_count"`
	SharesCount int `gorm:"not null;default:0" json:"shares_count"`

	Status          ActivityStatus `gorm:"type:varchar(20);not null;default:'published';index" json:"status"`
	CancelledReason string         `gorm:"type:varchar(255)" json:"cancelled_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (Activity) TableName() string { return "activities" }

func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Activity) IsFull() bool {
	return a.CurrentParticipants >= a.MaxParticipants
}

func (a *Activity) SpotsLeft() int {
	if left := a.MaxParticipants - a.CurrentParticipants; left > 0 {
		return left
	}
	return 0
}

func (a *Activity) IsPast(now time.Time) bool {
	return a.Date.Before(now)
}

func (a *Activity) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// IsFree is true when no price is set or the price is zero.
func (a *Activity) IsFree() bool {
	return a.Price == nil || *a.Price == 0
}
