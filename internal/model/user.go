package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypePerson UserType = "person"
	UserTypePro    UserType = "pro"
	UserTypeAsso   UserType = "asso"
)

// User is owned by the account service; the activity core only reads it.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserType  UserType  `gorm:"type:varchar(20);not null;default:'person'" json:"user_type"`
	Email     string    `gorm:"type:varchar(120)" json:"-"`
	Pseudo    string    `gorm:"type:varchar(50);index" json:"pseudo"`
	FirstName string    `gorm:"type:varchar(50)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(50)" json:"-"`
	AvatarURL string    `gorm:"type:varchar(500)" json:"avatar_url"`
	Bio       string    `gorm:"type:text" json:"bio"`
	City      string    `gorm:"type:varchar(100)" json:"city"`

	Gender    string     `gorm:"type:varchar(20)" json:"-"`
	BirthDate *time.Time `json:"-"`

	CompanyName string `gorm:"type:varchar(100)" json:"-"`
	Description string `gorm:"type:text" json:"-"`
	Website     string `gorm:"type:varchar(200)" json:"-"`

	IsVerified    bool `gorm:"not null;default:false" json:"is_verified"`
	IsActive      bool `gorm:"not null" json:"-"`
	IsPremium     bool `gorm:"not null;default:false" json:"is_premium"`
	GirlsOnlyMode bool `gorm:"not null;default:false" json:"-"`

	NotifParticipation bool `gorm:"not null" json:"-"`
	NotifNewActivity   bool `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Age returns nil when the birth date is unknown.
func (u *User) Age(now time.Time) *int {
	if u.BirthDate == nil {
		return nil
	}
	born := *u.BirthDate
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return &age
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is directional while pending and symmetric once accepted.
type Friendship struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_friendship,priority:1" json:"user_id"`
	FriendID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_friendship,priority:2;index" json:"friend_id"`
	Status     FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty"`
}

func (Friendship) TableName() string { return "friendships" }

func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
