package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipationStatus string

const (
	ParticipationPending   ParticipationStatus = "pending"
	ParticipationValidated ParticipationStatus = "validated"
	ParticipationRejected  ParticipationStatus = "rejected"
	ParticipationCancelled ParticipationStatus = "cancelled"
)

func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationPending, ParticipationValidated, ParticipationRejected, ParticipationCancelled:
		return true
	}
	return false
}

// Participation links one user to one activity. The (user_id, activity_id)
// pair is unique; a cancelled row is reused when the user asks again.
type Participation struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uq_user_activity,priority:1" json:"user_id"`
	ActivityID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uq_user_activity,priority:2;index" json:"activity_id"`
	Status     ParticipationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	RequestMessage  string `gorm:"type:text" json:"request_message,omitempty"`
	ResponseMessage string `gorm:"type:text" json:"response_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`

	// HostRating is given by the participant to the host.
	HostRating *int   `json:"host_rating,omitempty"`
	HostReview string `gorm:"type:text" json:"host_review,omitempty"`
	// ParticipantRating is given by the host to the participant.
	ParticipantRating *int       `json:"participant_rating,omitempty"`
	ParticipantReview string     `gorm:"type:text" json:"participant_review,omitempty"`
	RatedAt           *time.Time `json:"rated_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Participation) TableName() string { return "participations" }

func (p *Participation) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ActivityLike struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_activity_like,priority:1" json:"user_id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_activity_like,priority:2;index" json:"activity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLike) TableName() string { return "activity_likes" }

func (l *ActivityLike) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
