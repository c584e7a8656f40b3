package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifParticipationRequest   NotificationType = "participation_request"
	NotifParticipationJoined    NotificationType = "participation_joined"
	NotifParticipationAccepted  NotificationType = "participation_accepted"
	NotifParticipationRejected  NotificationType = "participation_rejected"
	NotifParticipationCancelled NotificationType = "participation_cancelled"
	NotifActivityCancelled      NotificationType = "activity_cancelled"
	NotifActivityReminder       NotificationType = "activity_reminder"
)

// Preference reports whether the user accepts this type of notification.
func (t NotificationType) Preference(u *User) bool {
	switch t {
	case NotifParticipationRequest, NotifParticipationJoined, NotifParticipationAccepted,
		NotifParticipationRejected, NotifParticipationCancelled:
		return u.NotifParticipation
	case NotifActivityCancelled, NotifActivityReminder:
		return u.NotifNewActivity
	}
	return true
}

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	ActorID   *uuid.UUID       `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	NotifType NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string           `gorm:"type:varchar(150)" json:"title"`
	Body      string           `gorm:"type:text" json:"body,omitempty"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
