package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
	"gocial/backend/internal/repository"
)

// Store writes events as notification rows, honouring the recipient's
// notification preferences.
type Store struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
}

func NewStore(users repository.UserRepository, notifications repository.NotificationRepository) *Store {
	return &Store{users: users, notifications: notifications}
}

func (s *Store) Deliver(ctx context.Context, e Event) error {
	user, err := s.users.GetByID(ctx, e.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load recipient: %w", err)
	}
	if !user.IsActive || !e.Type.Preference(user) {
		return nil
	}

	n := &model.Notification{
		UserID:    e.UserID,
		ActorID:   e.ActorID,
		NotifType: e.Type,
		Title:     e.Title,
		Body:      e.Body,
	}
	if len(e.Data) > 0 {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("marshal data: %w", err)
		}
		n.Data = datatypes.JSON(raw)
	}
	return s.notifications.Create(ctx, n)
}
