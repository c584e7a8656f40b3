// Package visibility decides who may discover an activity. The in-memory
// predicate and the SQL scope used by the feed live side by side so the
// two cannot drift.
package visibility

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"gocial/backend/internal/model"
)

// FriendSet holds the accepted friends of a viewer.
type FriendSet map[uuid.UUID]struct{}

func NewFriendSet(ids []uuid.UUID) FriendSet {
	set := make(FriendSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s FriendSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s FriendSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// IsVisible applies the rules in order: the host always sees the activity,
// public is visible to everyone, friends_only requires the viewer to be an
// accepted friend of the host, private is host only.
func IsVisible(a *model.Activity, viewerID uuid.UUID, friends FriendSet) bool {
	if a == nil {
		return false
	}
	if a.HostID == viewerID {
		return true
	}
	switch a.Visibility {
	case model.VisibilityPublic:
		return true
	case model.VisibilityFriendsOnly:
		return friends.Has(a.HostID)
	default:
		return false
	}
}

// CanViewRoster narrows IsVisible for the detail view: only the host and
// validated participants see who else is coming.
func CanViewRoster(a *model.Activity, viewerID uuid.UUID, own *model.Participation) bool {
	if a == nil {
		return false
	}
	if a.HostID == viewerID {
		return true
	}
	return own != nil && own.UserID == viewerID && own.Status == model.ParticipationValidated
}

// Scope is IsVisible expressed as a query condition on the activities table.
func Scope(viewerID uuid.UUID, friends FriendSet) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		ids := friends.IDs()
		if len(ids) == 0 {
			return db.Where("(activities.visibility = ? OR activities.host_id = ?)",
				model.VisibilityPublic, viewerID)
		}
		return db.Where(
			"(activities.visibility = ? OR (activities.visibility = ? AND activities.host_id IN ?) OR activities.host_id = ?)",
			model.VisibilityPublic, model.VisibilityFriendsOnly, ids, viewerID,
		)
	}
}
