package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gocial/backend/internal/repository"
	"gocial/backend/internal/visibility"
)

// FriendService answers friendship questions for visibility checks. Every
// call reads the accepted friendships from the database, so a block or an
// unfriend hides friends-only activities on the next request.
type FriendService interface {
	Friends(ctx context.Context, userID uuid.UUID) (visibility.FriendSet, error)
}

type friendService struct {
	repo repository.FriendshipRepository
}

func NewFriendService(repo repository.FriendshipRepository) FriendService {
	return &friendService{repo: repo}
}

func (s *friendService) Friends(ctx context.Context, userID uuid.UUID) (visibility.FriendSet, error) {
	ids, err := s.repo.AcceptedFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}
	return visibility.NewFriendSet(ids), nil
}
