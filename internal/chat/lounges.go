package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

const (
	// RoomClosedEvent is pushed to a lounge room right before it is torn down.
	RoomClosedEvent = "roomClosed"
	// MatchOpenedEvent is pushed to both users' rooms when their private chat opens.
	MatchOpenedEvent = "matchOpened"
)

// GetLounge returns lounge details and whether userID is currently a member.
func (s *Service) GetLounge(ctx context.Context, loungeID uuid.UUID, userID string) (models.LoungeDetails, error) {
	lounge, err := s.lounges.GetLounge(ctx, loungeID)
	if errors.Is(err, repositories.ErrLoungeNotFound) {
		return models.LoungeDetails{}, ErrSurfaceNotFound
	}
	if err != nil {
		return models.LoungeDetails{}, fmt.Errorf("load lounge: %w", err)
	}
	member, err := s.lounges.IsMember(ctx, loungeID, userID)
	if err != nil && !errors.Is(err, repositories.ErrLoungeNotFound) {
		return models.LoungeDetails{}, fmt.Errorf("check lounge membership: %w", err)
	}
	lounge.Joined = member
	return lounge, nil
}

// JoinLounge adds userID to the lounge. Any authenticated user may join.
func (s *Service) JoinLounge(ctx context.Context, loungeID uuid.UUID, userID string) (models.LoungeDetails, error) {
	if err := s.lounges.AddMember(ctx, loungeID, userID); err != nil {
		if errors.Is(err, repositories.ErrLoungeNotFound) {
			return models.LoungeDetails{}, ErrSurfaceNotFound
		}
		return models.LoungeDetails{}, fmt.Errorf("join lounge: %w", err)
	}
	return s.GetLounge(ctx, loungeID, userID)
}

// LeaveLounge removes userID from the lounge and unsubscribes the user's live
// connections from its room.
func (s *Service) LeaveLounge(ctx context.Context, loungeID uuid.UUID, userID string) error {
	if err := s.lounges.RemoveMember(ctx, loungeID, userID); err != nil {
		if errors.Is(err, repositories.ErrLoungeNotFound) {
			return ErrSurfaceNotFound
		}
		return fmt.Errorf("leave lounge: %w", err)
	}
	s.hub.LeaveUser(loungeID.String(), userID)
	return nil
}

// ProvisionLounge creates the lounge that belongs to a community or event.
func (s *Service) ProvisionLounge(ctx context.Context, parentType models.ParentType, parentID, name, createdBy string) (models.Lounge, error) {
	parentID = strings.TrimSpace(parentID)
	if !parentType.Valid() || parentID == "" {
		return models.Lounge{}, ErrInvalidParent
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Lounge"
	}
	lounge, err := s.lounges.CreateForParent(ctx, parentType, parentID, name, createdBy)
	if err != nil {
		return models.Lounge{}, fmt.Errorf("provision lounge: %w", err)
	}
	s.log.Info("lounge provisioned",
		zap.Stringer("lounge_id", lounge.ID),
		zap.String("parent_type", string(parentType)),
		zap.String("parent_id", parentID),
	)
	return lounge, nil
}

// DestroyLounge deletes the parent's lounge and all its messages, then closes its room.
func (s *Service) DestroyLounge(ctx context.Context, parentType models.ParentType, parentID string) (uuid.UUID, error) {
	if !parentType.Valid() || strings.TrimSpace(parentID) == "" {
		return uuid.Nil, ErrInvalidParent
	}
	loungeID, err := s.lounges.DeleteForParent(ctx, parentType, parentID)
	if errors.Is(err, repositories.ErrLoungeNotFound) {
		return uuid.Nil, ErrSurfaceNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("destroy lounge: %w", err)
	}

	room := loungeID.String()
	s.hub.Publish(room, RoomClosedEvent, map[string]string{"surface_id": room})
	s.hub.CloseRoom(room)
	s.log.Info("lounge destroyed",
		zap.Stringer("lounge_id", loungeID),
		zap.String("parent_type", string(parentType)),
		zap.String("parent_id", parentID),
	)
	return loungeID, nil
}

// OpenMatch records that two users connected and returns their private chat.
func (s *Service) OpenMatch(ctx context.Context, userID, otherID string, via models.MatchVia) (models.Match, error) {
	userID, otherID = strings.TrimSpace(userID), strings.TrimSpace(otherID)
	if userID == "" || otherID == "" || !via.Valid() {
		return models.Match{}, ErrInvalidMatch
	}
	match, err := s.matches.CreateOrGetMatch(ctx, userID, otherID, via)
	if errors.Is(err, repositories.ErrSelfMatch) {
		return models.Match{}, ErrInvalidMatch
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("open match: %w", err)
	}
	for _, uid := range []string{match.User1ID, match.User2ID} {
		s.hub.Publish(models.UserRoom(uid), MatchOpenedEvent, match)
	}
	return match, nil
}
