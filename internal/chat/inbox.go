package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

const imagePreview = "Image"

// LoungeInbox lists the caller's lounges with their latest message.
func (s *Service) LoungeInbox(ctx context.Context, userID string) ([]models.LoungeSummary, error) {
	lounges, err := s.lounges.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list lounges: %w", err)
	}

	out := make([]models.LoungeSummary, 0, len(lounges))
	for _, l := range lounges {
		summary := models.LoungeSummary{Lounge: l}
		summary.LastMessage, summary.LastMessageAt, err = s.latest(ctx, models.SurfaceLounge, l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// MatchInbox lists the caller's matches with their latest message and unread count.
func (s *Service) MatchInbox(ctx context.Context, userID string) ([]models.MatchSummary, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	seen := s.surfaces[models.SurfacePrivate].seen
	out := make([]models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		summary := models.MatchSummary{Match: m, PartnerID: m.Other(userID)}
		summary.LastMessage, summary.LastMessageAt, err = s.latest(ctx, models.SurfacePrivate, m.ID)
		if err != nil {
			return nil, err
		}
		if summary.UnreadCount, err = seen.CountUnseen(ctx, m.ID, userID); err != nil {
			return nil, fmt.Errorf("count unseen: %w", err)
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) latest(ctx context.Context, kind models.SurfaceKind, surfaceID uuid.UUID) (string, *time.Time, error) {
	msg, err := s.surfaces[kind].messages.Latest(ctx, surfaceID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("load latest message: %w", err)
	}

	at := msg.CreatedAt
	view := s.decryptView(kind, msg)
	switch {
	case view.Text != nil:
		return *view.Text, &at, nil
	case view.ImageURL != nil:
		return imagePreview, &at, nil
	default:
		return "", &at, nil
	}
}
