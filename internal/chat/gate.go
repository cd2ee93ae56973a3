package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

// Gate decides whether a user may read or write a chat surface. Every call goes to
// the store; decisions are never cached because lounge membership changes.
type Gate struct {
	lounges repositories.LoungeRepository
	matches repositories.MatchRepository
}

// NewGate constructs a Gate.
func NewGate(lounges repositories.LoungeRepository, matches repositories.MatchRepository) *Gate {
	return &Gate{lounges: lounges, matches: matches}
}

// Authorize returns nil when userID may use the surface.
func (g *Gate) Authorize(ctx context.Context, kind models.SurfaceKind, surfaceID uuid.UUID, userID string) error {
	switch kind {
	case models.SurfaceLounge:
		return g.authorizeLounge(ctx, surfaceID, userID)
	case models.SurfacePrivate:
		_, err := g.authorizeMatch(ctx, surfaceID, userID)
		return err
	default:
		return ErrUnknownSurface
	}
}

// AuthorizeRoom adapts Authorize to the real-time room join check.
func (g *Gate) AuthorizeRoom(ctx context.Context, kind string, surfaceID uuid.UUID, userID string) error {
	return g.Authorize(ctx, models.SurfaceKind(kind), surfaceID, userID)
}

func (g *Gate) authorizeLounge(ctx context.Context, loungeID uuid.UUID, userID string) error {
	member, err := g.lounges.IsMember(ctx, loungeID, userID)
	if errors.Is(err, repositories.ErrLoungeNotFound) {
		return ErrSurfaceNotFound
	}
	if err != nil {
		return fmt.Errorf("check lounge membership: %w", err)
	}
	if !member {
		return ErrNotAMember
	}
	return nil
}

// authorizeMatch returns the match so callers can address the other participant.
func (g *Gate) authorizeMatch(ctx context.Context, matchID uuid.UUID, userID string) (models.Match, error) {
	match, err := g.matches.GetMatch(ctx, matchID)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return models.Match{}, ErrSurfaceNotFound
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("load match: %w", err)
	}
	if !match.HasParticipant(userID) {
		return models.Match{}, ErrNotAParticipant
	}
	return match, nil
}
