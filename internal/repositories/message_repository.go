package repositories

import (
	"context"

	"github.com/google/uuid"

	"campus-chat/internal/models"
)

// MessageRepository is the append-only store behind one kind of chat surface.
type MessageRepository interface {
	Append(ctx context.Context, msg models.Message) (models.Message, error)
	ListOrdered(ctx context.Context, surfaceID uuid.UUID) ([]models.Message, error)
	Latest(ctx context.Context, surfaceID uuid.UUID) (models.Message, error)
}

// SeenTracker records read receipts for messages addressed to a viewer.
type SeenTracker interface {
	MarkSeen(ctx context.Context, surfaceID uuid.UUID, viewerID string) (int64, error)
	CountUnseen(ctx context.Context, surfaceID uuid.UUID, viewerID string) (int, error)
}
